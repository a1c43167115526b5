package orchestrator

import (
	"context"
	"fmt"

	"github.com/skyroute/skyroute/internal/airspace"
	"github.com/skyroute/skyroute/internal/geo"
	"github.com/skyroute/skyroute/internal/mission"
	"github.com/skyroute/skyroute/internal/planner"
)

// legPlanner plans individual legs over a graph built once per drone and
// reused for every leg of that drone's route.
type legPlanner struct {
	alg  planner.Algorithm
	grid *airspace.Grid
	mesh *airspace.Mesh
}

func (o *Orchestrator) newLegPlanner(depot mission.Waypoint, targets []mission.Waypoint, model *geo.CostModel) (*legPlanner, error) {
	lp := &legPlanner{alg: o.opts.Algorithm}
	if o.opts.UseGrid {
		grid, err := airspace.BuildGrid(depot, targets, airspace.GridConfig{
			Model:       model,
			ResolutionM: o.opts.GridResolution,
		})
		if err != nil {
			return nil, fmt.Errorf("build grid: %w", err)
		}
		lp.grid = grid
		return lp, nil
	}
	mesh, err := airspace.BuildMesh(depot, targets, model)
	if err != nil {
		return nil, fmt.Errorf("build mesh: %w", err)
	}
	lp.mesh = mesh
	return lp, nil
}

// plan returns the leg's waypoints from exact start to exact goal. On a
// grid the interior points are cell centers; the endpoints are always the
// requested waypoints so targets survive discretization byte for byte.
func (l *legPlanner) plan(ctx context.Context, from, to mission.Waypoint) ([]mission.Waypoint, int, error) {
	if l.grid != nil {
		return l.planGrid(ctx, from, to)
	}
	return l.planMesh(ctx, from, to)
}

func (l *legPlanner) planGrid(ctx context.Context, from, to mission.Waypoint) ([]mission.Waypoint, int, error) {
	start, ok := l.grid.NearestCell(from)
	if !ok {
		return nil, 0, fmt.Errorf("%w: no traversable cell near %q", planner.ErrNoPath, from.Label)
	}
	goal, ok := l.grid.NearestCell(to)
	if !ok {
		return nil, 0, fmt.Errorf("%w: no traversable cell near %q", planner.ErrNoPath, to.Label)
	}

	path, err := planner.Plan(ctx, l.alg, l.grid, start, goal, planner.Config{})
	if err != nil {
		return nil, 0, err
	}

	wps := make([]mission.Waypoint, 0, len(path.Waypoints)+2)
	wps = append(wps, from)
	// Interior lattice points only; the snapped endpoint cells duplicate
	// the exact endpoints.
	if len(path.Waypoints) > 2 {
		wps = append(wps, path.Waypoints[1:len(path.Waypoints)-1]...)
	}
	wps = append(wps, to)
	return wps, path.Expanded, nil
}

func (l *legPlanner) planMesh(ctx context.Context, from, to mission.Waypoint) ([]mission.Waypoint, int, error) {
	start, ok := l.mesh.NodeFor(from)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q is not a mission waypoint", planner.ErrNoPath, from.Label)
	}
	goal, ok := l.mesh.NodeFor(to)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q is not a mission waypoint", planner.ErrNoPath, to.Label)
	}

	path, err := planner.Plan(ctx, l.alg, l.mesh, start, goal, planner.Config{})
	if err != nil {
		return nil, 0, err
	}

	wps := append([]mission.Waypoint(nil), path.Waypoints...)
	// The mesh stores the mission's own waypoints, but keep the exact
	// endpoints in case labels differ between legs.
	wps[0] = from
	wps[len(wps)-1] = to
	return wps, path.Expanded, nil
}
