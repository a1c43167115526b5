// Package planner implements single-leg pathfinding over a navigable graph.
// Three algorithms share one entry point: A* for optimal grid paths, Theta*
// for any-angle paths with line-of-sight shortcuts, and D* Lite for
// incremental replanning when the graph changes mid-flight.
package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/skyroute/skyroute/internal/mission"
)

// Planning errors.
var (
	ErrNoPath           = errors.New("no path between start and goal")
	ErrExpansionsBudget = errors.New("node expansion budget exhausted")
	ErrUnknownAlgorithm = errors.New("unknown planning algorithm")
)

// Algorithm selects the search strategy.
type Algorithm string

const (
	AStar     Algorithm = "astar"
	ThetaStar Algorithm = "theta_star"
	DStar     Algorithm = "dstar"
)

// ParseAlgorithm maps a config string to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AStar, ThetaStar, DStar:
		return Algorithm(s), nil
	case "":
		return AStar, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

// Graph is the navigable structure planners search over. Node ids are dense
// in [0, Nodes()).
type Graph interface {
	Nodes() int
	// Neighbors appends the traversable nodes adjacent to id to buf.
	Neighbors(id int, buf []int) []int
	// Cost returns the traversal cost between two nodes. Must be
	// nonnegative and defined for any pair, not only adjacent ones.
	Cost(a, b int) float64
	// Heuristic estimates remaining cost and must never overestimate.
	Heuristic(a, b int) float64
	Waypoint(id int) mission.Waypoint
	// LineOfSight reports whether the straight segment between two nodes
	// is traversable.
	LineOfSight(a, b int) bool
}

// Path is a planned leg through the graph.
type Path struct {
	// Nodes from start to goal, inclusive.
	Nodes []int
	// Waypoints corresponding to Nodes.
	Waypoints []mission.Waypoint
	// Cost is the summed edge cost along the path.
	Cost float64
	// Expanded counts nodes popped from the open set during search.
	Expanded int
}

// Config tunes a search.
type Config struct {
	// MaxExpansions bounds search effort (default 4x node count).
	MaxExpansions int
}

func (c Config) maxExpansions(g Graph) int {
	if c.MaxExpansions > 0 {
		return c.MaxExpansions
	}
	return 4 * g.Nodes()
}

// Plan runs the selected algorithm from start to goal. The context is
// checked between expansions so long searches abort on cancellation.
func Plan(ctx context.Context, alg Algorithm, g Graph, start, goal int, cfg Config) (Path, error) {
	switch alg {
	case AStar:
		return planAStar(ctx, g, start, goal, cfg, false)
	case ThetaStar:
		return planAStar(ctx, g, start, goal, cfg, true)
	case DStar:
		d, err := NewDStarLite(g, start, goal, cfg)
		if err != nil {
			return Path{}, err
		}
		return d.Plan(ctx)
	}
	return Path{}, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
}

func pathFrom(g Graph, parent []int, goal int, cost float64, expanded int) Path {
	var rev []int
	for n := goal; n >= 0; n = parent[n] {
		rev = append(rev, n)
	}
	nodes := make([]int, len(rev))
	wps := make([]mission.Waypoint, len(rev))
	for i, n := range rev {
		j := len(rev) - 1 - i
		nodes[j] = n
		wps[j] = g.Waypoint(n)
	}
	return Path{Nodes: nodes, Waypoints: wps, Cost: cost, Expanded: expanded}
}
