// Package airspace builds the navigable graphs planners search over: a
// discretized 3-D grid of the mission's bounding volume, and a fully
// connected waypoint mesh for grid-free planning. Both are derived,
// disposable structures rebuilt per mission and read-only once built.
package airspace

import (
	"errors"
	"math"

	"github.com/skyroute/skyroute/internal/geo"
	"github.com/skyroute/skyroute/internal/mission"
)

// Grid build errors.
var (
	ErrEmptyVolume = errors.New("mission bounding volume is empty")
	ErrNoModel     = errors.New("cost model is required")
)

// GridConfig configures grid construction.
type GridConfig struct {
	// Model supplies blocking, cost, and heuristic evaluation. Required.
	Model *geo.CostModel

	// ResolutionM is the horizontal cell size in meters (default 200).
	// Coarsened automatically when the volume would exceed MaxCells.
	ResolutionM float64

	// AltitudeLevels is the number of vertical layers (default 5).
	AltitudeLevels int

	// MarginM pads the bounding box around depot and targets (default 500).
	MarginM float64

	// MaxCells bounds the total cell count (default 100000).
	MaxCells int
}

// Grid is a 3-D lattice over the mission bounding volume. Cells are
// addressed by a flat index; blocked cells are excluded from adjacency.
type Grid struct {
	model *geo.CostModel

	minLat, minLon float64
	latStep        float64 // degrees per row
	lonStep        float64 // degrees per col
	minAlt         float64
	altStep        float64

	rows, cols, levels int
	blocked            []bool
	centers            []mission.Waypoint
}

// BuildGrid discretizes the bounding volume of the depot and targets into a
// regular lattice, marking cells blocked by no-fly zones. An unreachable
// target is a planning failure surfaced later by the planner, not a build
// failure here.
func BuildGrid(depot mission.Waypoint, targets []mission.Waypoint, cfg GridConfig) (*Grid, error) {
	if cfg.Model == nil {
		return nil, ErrNoModel
	}
	if len(targets) == 0 {
		return nil, ErrEmptyVolume
	}

	resolution := cfg.ResolutionM
	if resolution <= 0 {
		resolution = 200
	}
	levels := cfg.AltitudeLevels
	if levels <= 0 {
		levels = 5
	}
	margin := cfg.MarginM
	if margin <= 0 {
		margin = 500
	}
	maxCells := cfg.MaxCells
	if maxCells <= 0 {
		maxCells = 100000
	}

	minLat, maxLat := depot.Lat, depot.Lat
	minLon, maxLon := depot.Lon, depot.Lon
	for _, t := range targets {
		minLat = math.Min(minLat, t.Lat)
		maxLat = math.Max(maxLat, t.Lat)
		minLon = math.Min(minLon, t.Lon)
		maxLon = math.Max(maxLon, t.Lon)
	}

	midLat := (minLat + maxLat) / 2
	latPerMeter := 1.0 / 111320.0
	lonPerMeter := 1.0 / (111320.0 * math.Cos(midLat*math.Pi/180))

	minLat -= margin * latPerMeter
	maxLat += margin * latPerMeter
	minLon -= margin * lonPerMeter
	maxLon += margin * lonPerMeter

	heightM := (maxLat - minLat) / latPerMeter
	widthM := (maxLon - minLon) / lonPerMeter

	// Coarsen until the lattice fits the cell budget.
	rows := int(heightM/resolution) + 1
	cols := int(widthM/resolution) + 1
	for rows*cols*levels > maxCells {
		resolution *= 1.5
		rows = int(heightM/resolution) + 1
		cols = int(widthM/resolution) + 1
	}

	drone := cfg.Model.Drone()
	minAlt := drone.MinAltitude
	maxAlt := drone.MaxAltitude
	altStep := 0.0
	if levels > 1 {
		altStep = (maxAlt - minAlt) / float64(levels-1)
	}

	g := &Grid{
		model:   cfg.Model,
		minLat:  minLat,
		minLon:  minLon,
		latStep: resolution * latPerMeter,
		lonStep: resolution * lonPerMeter,
		minAlt:  minAlt,
		altStep: altStep,
		rows:    rows,
		cols:    cols,
		levels:  levels,
		blocked: make([]bool, rows*cols*levels),
		centers: make([]mission.Waypoint, rows*cols*levels),
	}

	zones := cfg.Model.Zones()
	// A cell is blocked when its center is inside a zone or within half a
	// cell diagonal of one, so a diagonal move between two open cells cannot
	// clip a zone corner.
	halfDiagM := resolution * math.Sqrt2 / 2
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for l := 0; l < levels; l++ {
				id := g.index(r, c, l)
				wp := mission.Waypoint{
					Lat:  minLat + float64(r)*g.latStep,
					Lon:  minLon + float64(c)*g.lonStep,
					Alt:  minAlt + float64(l)*altStep,
					Type: mission.WaypointIntermediate,
				}
				g.centers[id] = wp
				for _, z := range zones {
					if z.ClearanceM(wp.Lat, wp.Lon, wp.Alt) < halfDiagM {
						g.blocked[id] = true
						break
					}
				}
			}
		}
	}

	return g, nil
}

func (g *Grid) index(r, c, l int) int {
	return (r*g.cols+c)*g.levels + l
}

func (g *Grid) cell(id int) (r, c, l int) {
	l = id % g.levels
	rc := id / g.levels
	return rc / g.cols, rc % g.cols, l
}

// Nodes returns the total cell count, blocked cells included.
func (g *Grid) Nodes() int { return len(g.centers) }

// Waypoint returns the center of a cell.
func (g *Grid) Waypoint(id int) mission.Waypoint { return g.centers[id] }

// Blocked reports whether a cell is untraversable.
func (g *Grid) Blocked(id int) bool { return g.blocked[id] }

// Block marks a cell untraversable. Used for in-flight zone discovery;
// planners holding incremental state are told separately via their update
// entry points.
func (g *Grid) Block(id int) { g.blocked[id] = true }

// Neighbors appends the traversable cells geometrically adjacent to id
// (orthogonal and diagonal in the horizontal plane, plus the cells directly
// above and below) to buf and returns it.
func (g *Grid) Neighbors(id int, buf []int) []int {
	r, c, l := g.cell(id)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			nr, nc := r+dr, c+dc
			if nr < 0 || nr >= g.rows || nc < 0 || nc >= g.cols {
				continue
			}
			nid := g.index(nr, nc, l)
			if !g.blocked[nid] {
				buf = append(buf, nid)
			}
		}
	}
	for _, dl := range []int{-1, 1} {
		nl := l + dl
		if nl < 0 || nl >= g.levels {
			continue
		}
		nid := g.index(r, c, nl)
		if !g.blocked[nid] {
			buf = append(buf, nid)
		}
	}
	return buf
}

// Cost returns the traversal cost between two cell centers.
func (g *Grid) Cost(a, b int) float64 {
	return g.model.EdgeCost(g.centers[a], g.centers[b])
}

// Heuristic returns an admissible remaining-cost estimate between cells.
func (g *Grid) Heuristic(a, b int) float64 {
	return g.model.HeuristicCost(g.centers[a], g.centers[b])
}

// LineOfSight reports whether the straight segment between two cell centers
// is flyable: clear of zones, safe weather, and not passing through blocked
// cells. Sampled at half-cell steps.
func (g *Grid) LineOfSight(a, b int) bool {
	wa, wb := g.centers[a], g.centers[b]
	if ok, _ := g.model.SegmentValid(wa, wb); !ok {
		return false
	}

	dist := geo.Distance3D(wa, wb)
	stepM := math.Min(g.latStep/2/(1.0/111320.0), g.lonStep/2/(1.0/111320.0))
	steps := int(dist/math.Max(stepM, 1)) + 1
	for i := 1; i < steps; i++ {
		f := float64(i) / float64(steps)
		p := mission.Waypoint{
			Lat: wa.Lat + (wb.Lat-wa.Lat)*f,
			Lon: wa.Lon + (wb.Lon-wa.Lon)*f,
			Alt: wa.Alt + (wb.Alt-wa.Alt)*f,
		}
		if id, ok := g.CellAt(p); ok && g.blocked[id] {
			return false
		}
	}
	return true
}

// CellAt returns the index of the cell containing a point.
func (g *Grid) CellAt(p mission.Waypoint) (int, bool) {
	r := int(math.Round((p.Lat - g.minLat) / g.latStep))
	c := int(math.Round((p.Lon - g.minLon) / g.lonStep))
	l := 0
	if g.altStep > 0 {
		l = int(math.Round((p.Alt - g.minAlt) / g.altStep))
	}
	if r < 0 || r >= g.rows || c < 0 || c >= g.cols || l < 0 || l >= g.levels {
		return 0, false
	}
	return g.index(r, c, l), true
}

// NearestCell returns the traversable cell closest to a waypoint.
func (g *Grid) NearestCell(p mission.Waypoint) (int, bool) {
	if id, ok := g.CellAt(p); ok && !g.blocked[id] {
		return id, true
	}

	best := -1
	bestDist := math.MaxFloat64
	for id := range g.centers {
		if g.blocked[id] {
			continue
		}
		d := geo.Distance3D(p, g.centers[id])
		if d < bestDist {
			bestDist = d
			best = id
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}
