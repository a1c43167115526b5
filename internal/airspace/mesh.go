package airspace

import (
	"github.com/skyroute/skyroute/internal/geo"
	"github.com/skyroute/skyroute/internal/mission"
)

// Mesh is a fully connected graph over the mission's named waypoints. An
// edge exists when the direct segment between two waypoints is flyable and
// within the drone's range. Missions that need to route around obstacles
// rather than between fixed points should use a Grid instead.
type Mesh struct {
	model     *geo.CostModel
	waypoints []mission.Waypoint
	adjacency [][]int
}

// BuildMesh connects the depot and targets into a waypoint mesh. Edge
// validity is evaluated against active zones and weather at build time.
func BuildMesh(depot mission.Waypoint, targets []mission.Waypoint, model *geo.CostModel) (*Mesh, error) {
	if model == nil {
		return nil, ErrNoModel
	}

	wps := make([]mission.Waypoint, 0, len(targets)+1)
	wps = append(wps, depot)
	wps = append(wps, targets...)

	m := &Mesh{
		model:     model,
		waypoints: wps,
		adjacency: make([][]int, len(wps)),
	}

	maxRange := model.Drone().MaxRange
	for i := range wps {
		for j := range wps {
			if i == j {
				continue
			}
			if maxRange > 0 && geo.Distance3D(wps[i], wps[j]) > maxRange {
				continue
			}
			if ok, _ := model.SegmentValid(wps[i], wps[j]); !ok {
				continue
			}
			m.adjacency[i] = append(m.adjacency[i], j)
		}
	}
	return m, nil
}

// Nodes returns the waypoint count.
func (m *Mesh) Nodes() int { return len(m.waypoints) }

// Waypoint returns the waypoint at a node index. Index 0 is the depot.
func (m *Mesh) Waypoint(id int) mission.Waypoint { return m.waypoints[id] }

// Neighbors appends the nodes reachable by a direct flyable segment.
func (m *Mesh) Neighbors(id int, buf []int) []int {
	return append(buf, m.adjacency[id]...)
}

// Cost returns the traversal cost of the direct segment between two nodes.
func (m *Mesh) Cost(a, b int) float64 {
	return m.model.EdgeCost(m.waypoints[a], m.waypoints[b])
}

// Heuristic returns an admissible remaining-cost estimate.
func (m *Mesh) Heuristic(a, b int) float64 {
	return m.model.HeuristicCost(m.waypoints[a], m.waypoints[b])
}

// LineOfSight reports whether the direct segment between two nodes is
// flyable.
func (m *Mesh) LineOfSight(a, b int) bool {
	ok, _ := m.model.SegmentValid(m.waypoints[a], m.waypoints[b])
	return ok
}

// NodeFor returns the node index holding a waypoint, matched by position.
func (m *Mesh) NodeFor(wp mission.Waypoint) (int, bool) {
	for i, w := range m.waypoints {
		if w.Same(wp) {
			return i, true
		}
	}
	return 0, false
}
