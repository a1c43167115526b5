package planner

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyroute/skyroute/internal/mission"
)

// gridWorld is a flat unit-spaced lattice used to exercise the planners
// without the geographic machinery. Coordinates are meters on a local
// plane; costs are euclidean.
type gridWorld struct {
	w, h    int
	blocked map[int]bool
}

func newGridWorld(w, h int) *gridWorld {
	return &gridWorld{w: w, h: h, blocked: make(map[int]bool)}
}

func (g *gridWorld) at(x, y int) int { return y*g.w + x }

func (g *gridWorld) xy(id int) (int, int) { return id % g.w, id / g.w }

func (g *gridWorld) block(x, y int) { g.blocked[g.at(x, y)] = true }

func (g *gridWorld) Nodes() int { return g.w * g.h }

func (g *gridWorld) Neighbors(id int, buf []int) []int {
	x, y := g.xy(id)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= g.w || ny < 0 || ny >= g.h {
				continue
			}
			nid := g.at(nx, ny)
			if !g.blocked[nid] {
				buf = append(buf, nid)
			}
		}
	}
	return buf
}

func (g *gridWorld) Cost(a, b int) float64 {
	ax, ay := g.xy(a)
	bx, by := g.xy(b)
	dx, dy := float64(bx-ax), float64(by-ay)
	return math.Sqrt(dx*dx + dy*dy)
}

func (g *gridWorld) Heuristic(a, b int) float64 { return g.Cost(a, b) }

func (g *gridWorld) Waypoint(id int) mission.Waypoint {
	x, y := g.xy(id)
	return mission.Waypoint{Lat: float64(y), Lon: float64(x)}
}

// LineOfSight samples the straight segment at quarter-cell steps.
func (g *gridWorld) LineOfSight(a, b int) bool {
	ax, ay := g.xy(a)
	bx, by := g.xy(b)
	steps := 4 * int(math.Max(math.Abs(float64(bx-ax)), math.Abs(float64(by-ay))))
	for i := 1; i < steps; i++ {
		f := float64(i) / float64(steps)
		x := int(math.Round(float64(ax) + f*float64(bx-ax)))
		y := int(math.Round(float64(ay) + f*float64(by-ay)))
		if g.blocked[g.at(x, y)] {
			return false
		}
	}
	return true
}

// wallWorld is a 10x10 grid with a vertical wall leaving a single gap at
// the top.
func wallWorld() *gridWorld {
	g := newGridWorld(10, 10)
	for y := 1; y < 10; y++ {
		g.block(5, y)
	}
	return g
}

// dijkstra is the reference optimum for the property tests.
func dijkstra(g Graph, start, goal int) float64 {
	dist := make([]float64, g.Nodes())
	done := make([]bool, g.Nodes())
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[start] = 0
	var buf []int
	for {
		u, best := -1, math.Inf(1)
		for i := range dist {
			if !done[i] && dist[i] < best {
				u, best = i, dist[i]
			}
		}
		if u < 0 || u == goal {
			return dist[goal]
		}
		done[u] = true
		buf = g.Neighbors(u, buf[:0])
		for _, nb := range buf {
			if d := dist[u] + g.Cost(u, nb); d < dist[nb] {
				dist[nb] = d
			}
		}
	}
}

func TestAStar_FindsOptimalPath(t *testing.T) {
	g := wallWorld()
	start, goal := g.at(0, 5), g.at(9, 5)

	path, err := Plan(context.Background(), AStar, g, start, goal, Config{})
	require.NoError(t, err)

	assert.Equal(t, start, path.Nodes[0])
	assert.Equal(t, goal, path.Nodes[len(path.Nodes)-1])

	want := dijkstra(g, start, goal)
	assert.InDelta(t, want, path.Cost, 1e-9, "A* must match the Dijkstra optimum")

	// Consecutive path nodes must be adjacent and unblocked.
	var buf []int
	for i := 0; i+1 < len(path.Nodes); i++ {
		buf = g.Neighbors(path.Nodes[i], buf[:0])
		assert.Contains(t, buf, path.Nodes[i+1])
	}
}

func TestAStar_NoPath(t *testing.T) {
	g := newGridWorld(10, 10)
	for y := 0; y < 10; y++ {
		g.block(5, y)
	}

	_, err := Plan(context.Background(), AStar, g, g.at(0, 5), g.at(9, 5), Config{})
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestAStar_ExpansionBudget(t *testing.T) {
	g := wallWorld()
	_, err := Plan(context.Background(), AStar, g, g.at(0, 5), g.at(9, 5), Config{MaxExpansions: 3})
	assert.ErrorIs(t, err, ErrExpansionsBudget)
}

func TestAStar_CancelledContext(t *testing.T) {
	g := wallWorld()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Plan(ctx, AStar, g, g.at(0, 5), g.at(9, 5), Config{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThetaStar_NeverCostlierThanAStar(t *testing.T) {
	worlds := []*gridWorld{
		newGridWorld(12, 12),
		wallWorld(),
	}
	for _, g := range worlds {
		start, goal := g.at(0, 0), g.at(9, 9)

		astar, err := Plan(context.Background(), AStar, g, start, goal, Config{})
		require.NoError(t, err)
		theta, err := Plan(context.Background(), ThetaStar, g, start, goal, Config{})
		require.NoError(t, err)

		assert.LessOrEqual(t, theta.Cost, astar.Cost+1e-9)
		assert.Equal(t, start, theta.Nodes[0])
		assert.Equal(t, goal, theta.Nodes[len(theta.Nodes)-1])
	}
}

func TestThetaStar_ShortcutsOpenSpace(t *testing.T) {
	g := newGridWorld(12, 12)
	start, goal := g.at(0, 0), g.at(11, 7)

	theta, err := Plan(context.Background(), ThetaStar, g, start, goal, Config{})
	require.NoError(t, err)

	// With nothing in the way the any-angle path is the straight line.
	assert.InDelta(t, g.Cost(start, goal), theta.Cost, 1e-9)
	assert.Len(t, theta.Nodes, 2)
}

func TestDStarLite_MatchesAStarInitially(t *testing.T) {
	g := wallWorld()
	start, goal := g.at(0, 5), g.at(9, 5)

	astar, err := Plan(context.Background(), AStar, g, start, goal, Config{})
	require.NoError(t, err)

	dstar, err := Plan(context.Background(), DStar, g, start, goal, Config{})
	require.NoError(t, err)

	assert.InDelta(t, astar.Cost, dstar.Cost, 1e-9)
}

func TestDStarLite_ReplanAfterBlocking(t *testing.T) {
	g := wallWorld()
	start, goal := g.at(0, 5), g.at(9, 5)

	d, err := NewDStarLite(g, start, goal, Config{})
	require.NoError(t, err)

	first, err := d.Plan(context.Background())
	require.NoError(t, err)

	// Close the gap at the top of the wall and open one at the bottom.
	g.block(5, 0)
	g.blocked[g.at(5, 9)] = false
	d.NotifyChanged(g.at(5, 0), g.at(5, 9))

	replanned, err := d.Plan(context.Background())
	require.NoError(t, err)

	fresh, err := Plan(context.Background(), AStar, g, start, goal, Config{})
	require.NoError(t, err)

	assert.InDelta(t, fresh.Cost, replanned.Cost, 1e-9,
		"incremental replan must match a fresh search")
	assert.NotEqual(t, first.Nodes, replanned.Nodes)
}

func TestDStarLite_ReplanToNoPath(t *testing.T) {
	g := wallWorld()
	start, goal := g.at(0, 5), g.at(9, 5)

	d, err := NewDStarLite(g, start, goal, Config{})
	require.NoError(t, err)
	_, err = d.Plan(context.Background())
	require.NoError(t, err)

	// Seal the only gap.
	g.block(5, 0)
	d.NotifyChanged(g.at(5, 0))

	_, err = d.Plan(context.Background())
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("theta_star")
	require.NoError(t, err)
	assert.Equal(t, ThetaStar, alg)

	alg, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, AStar, alg)

	_, err = ParseAlgorithm("bfs")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}
