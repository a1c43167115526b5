package planner

import (
	"context"
	"fmt"
	"math"

	"github.com/skyroute/skyroute/internal/mission"
)

// DStarLite holds incremental search state between replans. The search runs
// backward from the goal, so when cells become blocked mid-flight only the
// affected region is re-expanded instead of starting over.
type DStarLite struct {
	graph Graph
	cfg   Config

	start, goal int
	last        int // start position at the previous replan

	dist []float64 // cost-to-goal estimates
	rhs  []float64 // one-step lookahead values
	open *indexedHeap
	km   float64

	expanded int
	nbuf     []int
}

// NewDStarLite prepares incremental state for a start/goal pair.
func NewDStarLite(g Graph, start, goal int, cfg Config) (*DStarLite, error) {
	n := g.Nodes()
	if start < 0 || start >= n || goal < 0 || goal >= n {
		return nil, fmt.Errorf("node out of range: start=%d goal=%d nodes=%d", start, goal, n)
	}
	d := &DStarLite{
		graph: g,
		cfg:   cfg,
		start: start,
		goal:  goal,
		last:  start,
		dist:  make([]float64, n),
		rhs:   make([]float64, n),
		open:  newIndexedHeap(n),
	}
	for i := range d.dist {
		d.dist[i] = math.Inf(1)
		d.rhs[i] = math.Inf(1)
	}
	d.rhs[goal] = 0
	d.open.push(goal, d.key(goal))
	return d, nil
}

func (d *DStarLite) key(s int) key {
	m := math.Min(d.dist[s], d.rhs[s])
	return key{m + d.graph.Heuristic(d.start, s) + d.km, m}
}

func (d *DStarLite) updateVertex(s int) {
	if s != d.goal {
		best := math.Inf(1)
		d.nbuf = d.graph.Neighbors(s, d.nbuf[:0])
		for _, nb := range d.nbuf {
			if c := d.graph.Cost(s, nb) + d.dist[nb]; c < best {
				best = c
			}
		}
		d.rhs[s] = best
	}
	d.open.remove(s)
	if d.dist[s] != d.rhs[s] {
		d.open.push(s, d.key(s))
	}
}

func (d *DStarLite) computeShortestPath(ctx context.Context) error {
	budget := d.cfg.maxExpansions(d.graph)
	var nbuf []int
	for d.open.len() > 0 {
		if !d.open.peek().less(d.key(d.start)) && d.rhs[d.start] == d.dist[d.start] {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		d.expanded++
		if d.expanded > budget {
			return fmt.Errorf("%w after %d expansions", ErrExpansionsBudget, d.expanded)
		}

		u, kOld := d.open.pop()
		if kNew := d.key(u); kOld.less(kNew) {
			// Stale entry, reinsert with the current key.
			d.open.push(u, kNew)
			continue
		}
		if d.dist[u] > d.rhs[u] {
			d.dist[u] = d.rhs[u]
			nbuf = d.graph.Neighbors(u, nbuf[:0])
			for _, nb := range nbuf {
				d.updateVertex(nb)
			}
		} else {
			d.dist[u] = math.Inf(1)
			d.updateVertex(u)
			nbuf = d.graph.Neighbors(u, nbuf[:0])
			for _, nb := range nbuf {
				d.updateVertex(nb)
			}
		}
	}
	if math.IsInf(d.rhs[d.start], 1) {
		return fmt.Errorf("%w: expanded %d nodes", ErrNoPath, d.expanded)
	}
	return nil
}

// Plan computes (or recomputes, after updates) the path from the current
// start to the goal. The first call is a full search; later calls reuse the
// surviving search tree.
func (d *DStarLite) Plan(ctx context.Context) (Path, error) {
	if err := d.computeShortestPath(ctx); err != nil {
		return Path{}, err
	}

	nodes := []int{d.start}
	cost := 0.0
	cur := d.start
	for cur != d.goal {
		if len(nodes) > d.graph.Nodes() {
			return Path{}, fmt.Errorf("%w: path extraction cycled", ErrNoPath)
		}
		next := -1
		best := math.Inf(1)
		d.nbuf = d.graph.Neighbors(cur, d.nbuf[:0])
		for _, nb := range d.nbuf {
			if c := d.graph.Cost(cur, nb) + d.dist[nb]; c < best {
				best = c
				next = nb
			}
		}
		if next < 0 || math.IsInf(best, 1) {
			return Path{}, fmt.Errorf("%w: dead end during extraction", ErrNoPath)
		}
		cost += d.graph.Cost(cur, next)
		nodes = append(nodes, next)
		cur = next
	}

	wps := make([]mission.Waypoint, len(nodes))
	for i, n := range nodes {
		wps[i] = d.graph.Waypoint(n)
	}
	return Path{Nodes: nodes, Waypoints: wps, Cost: cost, Expanded: d.expanded}, nil
}

// MoveStart advances the search root to the drone's current node, typically
// after partial execution of the previous path.
func (d *DStarLite) MoveStart(start int) {
	if start == d.start {
		return
	}
	d.km += d.graph.Heuristic(d.last, start)
	d.last = start
	d.start = start
}

// NotifyChanged re-evaluates the search tree around nodes whose
// traversability changed, in either direction. Callers mutate the
// underlying graph first (for a grid, Block), then pass the affected ids
// here, then call Plan. Values held for nodes that became blocked are
// harmless: adjacency excludes them, so no other node consults them.
func (d *DStarLite) NotifyChanged(ids ...int) {
	for _, id := range ids {
		d.updateVertex(id)
		// Neighbors gained or lost a successor. Copy before updateVertex,
		// which reuses the shared buffer.
		affected := append([]int(nil), d.graph.Neighbors(id, nil)...)
		for _, nb := range affected {
			d.updateVertex(nb)
		}
	}
}
