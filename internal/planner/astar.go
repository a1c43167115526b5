package planner

import (
	"context"
	"fmt"
	"math"
)

// planAStar runs A*, or Theta* when anyAngle is set. Theta* differs only in
// relaxation: when the current node's parent has line of sight to a
// neighbor, the neighbor is parented directly to it, cutting the lattice
// corner. With an admissible heuristic plain A* returns minimum-cost paths.
func planAStar(ctx context.Context, g Graph, start, goal int, cfg Config, anyAngle bool) (Path, error) {
	n := g.Nodes()
	if start < 0 || start >= n || goal < 0 || goal >= n {
		return Path{}, fmt.Errorf("node out of range: start=%d goal=%d nodes=%d", start, goal, n)
	}

	gScore := make([]float64, n)
	parent := make([]int, n)
	closed := make([]bool, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
		parent[i] = -1
	}
	gScore[start] = 0

	open := newIndexedHeap(n)
	open.push(start, key{g.Heuristic(start, goal), 0})

	budget := cfg.maxExpansions(g)
	expanded := 0
	var nbuf []int

	for open.len() > 0 {
		if err := ctx.Err(); err != nil {
			return Path{}, err
		}
		cur, _ := open.pop()
		if cur == goal {
			return pathFrom(g, parent, goal, gScore[goal], expanded), nil
		}
		closed[cur] = true
		expanded++
		if expanded > budget {
			return Path{}, fmt.Errorf("%w after %d expansions", ErrExpansionsBudget, expanded)
		}

		nbuf = g.Neighbors(cur, nbuf[:0])
		for _, nb := range nbuf {
			if closed[nb] {
				continue
			}

			from := cur
			if anyAngle && parent[cur] >= 0 && g.LineOfSight(parent[cur], nb) {
				from = parent[cur]
			}
			tentative := gScore[from] + g.Cost(from, nb)
			if tentative >= gScore[nb] {
				continue
			}
			gScore[nb] = tentative
			parent[nb] = from
			// Tie-break toward larger g so equal-f nodes closer to the
			// goal are expanded first.
			open.push(nb, key{tentative + g.Heuristic(nb, goal), -tentative})
		}
	}

	return Path{}, fmt.Errorf("%w: expanded %d nodes", ErrNoPath, expanded)
}
