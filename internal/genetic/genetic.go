// Package genetic refines the visit order of a single drone's targets with
// a permutation genetic algorithm: order crossover, swap and reversal
// mutation, tournament selection with elitism. The incoming order is seeded
// into the initial population, so the result is never worse than the input.
package genetic

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"github.com/skyroute/skyroute/internal/geo"
	"github.com/skyroute/skyroute/internal/mission"
)

// Config tunes the optimizer. Zero values take the defaults shown.
type Config struct {
	PopulationSize int     // 50
	Generations    int     // 100
	MutationRate   float64 // 0.1
	CrossoverRate  float64 // 0.8
	// StallWindow stops early after this many generations without
	// improvement (default 25).
	StallWindow int
	// TournamentSize is the selection pool (default 3).
	TournamentSize int
	// Elitism is how many best individuals survive unchanged (default 2).
	Elitism int
	// Seed fixes the random source for reproducible runs. Zero means a
	// run-unique seed.
	Seed   int64
	Logger zerolog.Logger
}

func (c *Config) applyDefaults() {
	if c.PopulationSize <= 0 {
		c.PopulationSize = 50
	}
	if c.Generations <= 0 {
		c.Generations = 100
	}
	if c.MutationRate <= 0 {
		c.MutationRate = 0.1
	}
	if c.CrossoverRate <= 0 {
		c.CrossoverRate = 0.8
	}
	if c.StallWindow <= 0 {
		c.StallWindow = 25
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = 3
	}
	if c.Elitism <= 0 {
		c.Elitism = 2
	}
	if c.Elitism > c.PopulationSize/2 {
		c.Elitism = c.PopulationSize / 2
	}
}

// Result reports the optimized order and how it was reached.
type Result struct {
	Targets     []mission.Waypoint
	Cost        float64
	SeedCost    float64
	Generations int
}

type individual struct {
	perm []int
	cost float64
}

// Optimize reorders targets to minimize the depot-to-depot edge cost of the
// corresponding route. Fewer than three targets have at most one
// distinguishable order and are returned as-is.
func Optimize(ctx context.Context, model *geo.CostModel, depot mission.Waypoint, targets []mission.Waypoint, cfg Config) (Result, error) {
	cfg.applyDefaults()

	evaluate := func(perm []int) float64 {
		cost := model.EdgeCost(depot, targets[perm[0]])
		for i := 0; i+1 < len(perm); i++ {
			cost += model.EdgeCost(targets[perm[i]], targets[perm[i+1]])
		}
		return cost + model.EdgeCost(targets[perm[len(perm)-1]], depot)
	}

	if len(targets) < 3 {
		r := Result{Targets: targets}
		if len(targets) > 0 {
			perm := make([]int, len(targets))
			for i := range perm {
				perm[i] = i
			}
			r.Cost = evaluate(perm)
			r.SeedCost = r.Cost
		}
		return r, nil
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	n := len(targets)
	pop := make([]individual, cfg.PopulationSize)
	// The incoming order is individual zero. Everything else is shuffled.
	identity := make([]int, n)
	for i := range identity {
		identity[i] = i
	}
	pop[0] = individual{perm: append([]int(nil), identity...)}
	for i := 1; i < len(pop); i++ {
		p := append([]int(nil), identity...)
		rng.Shuffle(n, func(a, b int) { p[a], p[b] = p[b], p[a] })
		pop[i] = individual{perm: p}
	}
	for i := range pop {
		pop[i].cost = evaluate(pop[i].perm)
	}
	sortPop(pop)

	seedCost := evaluate(identity)
	best := clone(pop[0])
	stall := 0
	gen := 0

	for ; gen < cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		next := make([]individual, 0, len(pop))
		for i := 0; i < cfg.Elitism; i++ {
			next = append(next, clone(pop[i]))
		}
		for len(next) < len(pop) {
			a := tournament(rng, pop, cfg.TournamentSize)
			b := tournament(rng, pop, cfg.TournamentSize)
			child := clone(a)
			if rng.Float64() < cfg.CrossoverRate {
				child.perm = orderCrossover(rng, a.perm, b.perm)
			}
			if rng.Float64() < cfg.MutationRate {
				mutate(rng, child.perm)
			}
			child.cost = evaluate(child.perm)
			next = append(next, child)
		}
		pop = next
		sortPop(pop)

		if pop[0].cost < best.cost-1e-9 {
			best = clone(pop[0])
			stall = 0
		} else {
			stall++
			if stall >= cfg.StallWindow {
				gen++
				break
			}
		}
	}

	// Elitism carries the seed individual forward, so best never regresses
	// past it. Guard anyway against float noise.
	if best.cost > seedCost {
		best = individual{perm: identity, cost: seedCost}
	}

	out := make([]mission.Waypoint, n)
	for i, t := range best.perm {
		out[i] = targets[t]
	}
	cfg.Logger.Debug().
		Int("generations", gen).
		Float64("seedCost", seedCost).
		Float64("bestCost", best.cost).
		Msg("order optimization finished")
	return Result{Targets: out, Cost: best.cost, SeedCost: seedCost, Generations: gen}, nil
}

func sortPop(pop []individual) {
	sort.Slice(pop, func(i, j int) bool { return pop[i].cost < pop[j].cost })
}

func clone(in individual) individual {
	return individual{perm: append([]int(nil), in.perm...), cost: in.cost}
}

func tournament(rng *rand.Rand, pop []individual, size int) individual {
	best := individual{cost: math.Inf(1)}
	for i := 0; i < size; i++ {
		c := pop[rng.Intn(len(pop))]
		if c.cost < best.cost {
			best = c
		}
	}
	return best
}

// orderCrossover copies a random slice of parent a and fills the remaining
// slots with b's targets in b's order.
func orderCrossover(rng *rand.Rand, a, b []int) []int {
	n := len(a)
	lo := rng.Intn(n)
	hi := lo + rng.Intn(n-lo)

	child := make([]int, n)
	used := make([]bool, n)
	for i := lo; i <= hi; i++ {
		child[i] = a[i]
		used[a[i]] = true
	}
	j := (hi + 1) % n
	for i := 0; i < n; i++ {
		v := b[(hi+1+i)%n]
		if used[v] {
			continue
		}
		child[j] = v
		j = (j + 1) % n
		for j >= lo && j <= hi {
			j = (j + 1) % n
		}
	}
	return child
}

// mutate applies either a swap or a segment reversal, evenly split.
func mutate(rng *rand.Rand, perm []int) {
	i, j := rng.Intn(len(perm)), rng.Intn(len(perm))
	if i > j {
		i, j = j, i
	}
	if rng.Intn(2) == 0 {
		perm[i], perm[j] = perm[j], perm[i]
		return
	}
	for i < j {
		perm[i], perm[j] = perm[j], perm[i]
		i++
		j--
	}
}
