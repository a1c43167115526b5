// Package vrp assigns mission targets to drones and orders each drone's
// visits, respecting per-drone energy budgets. The solver builds a greedy
// seed by regret insertion and improves it with 2-opt, relocate and
// cross-exchange local search. Every target ends up on exactly one drone or
// the solve fails; partial assignments are never returned.
package vrp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/skyroute/skyroute/internal/geo"
	"github.com/skyroute/skyroute/internal/mission"
)

// Solver errors.
var (
	ErrAssignmentFailure = errors.New("targets cannot be assigned within drone capacities")
	ErrNoModel           = errors.New("cost model is required for every drone")
)

// Objective selects what the solver minimizes.
type Objective string

const (
	// ObjectiveDistance minimizes total route length.
	ObjectiveDistance Objective = "distance"
	// ObjectiveEnergy minimizes total energy draw. Default.
	ObjectiveEnergy Objective = "energy"
	// ObjectiveBalanced minimizes the longest single route.
	ObjectiveBalanced Objective = "balanced"
)

// Assignment is one drone's ordered target list. The depot is implicit at
// both ends.
type Assignment struct {
	Drone   mission.Drone
	Targets []mission.Waypoint
	Cost    float64
}

// Solution is a complete partition of the mission targets.
type Solution struct {
	Assignments []Assignment
	TotalCost   float64
}

// Config configures a solve.
type Config struct {
	Objective Objective
	// Models maps drone name to its cost model. One per drone, required.
	Models map[string]*geo.CostModel
	// ImprovementRounds bounds local search (default 40).
	ImprovementRounds int
	Logger            zerolog.Logger
}

type solver struct {
	depot   mission.Waypoint
	drones  []mission.Drone
	targets []mission.Waypoint
	cfg     Config

	// routes[i] holds target indexes assigned to drones[i], in visit order.
	routes [][]int
}

// Solve partitions targets across drones. Drones with nothing feasible to
// carry end up with empty assignments, which is valid; a target no drone
// can reach fails the whole solve.
func Solve(ctx context.Context, depot mission.Waypoint, drones []mission.Drone, targets []mission.Waypoint, cfg Config) (Solution, error) {
	if len(drones) == 0 {
		return Solution{}, mission.ErrNoDrones
	}
	if len(targets) == 0 {
		return Solution{}, mission.ErrNoTargets
	}
	for _, d := range drones {
		if cfg.Models[d.Name] == nil {
			return Solution{}, fmt.Errorf("%w: drone %q", ErrNoModel, d.Name)
		}
	}
	if cfg.Objective == "" {
		cfg.Objective = ObjectiveEnergy
	}
	if cfg.ImprovementRounds <= 0 {
		cfg.ImprovementRounds = 40
	}

	s := &solver{
		depot:   depot,
		drones:  drones,
		targets: targets,
		cfg:     cfg,
		routes:  make([][]int, len(drones)),
	}

	if err := s.seed(ctx); err != nil {
		return Solution{}, err
	}
	s.improve(ctx)

	return s.solution(), nil
}

// legCost is the objective contribution of flying a->b with a drone.
func (s *solver) legCost(drone int, a, b mission.Waypoint) float64 {
	m := s.cfg.Models[s.drones[drone].Name]
	if s.cfg.Objective == ObjectiveDistance {
		return m.Distance(a, b)
	}
	return m.Energy(a, b)
}

func (s *solver) wp(target int) mission.Waypoint { return s.targets[target] }

// routeCost sums the depot-to-depot objective of one route.
func (s *solver) routeCost(drone int, route []int) float64 {
	if len(route) == 0 {
		return 0
	}
	cost := s.legCost(drone, s.depot, s.wp(route[0]))
	for i := 0; i+1 < len(route); i++ {
		cost += s.legCost(drone, s.wp(route[i]), s.wp(route[i+1]))
	}
	cost += s.legCost(drone, s.wp(route[len(route)-1]), s.depot)
	return cost
}

// routeEnergy is the battery draw of one route regardless of objective.
func (s *solver) routeEnergy(drone int, route []int) float64 {
	if len(route) == 0 {
		return 0
	}
	m := s.cfg.Models[s.drones[drone].Name]
	e := m.Energy(s.depot, s.wp(route[0]))
	for i := 0; i+1 < len(route); i++ {
		e += m.Energy(s.wp(route[i]), s.wp(route[i+1]))
	}
	e += m.Energy(s.wp(route[len(route)-1]), s.depot)
	return e
}

func (s *solver) feasible(drone int, route []int) bool {
	budget := s.drones[drone].BatteryCapacity
	if budget <= 0 {
		return true
	}
	return s.routeEnergy(drone, route) <= budget
}

// insertionDelta is the cost increase of placing target at position pos in
// route, or +Inf when the insertion breaks the energy budget.
func (s *solver) insertionDelta(drone int, route []int, target, pos int) float64 {
	candidate := make([]int, 0, len(route)+1)
	candidate = append(candidate, route[:pos]...)
	candidate = append(candidate, target)
	candidate = append(candidate, route[pos:]...)
	if !s.feasible(drone, candidate) {
		return math.Inf(1)
	}

	prev, next := s.depot, s.depot
	if pos > 0 {
		prev = s.wp(route[pos-1])
	}
	if pos < len(route) {
		next = s.wp(route[pos])
	}
	return s.legCost(drone, prev, s.wp(target)) +
		s.legCost(drone, s.wp(target), next) -
		s.legCost(drone, prev, next)
}

type insertion struct {
	drone, pos int
	delta      float64
}

// bestInsertions returns the two cheapest feasible insertions of a target
// across all drones and positions.
func (s *solver) bestInsertions(target int) (best, second insertion) {
	best = insertion{delta: math.Inf(1)}
	second = insertion{delta: math.Inf(1)}
	for d := range s.drones {
		for pos := 0; pos <= len(s.routes[d]); pos++ {
			delta := s.insertionDelta(d, s.routes[d], target, pos)
			if delta < best.delta {
				second = best
				best = insertion{drone: d, pos: pos, delta: delta}
			} else if delta < second.delta {
				second = insertion{drone: d, pos: pos, delta: delta}
			}
		}
	}
	return best, second
}

// seed builds the initial partition by regret insertion: at every step the
// unassigned target whose best and second-best placements differ the most
// is placed first, so contested targets claim their slot early.
func (s *solver) seed(ctx context.Context) error {
	unassigned := make(map[int]struct{}, len(s.targets))
	for i := range s.targets {
		unassigned[i] = struct{}{}
	}

	for len(unassigned) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		pick := -1
		var pickIns insertion
		bestRegret := -1.0
		for t := range unassigned {
			best, second := s.bestInsertions(t)
			if math.IsInf(best.delta, 1) {
				return fmt.Errorf("%w: target %q unreachable by any drone", ErrAssignmentFailure, s.wp(t).Label)
			}
			regret := second.delta - best.delta
			if math.IsInf(second.delta, 1) {
				// Only one feasible slot left anywhere: place it now.
				regret = math.Inf(1)
			}
			if regret > bestRegret || (regret == bestRegret && best.delta < pickIns.delta) {
				bestRegret = regret
				pick = t
				pickIns = best
			}
		}

		r := s.routes[pickIns.drone]
		r = append(r[:pickIns.pos:pickIns.pos], append([]int{pick}, r[pickIns.pos:]...)...)
		s.routes[pickIns.drone] = r
		delete(unassigned, pick)
	}
	return nil
}

// improve runs intra-route 2-opt and inter-route cross-exchange until no
// move helps or the round budget runs out.
func (s *solver) improve(ctx context.Context) {
	for round := 0; round < s.cfg.ImprovementRounds; round++ {
		if ctx.Err() != nil {
			return
		}
		changed := false
		for d := range s.routes {
			if s.twoOpt(d) {
				changed = true
			}
		}
		if s.relocate() {
			changed = true
		}
		if s.crossExchange() {
			changed = true
		}
		if !changed {
			break
		}
	}

	s.cfg.Logger.Debug().
		Int("drones", len(s.drones)).
		Int("targets", len(s.targets)).
		Msg("assignment improvement finished")
}

// twoOpt reverses route segments while the reversal shortens the route.
func (s *solver) twoOpt(drone int) bool {
	route := s.routes[drone]
	if len(route) < 3 {
		return false
	}
	improved := false
	base := s.routeCost(drone, route)
	for i := 0; i < len(route)-1; i++ {
		for j := i + 1; j < len(route); j++ {
			cand := append([]int(nil), route...)
			for l, r := i, j; l < r; l, r = l+1, r-1 {
				cand[l], cand[r] = cand[r], cand[l]
			}
			if c := s.routeCost(drone, cand); c < base-1e-9 && s.feasible(drone, cand) {
				route = cand
				base = c
				improved = true
			}
		}
	}
	s.routes[drone] = route
	return improved
}

// relocate moves single targets between routes when that lowers the
// objective. This is the move that spreads load off an overloaded route,
// which swap moves alone cannot do.
func (s *solver) relocate() bool {
	improved := false
	for a := range s.routes {
		for b := range s.routes {
			if a == b {
				continue
			}
			if s.relocatePair(a, b) {
				improved = true
			}
		}
	}
	return improved
}

func (s *solver) relocatePair(a, b int) bool {
	improved := false
	for i := 0; i < len(s.routes[a]); i++ {
		ra, rb := s.routes[a], s.routes[b]
		target := ra[i]
		base := s.pairObjective(a, ra, b, rb)

		ca := append([]int(nil), ra[:i]...)
		ca = append(ca, ra[i+1:]...)

		bestPos, bestObj := -1, base
		for pos := 0; pos <= len(rb); pos++ {
			cb := make([]int, 0, len(rb)+1)
			cb = append(cb, rb[:pos]...)
			cb = append(cb, target)
			cb = append(cb, rb[pos:]...)
			if !s.feasible(b, cb) {
				continue
			}
			if obj := s.pairObjective(a, ca, b, cb); obj < bestObj-1e-9 {
				bestPos, bestObj = pos, obj
			}
		}
		if bestPos < 0 {
			continue
		}

		cb := make([]int, 0, len(rb)+1)
		cb = append(cb, rb[:bestPos]...)
		cb = append(cb, target)
		cb = append(cb, rb[bestPos:]...)
		s.routes[a], s.routes[b] = ca, cb
		improved = true
		i--
	}
	return improved
}

// crossExchange swaps single targets between route pairs when the swap
// lowers the objective and both routes stay within budget.
func (s *solver) crossExchange() bool {
	improved := false
	for a := range s.routes {
		for b := a + 1; b < len(s.routes); b++ {
			if s.crossExchangePair(a, b) {
				improved = true
			}
		}
	}
	return improved
}

func (s *solver) crossExchangePair(a, b int) bool {
	ra, rb := s.routes[a], s.routes[b]
	base := s.pairObjective(a, ra, b, rb)
	improved := false

	for i := 0; i < len(ra); i++ {
		for j := 0; j < len(rb); j++ {
			ca := append([]int(nil), ra...)
			cb := append([]int(nil), rb...)
			ca[i], cb[j] = cb[j], ca[i]
			if !s.feasible(a, ca) || !s.feasible(b, cb) {
				continue
			}
			if c := s.pairObjective(a, ca, b, cb); c < base-1e-9 {
				ra, rb = ca, cb
				base = c
				improved = true
			}
		}
	}

	s.routes[a], s.routes[b] = ra, rb
	return improved
}

func (s *solver) pairObjective(a int, ra []int, b int, rb []int) float64 {
	ca, cb := s.routeCost(a, ra), s.routeCost(b, rb)
	if s.cfg.Objective == ObjectiveBalanced {
		return math.Max(ca, cb)
	}
	return ca + cb
}

func (s *solver) solution() Solution {
	sol := Solution{Assignments: make([]Assignment, len(s.drones))}
	for d := range s.drones {
		wps := make([]mission.Waypoint, len(s.routes[d]))
		for i, t := range s.routes[d] {
			wps[i] = s.wp(t)
		}
		cost := s.routeCost(d, s.routes[d])
		sol.Assignments[d] = Assignment{Drone: s.drones[d], Targets: wps, Cost: cost}
		sol.TotalCost += cost
	}
	return sol
}
