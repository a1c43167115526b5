// Package orchestrator runs the full planning pipeline: validate the
// mission, assign targets to drones, optionally refine visit orders, then
// plan each drone's route concurrently and validate the results.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/skyroute/skyroute/internal/genetic"
	"github.com/skyroute/skyroute/internal/geo"
	"github.com/skyroute/skyroute/internal/metrics"
	"github.com/skyroute/skyroute/internal/mission"
	"github.com/skyroute/skyroute/internal/planner"
	"github.com/skyroute/skyroute/internal/telemetry"
	"github.com/skyroute/skyroute/internal/validate"
	"github.com/skyroute/skyroute/internal/vrp"
	"github.com/skyroute/skyroute/internal/weather"
)

// Options selects pipeline stages and their parameters.
type Options struct {
	Algorithm  planner.Algorithm
	UseGrid    bool
	UseVRP     bool
	UseGenetic bool
	UseWeather bool

	GridResolution float64
	VRPObjective   vrp.Objective
	Genetic        genetic.Config

	// Timeout bounds the whole run (default 2 minutes).
	Timeout time.Duration
	// Workers caps concurrent per-drone planning (default: one per drone).
	Workers int
}

// Orchestrator plans missions. Safe for concurrent use; each Plan call is
// independent.
type Orchestrator struct {
	opts    Options
	samples *weather.Set
	now     time.Time
	log     zerolog.Logger
	tracer  trace.Tracer
}

// Config configures an Orchestrator.
type Config struct {
	Options Options
	// Samples is the weather snapshot used when Options.UseWeather is set.
	Samples *weather.Set
	// Now anchors zone activation (default time.Now at Plan time).
	Now    time.Time
	Logger zerolog.Logger
}

// New builds an Orchestrator.
func New(cfg Config) *Orchestrator {
	opts := cfg.Options
	if opts.Algorithm == "" {
		opts.Algorithm = planner.AStar
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.VRPObjective == "" {
		opts.VRPObjective = vrp.ObjectiveEnergy
	}
	metrics.RegisterDefault()
	return &Orchestrator{
		opts:    opts,
		samples: cfg.Samples,
		now:     cfg.Now,
		log:     cfg.Logger,
		tracer:  telemetry.Tracer("orchestrator"),
	}
}

// Failure explains why one drone's route could not be planned.
type Failure struct {
	Drone string `json:"drone"`
	Stage string `json:"stage"`
	Err   string `json:"error"`
}

// Result is the outcome of one planning run. Routes holds every planned
// route, including infeasible ones, which carry their violations in
// Metrics.Verdict so callers can inspect the path that failed. Failures
// holds drones for which no path could be produced at all. Drones with
// nothing to visit appear in neither.
type Result struct {
	RunID    string                    `json:"runId"`
	Routes   map[string]*mission.Route `json:"routes"`
	Failures map[string]Failure        `json:"failures,omitempty"`
	Duration time.Duration             `json:"duration"`
}

// Plan runs the pipeline for a mission.
func (o *Orchestrator) Plan(ctx context.Context, m *mission.Mission) (*Result, error) {
	runID := "run_" + uuid.NewString()
	start := time.Now()
	log := o.log.With().Str("run_id", runID).Str("mission", m.Name).Logger()

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	ctx, span := o.tracer.Start(ctx, "orchestrator.Plan",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("mission.name", m.Name),
			attribute.Int("mission.drones", len(m.Drones)),
			attribute.Int("mission.targets", len(m.Targets)),
		))
	defer span.End()

	if err := m.Validate(); err != nil {
		metrics.PlanRuns.WithLabelValues("invalid_mission").Inc()
		return nil, fmt.Errorf("invalid mission: %w", err)
	}

	now := o.now
	if now.IsZero() {
		now = time.Now()
	}

	models := make(map[string]*geo.CostModel, len(m.Drones))
	for _, d := range m.Drones {
		cfg := geo.CostModelConfig{
			Drone:       d,
			Constraints: m.Constraints,
			Zones:       m.Zones,
			Now:         now,
		}
		if o.opts.UseWeather {
			cfg.Samples = o.samples
		}
		models[d.Name] = geo.NewCostModel(cfg)
	}

	assignments, err := o.assign(ctx, m, models)
	if err != nil {
		metrics.PlanRuns.WithLabelValues("assignment_failed").Inc()
		return nil, err
	}

	if o.opts.UseGenetic {
		o.refineOrders(ctx, m, models, assignments, log)
	}

	result := &Result{
		RunID:    runID,
		Routes:   make(map[string]*mission.Route),
		Failures: make(map[string]Failure),
	}
	o.planRoutes(ctx, m, models, assignments, now, result, log)

	result.Duration = time.Since(start)
	metrics.PlanDuration.Observe(result.Duration.Seconds())
	status := "ok"
	if len(result.Failures) > 0 {
		status = "partial"
		if len(result.Routes) == 0 {
			status = "failed"
		}
	}
	metrics.PlanRuns.WithLabelValues(status).Inc()

	log.Info().
		Dur("duration", result.Duration).
		Int("routes", len(result.Routes)).
		Int("failures", len(result.Failures)).
		Msg("planning run completed")
	return result, nil
}

// assign partitions targets across drones. The VRP solver also orders the
// visits within each route, so it runs even for a single drone. Without the
// VRP stage targets are dealt round-robin in input order, which preserves
// the exact-partition guarantee but ignores energy budgets until validation.
func (o *Orchestrator) assign(ctx context.Context, m *mission.Mission, models map[string]*geo.CostModel) ([]vrp.Assignment, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.assign")
	defer span.End()

	if o.opts.UseVRP {
		sol, err := vrp.Solve(ctx, m.Depot, m.Drones, m.Targets, vrp.Config{
			Objective: o.opts.VRPObjective,
			Models:    models,
			Logger:    o.log,
		})
		if err != nil {
			return nil, fmt.Errorf("target assignment: %w", err)
		}
		return sol.Assignments, nil
	}

	assignments := make([]vrp.Assignment, len(m.Drones))
	for i, d := range m.Drones {
		assignments[i] = vrp.Assignment{Drone: d}
	}
	for i, t := range m.Targets {
		a := &assignments[i%len(assignments)]
		a.Targets = append(a.Targets, t)
	}
	return assignments, nil
}

func (o *Orchestrator) refineOrders(ctx context.Context, m *mission.Mission, models map[string]*geo.CostModel, assignments []vrp.Assignment, log zerolog.Logger) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.refineOrders")
	defer span.End()

	for i := range assignments {
		a := &assignments[i]
		if len(a.Targets) < 3 {
			continue
		}
		res, err := genetic.Optimize(ctx, models[a.Drone.Name], m.Depot, a.Targets, genetic.Config{
			PopulationSize: o.opts.Genetic.PopulationSize,
			Generations:    o.opts.Genetic.Generations,
			MutationRate:   o.opts.Genetic.MutationRate,
			CrossoverRate:  o.opts.Genetic.CrossoverRate,
			Seed:           o.opts.Genetic.Seed,
			Logger:         log,
		})
		if err != nil {
			log.Warn().Err(err).Str("drone", a.Drone.Name).Msg("order refinement aborted, keeping assignment order")
			continue
		}
		a.Targets = res.Targets
	}
}

// planRoutes plans each drone's route on its own worker.
func (o *Orchestrator) planRoutes(ctx context.Context, m *mission.Mission, models map[string]*geo.CostModel, assignments []vrp.Assignment, now time.Time, result *Result, log zerolog.Logger) {
	type droneResult struct {
		drone   string
		route   *mission.Route
		failure *Failure
	}

	workers := o.opts.Workers
	if workers <= 0 || workers > len(assignments) {
		workers = len(assignments)
	}

	work := make(chan vrp.Assignment, len(assignments))
	results := make(chan droneResult, len(assignments))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range work {
				select {
				case <-ctx.Done():
					results <- droneResult{drone: a.Drone.Name, failure: &Failure{
						Drone: a.Drone.Name, Stage: "planning", Err: ctx.Err().Error(),
					}}
				default:
					route, err := o.planDrone(ctx, m, models[a.Drone.Name], a, now, log)
					if err != nil {
						results <- droneResult{drone: a.Drone.Name, failure: &Failure{
							Drone: a.Drone.Name, Stage: "planning", Err: err.Error(),
						}}
						continue
					}
					results <- droneResult{drone: a.Drone.Name, route: route}
				}
			}
		}()
	}

	for _, a := range assignments {
		if len(a.Targets) == 0 {
			continue
		}
		work <- a
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.failure != nil {
			result.Failures[r.drone] = *r.failure
			continue
		}
		result.Routes[r.drone] = r.route
	}
}

// planDrone plans one drone's depot-to-depot route through its assigned
// targets, leg by leg, then validates the stitched route.
func (o *Orchestrator) planDrone(ctx context.Context, m *mission.Mission, model *geo.CostModel, a vrp.Assignment, now time.Time, log zerolog.Logger) (*mission.Route, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.planDrone",
		trace.WithAttributes(
			attribute.String("drone.name", a.Drone.Name),
			attribute.Int("drone.targets", len(a.Targets)),
		))
	defer span.End()

	stops := make([]mission.Waypoint, 0, len(a.Targets)+2)
	depot := m.Depot
	depot.Type = mission.WaypointDepot
	stops = append(stops, depot)
	stops = append(stops, a.Targets...)
	stops = append(stops, depot)

	leg, err := o.newLegPlanner(depot, a.Targets, model)
	if err != nil {
		return nil, err
	}

	var route []mission.Waypoint
	for i := 0; i+1 < len(stops); i++ {
		wps, expanded, err := leg.plan(ctx, stops[i], stops[i+1])
		alg := string(o.opts.Algorithm)
		if err != nil {
			metrics.LegSearches.WithLabelValues(alg, "failed").Inc()
			return nil, fmt.Errorf("leg %q to %q: %w", stops[i].Label, stops[i+1].Label, err)
		}
		metrics.LegSearches.WithLabelValues(alg, "ok").Inc()
		metrics.NodeExpansions.WithLabelValues(alg).Observe(float64(expanded))

		if len(route) > 0 {
			wps = wps[1:]
		}
		route = append(route, wps...)
	}

	v := validate.New(validate.Config{
		Constraints: m.Constraints,
		Zones:       m.Zones,
		Model:       model,
		Now:         now,
		Logger:      log,
	})
	metricsOut := v.Metrics(a.Drone, route)
	for _, viol := range metricsOut.Verdict.Violations {
		metrics.RouteViolations.WithLabelValues(string(viol.Type)).Inc()
	}
	// An infeasible route is still a result: it goes back with its verdict
	// attached so the caller can inspect the path and the violations.
	if !metricsOut.Verdict.Feasible {
		log.Warn().
			Str("drone", a.Drone.Name).
			Int("violations", len(metricsOut.Verdict.Violations)).
			Str("first", metricsOut.Verdict.Violations[0].Message).
			Msg("planned route violates constraints")
	}

	return &mission.Route{
		DroneName: a.Drone.Name,
		Waypoints: route,
		Metrics:   metricsOut,
	}, nil
}
