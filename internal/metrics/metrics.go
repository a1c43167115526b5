package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the planner
	Registry = prometheus.NewRegistry()

	// PlanRuns counts mission planning runs by outcome
	PlanRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "plan_runs_total", Help: "Mission planning runs by outcome."},
		[]string{"status"},
	)
	// PlanDuration records end-to-end planning durations in seconds
	PlanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "plan_duration_seconds", Help: "End-to-end mission planning duration in seconds.", Buckets: prometheus.DefBuckets},
	)

	// LegSearches counts single-leg path searches by algorithm and outcome
	LegSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "leg_searches_total", Help: "Path searches by algorithm and outcome."},
		[]string{"algorithm", "status"},
	)
	// NodeExpansions tracks nodes expanded per search by algorithm
	NodeExpansions = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "leg_node_expansions", Help: "Nodes expanded per path search.", Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000}},
		[]string{"algorithm"},
	)

	// RouteViolations counts validator rejections by violation type
	RouteViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_violations_total", Help: "Route validation violations by type."},
		[]string{"type"},
	)
)

// RegisterDefault registers collectors to the planner registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(PlanRuns)
		Registry.MustRegister(PlanDuration)
		Registry.MustRegister(LegSearches)
		Registry.MustRegister(NodeExpansions)
		Registry.MustRegister(RouteViolations)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
