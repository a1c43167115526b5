package validate

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyroute/skyroute/internal/geo"
	"github.com/skyroute/skyroute/internal/mission"
)

func testDrone() mission.Drone {
	d := mission.Drone{
		Name:             "scout-1",
		MaxSpeed:         15,
		MaxAltitude:      120,
		MinAltitude:      30,
		BatteryCapacity:  100,
		PowerConsumption: 150,
	}
	if err := d.Normalize(); err != nil {
		panic(err)
	}
	return d
}

func newValidator(t *testing.T, cfg Config) *Validator {
	t.Helper()
	if cfg.Model == nil {
		cfg.Model = geo.NewCostModel(geo.CostModelConfig{Drone: testDrone()})
	}
	cfg.Logger = zerolog.Nop()
	return New(cfg)
}

// groundRoute returns a depot-to-depot route at cruise altitude.
func groundRoute(alts ...float64) []mission.Waypoint {
	route := []mission.Waypoint{{Lat: 52, Lon: 4, Alt: 0, Label: "base", Type: mission.WaypointDepot}}
	for i, alt := range alts {
		route = append(route, mission.Waypoint{
			Lat: 52 + float64(i+1)*0.002, Lon: 4, Alt: alt,
			Label: "wp", Type: mission.WaypointTarget,
		})
	}
	route = append(route, mission.Waypoint{Lat: 52, Lon: 4, Alt: 0, Label: "base", Type: mission.WaypointDepot})
	return route
}

func violationTypes(v mission.Verdict) []mission.ViolationType {
	types := make([]mission.ViolationType, len(v.Violations))
	for i, viol := range v.Violations {
		types[i] = viol.Type
	}
	return types
}

func TestCheck_FeasibleRoute(t *testing.T) {
	v := newValidator(t, Config{})
	verdict := v.Check(testDrone(), groundRoute(60, 60))
	assert.True(t, verdict.Feasible)
	assert.Empty(t, verdict.Violations)
}

func TestCheck_EmptyRoute(t *testing.T) {
	v := newValidator(t, Config{})
	verdict := v.Check(testDrone(), nil)
	require.False(t, verdict.Feasible)
	assert.Contains(t, violationTypes(verdict), mission.ViolationEmptyRoute)
}

func TestCheck_AltitudeCeiling(t *testing.T) {
	v := newValidator(t, Config{})
	verdict := v.Check(testDrone(), groundRoute(60, 200))
	require.False(t, verdict.Feasible)
	assert.Contains(t, violationTypes(verdict), mission.ViolationAltitude)
}

func TestCheck_AltitudeFloor_GroundPointsExempt(t *testing.T) {
	v := newValidator(t, Config{})

	// The depot endpoints sit at 0m, below the 30m floor, yet the route
	// passes because takeoff and landing are ground operations.
	verdict := v.Check(testDrone(), groundRoute(60, 60))
	assert.True(t, verdict.Feasible)

	// An interior waypoint below the floor still fails.
	verdict = v.Check(testDrone(), groundRoute(60, 10, 60))
	require.False(t, verdict.Feasible)
	assert.Contains(t, violationTypes(verdict), mission.ViolationAltitude)
}

func TestCheck_MissionConstraintTightensCeiling(t *testing.T) {
	v := newValidator(t, Config{Constraints: mission.Constraints{MaxAltitude: 80}})
	verdict := v.Check(testDrone(), groundRoute(60, 100))
	require.False(t, verdict.Feasible)
	assert.Contains(t, violationTypes(verdict), mission.ViolationAltitude)
}

func TestCheck_ZoneViolations(t *testing.T) {
	zone := mission.NoFlyZone{
		Name:    "stadium",
		Center:  &mission.Vertex{Lat: 52.002, Lon: 4},
		RadiusM: 100,
	}
	v := newValidator(t, Config{Zones: []mission.NoFlyZone{zone}})

	verdict := v.Check(testDrone(), groundRoute(60, 60))
	require.False(t, verdict.Feasible)
	assert.Contains(t, violationTypes(verdict), mission.ViolationNoFlyZone)
}

func TestCheck_ZoneClearance(t *testing.T) {
	// Route passes about 240m west of the zone edge.
	zone := mission.NoFlyZone{
		Name:    "helipad",
		Center:  &mission.Vertex{Lat: 52.002, Lon: 4.005},
		RadiusM: 100,
	}

	v := newValidator(t, Config{Zones: []mission.NoFlyZone{zone}})
	assert.True(t, v.Check(testDrone(), groundRoute(60, 60)).Feasible)

	strict := newValidator(t, Config{
		Zones:       []mission.NoFlyZone{zone},
		Constraints: mission.Constraints{MinZoneClearance: 400},
	})
	verdict := strict.Check(testDrone(), groundRoute(60, 60))
	require.False(t, verdict.Feasible)
	assert.Contains(t, violationTypes(verdict), mission.ViolationNoFlyZone)
}

func TestCheck_EnergyBudget(t *testing.T) {
	drone := testDrone()
	drone.BatteryCapacity = 0.5 // Wh, nowhere near enough
	model := geo.NewCostModel(geo.CostModelConfig{Drone: drone})

	v := newValidator(t, Config{Model: model})
	verdict := v.Check(drone, groundRoute(60, 60, 60))
	require.False(t, verdict.Feasible)
	assert.Contains(t, violationTypes(verdict), mission.ViolationEnergy)
}

func TestCheck_EnergyWarningNearCapacity(t *testing.T) {
	drone := testDrone()
	model := geo.NewCostModel(geo.CostModelConfig{Drone: drone})
	v := newValidator(t, Config{Model: model})

	route := groundRoute(60, 60)
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		total += model.Energy(route[i], route[i+1])
	}

	// Size the battery so the route uses about 95% of it.
	drone.BatteryCapacity = total / 0.95
	verdict := v.Check(drone, route)
	assert.True(t, verdict.Feasible)
	assert.NotEmpty(t, verdict.Warnings)
}

func TestCheck_KinematicLimits(t *testing.T) {
	v := newValidator(t, Config{})

	// 100m climb over roughly 80m of ground track at 15 m/s needs about
	// 19 m/s of climb, far past the 5 m/s limit.
	route := []mission.Waypoint{
		{Lat: 52, Lon: 4, Alt: 0, Type: mission.WaypointDepot},
		{Lat: 52.0007, Lon: 4, Alt: 100},
		{Lat: 52, Lon: 4, Alt: 0, Type: mission.WaypointDepot},
	}
	verdict := v.Check(testDrone(), route)
	require.False(t, verdict.Feasible)
	assert.Contains(t, violationTypes(verdict), mission.ViolationKinematics)
}

func TestCheck_DistanceLimit(t *testing.T) {
	v := newValidator(t, Config{Constraints: mission.Constraints{MaxDistance: 100}})
	verdict := v.Check(testDrone(), groundRoute(60, 60))
	require.False(t, verdict.Feasible)
	assert.Contains(t, violationTypes(verdict), mission.ViolationDistance)
}

func TestCheck_FlightTimeLimit(t *testing.T) {
	v := newValidator(t, Config{Constraints: mission.Constraints{MaxFlightTime: 5}})
	verdict := v.Check(testDrone(), groundRoute(60, 60))
	require.False(t, verdict.Feasible)
	assert.Contains(t, violationTypes(verdict), mission.ViolationFlightTime)
}

func TestCheck_ReportsAllViolations(t *testing.T) {
	v := newValidator(t, Config{Constraints: mission.Constraints{
		MaxDistance:   100,
		MaxFlightTime: 5,
	}})
	verdict := v.Check(testDrone(), groundRoute(60, 200))

	require.False(t, verdict.Feasible)
	types := violationTypes(verdict)
	assert.Contains(t, types, mission.ViolationAltitude)
	assert.Contains(t, types, mission.ViolationDistance)
	assert.Contains(t, types, mission.ViolationFlightTime)
}

func TestMetrics_Aggregates(t *testing.T) {
	v := newValidator(t, Config{})
	route := groundRoute(60, 80)

	m := v.Metrics(testDrone(), route)
	assert.Equal(t, len(route), m.WaypointCount)
	assert.Greater(t, m.TotalDistance, 0.0)
	assert.Greater(t, m.TotalEnergy, 0.0)
	assert.Greater(t, m.FlightTime, 0.0)
	assert.Equal(t, 80.0, m.MaxAltitude)
	assert.Equal(t, 0.0, m.MinAltitude)
	assert.True(t, m.Verdict.Feasible)
}
