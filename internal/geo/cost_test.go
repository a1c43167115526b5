package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyroute/skyroute/internal/mission"
	"github.com/skyroute/skyroute/internal/weather"
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

func TestCostModel_WeatherFactor_Clamped(t *testing.T) {
	// A hurricane-grade headwind from the east while flying east.
	set := weather.NewSet(weather.SetConfig{})
	set.Add(weather.Sample{Lat: 52, Lon: 4, WindSpeed: 80, WindDirection: 90})

	model := NewCostModel(CostModelConfig{Drone: testDrone(), Samples: set})

	a := mission.Waypoint{Lat: 52, Lon: 3.999, Alt: 50}
	b := mission.Waypoint{Lat: 52, Lon: 4.001, Alt: 50}

	f := model.WeatherFactor(a, b)
	assert.Equal(t, MaxWeatherFactor, f)

	// Same wind as a tailwind hits the lower clamp.
	f = model.WeatherFactor(b, a)
	assert.Equal(t, MinWeatherFactor, f)
}

func TestCostModel_WeatherFactor_NoSamples(t *testing.T) {
	model := NewCostModel(CostModelConfig{Drone: testDrone()})
	a := mission.Waypoint{Lat: 52, Lon: 4, Alt: 50}
	b := mission.Waypoint{Lat: 52.01, Lon: 4, Alt: 50}
	assert.Equal(t, 1.0, model.WeatherFactor(a, b))
}

func TestCostModel_EdgeCost_ClimbCostsMoreThanDescent(t *testing.T) {
	model := NewCostModel(CostModelConfig{Drone: testDrone()})

	low := mission.Waypoint{Lat: 52, Lon: 4, Alt: 30}
	high := mission.Waypoint{Lat: 52.001, Lon: 4, Alt: 100}

	climb := model.EdgeCost(low, high)
	descent := model.EdgeCost(high, low)

	assert.Greater(t, climb, descent)
	assert.Greater(t, descent, model.Distance(low, high))
}

func TestCostModel_EdgeCost_InfeasibleClimbSurcharge(t *testing.T) {
	model := NewCostModel(CostModelConfig{Drone: testDrone()})

	// 100m climb over about 11m of ground track needs a climb rate far
	// beyond 5 m/s at cruise speed.
	a := mission.Waypoint{Lat: 52, Lon: 4, Alt: 0}
	b := mission.Waypoint{Lat: 52.0001, Lon: 4, Alt: 100}

	steep := model.EdgeCost(a, b)

	// The same climb spread over 2km is well within limits.
	c := mission.Waypoint{Lat: 52.02, Lon: 4, Alt: 100}
	gentle := model.EdgeCost(a, c)

	assert.Greater(t, steep, 10*gentle, "infeasible climb should carry a large surcharge")
}

func TestCostModel_Heuristic_NeverOverestimates(t *testing.T) {
	set := weather.NewSet(weather.SetConfig{})
	set.Add(weather.Sample{Lat: 52, Lon: 4, WindSpeed: 12, WindDirection: 45})

	model := NewCostModel(CostModelConfig{Drone: testDrone(), Samples: set})

	points := []mission.Waypoint{
		{Lat: 52, Lon: 4, Alt: 30},
		{Lat: 52.005, Lon: 4.005, Alt: 60},
		{Lat: 52.01, Lon: 3.995, Alt: 100},
		{Lat: 51.995, Lon: 4.01, Alt: 45},
	}
	for _, a := range points {
		for _, b := range points {
			h := model.HeuristicCost(a, b)
			cost := model.EdgeCost(a, b)
			assert.LessOrEqual(t, h, cost+1e-9,
				"heuristic must be admissible for %v -> %v", a, b)
		}
	}
}

func TestCostModel_SegmentValid(t *testing.T) {
	zone := mission.NoFlyZone{
		Name:    "airport",
		Center:  &mission.Vertex{Lat: 52.005, Lon: 4.0},
		RadiusM: 500,
	}
	model := NewCostModel(CostModelConfig{Drone: testDrone(), Zones: []mission.NoFlyZone{zone}})

	ok, reason := model.SegmentValid(
		mission.Waypoint{Lat: 52, Lon: 4, Alt: 50},
		mission.Waypoint{Lat: 52.01, Lon: 4, Alt: 50},
	)
	require.False(t, ok)
	assert.Contains(t, reason, "airport")

	ok, _ = model.SegmentValid(
		mission.Waypoint{Lat: 52, Lon: 4.02, Alt: 50},
		mission.Waypoint{Lat: 52.01, Lon: 4.02, Alt: 50},
	)
	assert.True(t, ok)
}

func TestCostModel_SegmentValid_UnsafeWeather(t *testing.T) {
	set := weather.NewSet(weather.SetConfig{})
	set.Add(weather.Sample{Lat: 52.005, Lon: 4, WindSpeed: 25})

	model := NewCostModel(CostModelConfig{Drone: testDrone(), Samples: set})

	ok, reason := model.SegmentValid(
		mission.Waypoint{Lat: 52, Lon: 4, Alt: 50},
		mission.Waypoint{Lat: 52.01, Lon: 4, Alt: 50},
	)
	assert.False(t, ok)
	assert.Contains(t, reason, "wind")
}
