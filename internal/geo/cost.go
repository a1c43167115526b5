package geo

import (
	"fmt"
	"math"
	"time"

	"github.com/skyroute/skyroute/internal/mission"
	"github.com/skyroute/skyroute/internal/weather"
)

// Weather penalty bounds. The multiplicative factor applied to segment
// energy and cost stays within this range no matter how strong the wind is.
const (
	MinWeatherFactor = 0.5
	MaxWeatherFactor = 2.0
)

// Altitude-change cost weights. Climbing burns more than descending.
const (
	climbCostPerMeter   = 2.0
	descentCostPerMeter = 1.2
)

// CostModelConfig configures a cost model for one drone.
type CostModelConfig struct {
	Drone       mission.Drone
	Constraints mission.Constraints
	Zones       []mission.NoFlyZone

	// Samples supplies weather for segment penalties. Nil means every
	// segment is costed unweighted.
	Samples *weather.Set

	// Safety bounds the conditions an edge may pass through. Zero value
	// uses weather.DefaultSafetyLimits.
	Safety weather.SafetyLimits

	// Now anchors no-fly-zone validity windows. Zero treats every zone as
	// active.
	Now time.Time
}

// CostModel evaluates segment costs for a single drone. It is immutable and
// safe for concurrent use; one model is built per drone per planning run.
type CostModel struct {
	drone       mission.Drone
	constraints mission.Constraints
	zones       []mission.NoFlyZone
	samples     *weather.Set
	safety      weather.SafetyLimits
	now         time.Time
}

// NewCostModel creates a cost model.
func NewCostModel(cfg CostModelConfig) *CostModel {
	safety := cfg.Safety
	if safety == (weather.SafetyLimits{}) {
		safety = weather.DefaultSafetyLimits()
	}
	return &CostModel{
		drone:       cfg.Drone,
		constraints: cfg.Constraints,
		zones:       cfg.Zones,
		samples:     cfg.Samples,
		safety:      safety,
		now:         cfg.Now,
	}
}

// Drone returns the drone this model evaluates costs for.
func (c *CostModel) Drone() mission.Drone { return c.drone }

// Zones returns the no-fly zones active for this model's time anchor.
func (c *CostModel) Zones() []mission.NoFlyZone {
	active := make([]mission.NoFlyZone, 0, len(c.zones))
	for _, z := range c.zones {
		if z.ActiveAt(c.now) {
			active = append(active, z)
		}
	}
	return active
}

// Distance returns the 3-D segment length in meters.
func (c *CostModel) Distance(a, b mission.Waypoint) float64 {
	return Distance3D(a, b)
}

// WeatherFactor returns the multiplicative energy penalty for a segment,
// clamped to [MinWeatherFactor, MaxWeatherFactor]. Headwind pushes the
// factor above 1, tailwind below. Without a usable sample the factor is 1.
func (c *CostModel) WeatherFactor(a, b mission.Waypoint) float64 {
	sample, ok := c.sampleFor(a, b)
	if !ok {
		return 1.0
	}

	altitude := (a.Alt + b.Alt) / 2
	effective := sample.EffectiveWind(Bearing(a, b), altitude)

	maxSpeed := math.Max(c.drone.MaxSpeed, 1)
	factor := 1.0 + effective/maxSpeed
	return math.Min(MaxWeatherFactor, math.Max(MinWeatherFactor, factor))
}

// Energy returns the estimated consumption in Wh for the segment, scaled by
// the weather penalty when a sample is available.
func (c *CostModel) Energy(a, b mission.Waypoint) float64 {
	horizontal := Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	base := c.drone.Energy(horizontal, b.Alt-a.Alt)
	return base * c.WeatherFactor(a, b)
}

// FlightTime returns the estimated traversal time in seconds.
func (c *CostModel) FlightTime(a, b mission.Waypoint) float64 {
	horizontal := Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	return c.drone.FlightTime(horizontal, b.Alt-a.Alt)
}

// EdgeCost is the search cost of traversing a segment. Every planner uses
// this as its edge weight: weather-scaled 3-D distance plus altitude-change
// penalties, with a steep surcharge for climbs the drone cannot physically
// sustain.
func (c *CostModel) EdgeCost(a, b mission.Waypoint) float64 {
	cost := Distance3D(a, b) * c.WeatherFactor(a, b)

	horizontal := Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	altChange := b.Alt - a.Alt
	if altChange != 0 && horizontal > 0 && c.drone.MaxSpeed > 0 {
		requiredRate := math.Abs(altChange) / (horizontal / c.drone.MaxSpeed)
		switch {
		case altChange > 0:
			cost += math.Abs(altChange) * climbCostPerMeter
			if c.drone.ClimbRate > 0 && requiredRate > c.drone.ClimbRate {
				cost += 10000 * (requiredRate/c.drone.ClimbRate - 1)
			}
		default:
			cost += math.Abs(altChange) * descentCostPerMeter
			if c.drone.DescentRate > 0 && requiredRate > c.drone.DescentRate {
				cost += 10000 * (requiredRate/c.drone.DescentRate - 1)
			}
		}
	}
	return cost
}

// HeuristicCost is an admissible estimate of the remaining cost from a to b:
// straight-line distance scaled by the smallest multiplier any segment can
// carry. Never overestimates EdgeCost sums along any path.
func (c *CostModel) HeuristicCost(a, b mission.Waypoint) float64 {
	minFactor := 1.0
	if c.samples != nil && c.samples.Len() > 0 {
		minFactor = MinWeatherFactor
	}
	return Distance3D(a, b) * minFactor
}

// SegmentValid reports whether a straight segment may be flown: it must not
// cross an active no-fly zone and the weather along it must be inside the
// safety limits. The returned reason is empty for valid segments.
func (c *CostModel) SegmentValid(a, b mission.Waypoint) (bool, string) {
	for _, z := range c.zones {
		if !z.ActiveAt(c.now) {
			continue
		}
		if z.IntersectsSegment(a, b) {
			name := z.Name
			if name == "" {
				name = "unnamed"
			}
			return false, fmt.Sprintf("segment intersects no-fly zone %q", name)
		}
	}

	if sample, ok := c.sampleFor(a, b); ok {
		if safe, reason := sample.SafeForFlight(c.safety); !safe {
			return false, "unsafe weather: " + reason
		}
	}
	return true, ""
}

// sampleFor returns the weather sample nearest the segment midpoint.
func (c *CostModel) sampleFor(a, b mission.Waypoint) (weather.Sample, bool) {
	if c.samples == nil {
		return weather.Sample{}, false
	}
	mid := Midpoint(a, b)
	sample, ok := c.samples.Nearest(mid.Lat, mid.Lon)
	return sample, ok
}
