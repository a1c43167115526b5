// Package validate checks planned routes against mission constraints and
// drone capabilities. The validator never mutates a route; it produces a
// verdict listing every violation found, not just the first.
package validate

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyroute/skyroute/internal/geo"
	"github.com/skyroute/skyroute/internal/mission"
)

const (
	// batteryWarnFraction triggers a warning when a route uses more than
	// this share of capacity without exceeding it.
	batteryWarnFraction = 0.9
)

// Validator checks routes for a single mission.
type Validator struct {
	constraints mission.Constraints
	zones       []mission.NoFlyZone
	model       *geo.CostModel
	now         time.Time
	log         zerolog.Logger
}

// Config configures a Validator.
type Config struct {
	Constraints mission.Constraints
	Zones       []mission.NoFlyZone
	// Model supplies energy and flight-time estimates. Required.
	Model *geo.CostModel
	// Now anchors zone activation checks (default time.Now).
	Now    time.Time
	Logger zerolog.Logger
}

// New builds a Validator.
func New(cfg Config) *Validator {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	return &Validator{
		constraints: cfg.Constraints,
		zones:       cfg.Zones,
		model:       cfg.Model,
		now:         cfg.Now,
		log:         cfg.Logger,
	}
}

// Check evaluates a route for one drone and returns the verdict. Checks run
// in a fixed order (altitude, zones, energy, kinematics, range, flight
// time) and all of them run even after a failure so the verdict is
// complete.
func (v *Validator) Check(drone mission.Drone, route []mission.Waypoint) mission.Verdict {
	verdict := mission.Verdict{Feasible: true}
	if len(route) < 2 {
		verdict.AddViolation(mission.ViolationEmptyRoute, "route has fewer than two waypoints", -1)
		return verdict
	}

	v.checkAltitude(drone, route, &verdict)
	v.checkZones(route, &verdict)
	v.checkEnergy(drone, route, &verdict)
	v.checkKinematics(drone, route, &verdict)
	v.checkDistanceAndTime(drone, route, &verdict)

	if !verdict.Feasible {
		v.log.Debug().
			Str("drone", drone.Name).
			Int("violations", len(verdict.Violations)).
			Msg("route rejected")
	}
	return verdict
}

func (v *Validator) checkAltitude(drone mission.Drone, route []mission.Waypoint, verdict *mission.Verdict) {
	maxAlt := drone.MaxAltitude
	if v.constraints.MaxAltitude > 0 && v.constraints.MaxAltitude < maxAlt {
		maxAlt = v.constraints.MaxAltitude
	}
	minAlt := drone.MinAltitude
	if v.constraints.MinAltitude > minAlt {
		minAlt = v.constraints.MinAltitude
	}

	for i, wp := range route {
		if maxAlt > 0 && wp.Alt > maxAlt {
			verdict.AddViolation(mission.ViolationAltitude,
				fmt.Sprintf("waypoint %q at %.0fm exceeds ceiling %.0fm", wp.Label, wp.Alt, maxAlt), i)
		}
		// Takeoff and landing points sit on the ground and are exempt
		// from the floor.
		ground := i == 0 || i == len(route)-1 || wp.Type == mission.WaypointDepot
		if !ground && wp.Alt < minAlt {
			verdict.AddViolation(mission.ViolationAltitude,
				fmt.Sprintf("waypoint %q at %.0fm below floor %.0fm", wp.Label, wp.Alt, minAlt), i)
		}
	}
}

func (v *Validator) checkZones(route []mission.Waypoint, verdict *mission.Verdict) {
	for _, z := range v.zones {
		if !z.ActiveAt(v.now) {
			continue
		}
		for i, wp := range route {
			if z.Contains(wp.Lat, wp.Lon, wp.Alt) {
				verdict.AddViolation(mission.ViolationNoFlyZone,
					fmt.Sprintf("waypoint %q inside zone %q", wp.Label, z.Name), i)
			}
		}
		for i := 0; i+1 < len(route); i++ {
			a, b := route[i], route[i+1]
			if z.IntersectsSegment(a, b) {
				verdict.AddViolation(mission.ViolationNoFlyZone,
					fmt.Sprintf("segment %d-%d crosses zone %q", i, i+1, z.Name), i)
				continue
			}
			if min := v.constraints.MinZoneClearance; min > 0 {
				if d := z.SegmentClearanceM(a, b); d < min {
					verdict.AddViolation(mission.ViolationNoFlyZone,
						fmt.Sprintf("segment %d-%d passes %.0fm from zone %q, minimum clearance %.0fm", i, i+1, d, z.Name, min), i)
				}
			}
		}
	}
}

func (v *Validator) checkEnergy(drone mission.Drone, route []mission.Waypoint, verdict *mission.Verdict) {
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		total += v.model.Energy(route[i], route[i+1])
	}
	if drone.BatteryCapacity <= 0 {
		return
	}
	frac := total / drone.BatteryCapacity
	switch {
	case frac > 1:
		verdict.AddViolation(mission.ViolationEnergy,
			fmt.Sprintf("route needs %.1f Wh, battery holds %.1f Wh", total, drone.BatteryCapacity), -1)
	case frac > batteryWarnFraction:
		verdict.AddWarning(mission.ViolationEnergy,
			fmt.Sprintf("route uses %.0f%% of battery capacity", frac*100), -1)
	}
}

func (v *Validator) checkKinematics(drone mission.Drone, route []mission.Waypoint, verdict *mission.Verdict) {
	for i := 0; i+1 < len(route); i++ {
		a, b := route[i], route[i+1]
		horizontal := geo.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
		dAlt := b.Alt - a.Alt
		if dAlt == 0 || drone.MaxSpeed <= 0 {
			continue
		}
		travel := horizontal / drone.MaxSpeed
		if travel == 0 {
			continue
		}
		rate := math.Abs(dAlt) / travel
		limit := drone.ClimbRate
		dir := "climb"
		if dAlt < 0 {
			limit = drone.DescentRate
			dir = "descent"
		}
		if limit > 0 && rate > limit {
			verdict.AddViolation(mission.ViolationKinematics,
				fmt.Sprintf("segment %d-%d needs %s rate %.1f m/s, drone limit %.1f m/s", i, i+1, dir, rate, limit), i)
		}
	}
}

func (v *Validator) checkDistanceAndTime(drone mission.Drone, route []mission.Waypoint, verdict *mission.Verdict) {
	dist := 0.0
	flight := 0.0
	for i := 0; i+1 < len(route); i++ {
		a, b := route[i], route[i+1]
		dist += geo.Distance3D(a, b)
		flight += v.model.FlightTime(a, b)
	}

	maxDist := drone.MaxRange
	if v.constraints.MaxDistance > 0 && (maxDist == 0 || v.constraints.MaxDistance < maxDist) {
		maxDist = v.constraints.MaxDistance
	}
	if maxDist > 0 && dist > maxDist {
		verdict.AddViolation(mission.ViolationDistance,
			fmt.Sprintf("route length %.0fm exceeds maximum %.0fm", dist, maxDist), -1)
	}

	maxTime := drone.MaxFlightTime
	if v.constraints.MaxFlightTime > 0 && (maxTime == 0 || v.constraints.MaxFlightTime < maxTime) {
		maxTime = v.constraints.MaxFlightTime
	}
	if maxTime > 0 && flight > maxTime {
		verdict.AddViolation(mission.ViolationFlightTime,
			fmt.Sprintf("flight time %.0fs exceeds maximum %.0fs", flight, maxTime), -1)
	}
}

// Metrics summarizes a route's aggregates alongside its verdict.
func (v *Validator) Metrics(drone mission.Drone, route []mission.Waypoint) mission.RouteMetrics {
	m := mission.RouteMetrics{WaypointCount: len(route)}
	if len(route) > 0 {
		m.MaxAltitude = route[0].Alt
		m.MinAltitude = route[0].Alt
	}
	for i, wp := range route {
		m.MaxAltitude = math.Max(m.MaxAltitude, wp.Alt)
		m.MinAltitude = math.Min(m.MinAltitude, wp.Alt)
		if i+1 < len(route) {
			m.TotalDistance += geo.Distance3D(wp, route[i+1])
			m.TotalEnergy += v.model.Energy(wp, route[i+1])
			m.FlightTime += v.model.FlightTime(wp, route[i+1])
		}
	}
	m.Verdict = v.Check(drone, route)
	return m
}
