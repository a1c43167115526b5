// Package mission defines the domain model for drone planning missions:
// waypoints, drones, no-fly zones, constraints, and planned routes.
package mission

import (
	"errors"
	"fmt"
	"math"
)

// Mission-level validation errors.
var (
	ErrNoDrones      = errors.New("mission has no drones")
	ErrNoTargets     = errors.New("mission has no target waypoints")
	ErrNoDepot       = errors.New("mission has no depot")
	ErrInvalidCoords = errors.New("invalid coordinates")
)

// WaypointType identifies the role of a waypoint within a mission.
type WaypointType string

const (
	WaypointTarget       WaypointType = "target"
	WaypointDepot        WaypointType = "depot"
	WaypointIntermediate WaypointType = "intermediate"
)

// Waypoint is a point in 3-D space. It is an immutable value; two waypoints
// are the same point when their label and coordinates match.
type Waypoint struct {
	Lat   float64      `json:"lat"`
	Lon   float64      `json:"lon"`
	Alt   float64      `json:"alt"`
	Label string       `json:"label,omitempty"`
	Type  WaypointType `json:"type,omitempty"`
}

// Validate checks the waypoint's coordinates are within valid ranges.
func (w Waypoint) Validate() error {
	if w.Lat < -90 || w.Lat > 90 {
		return fmt.Errorf("%w: latitude %f out of range [-90, 90]", ErrInvalidCoords, w.Lat)
	}
	if w.Lon < -180 || w.Lon > 180 {
		return fmt.Errorf("%w: longitude %f out of range [-180, 180]", ErrInvalidCoords, w.Lon)
	}
	if w.Alt < 0 {
		return fmt.Errorf("%w: altitude %f must be non-negative", ErrInvalidCoords, w.Alt)
	}
	return nil
}

// Same reports whether two waypoints describe the same point.
func (w Waypoint) Same(o Waypoint) bool {
	return w.Label == o.Label && w.Lat == o.Lat && w.Lon == o.Lon && w.Alt == o.Alt
}

// Drone describes a vehicle's capabilities and physical limits.
type Drone struct {
	Name             string  `json:"name"`
	MaxSpeed         float64 `json:"maxSpeed"`         // m/s
	MaxAltitude      float64 `json:"maxAltitude"`      // m
	MinAltitude      float64 `json:"minAltitude"`      // m
	BatteryCapacity  float64 `json:"batteryCapacity"`  // Wh
	PowerConsumption float64 `json:"powerConsumption"` // W at cruise

	// Kinematic limits. Zero values are filled in by Normalize.
	TurnRadius  float64 `json:"turnRadius,omitempty"`  // m
	ClimbRate   float64 `json:"climbRate,omitempty"`   // m/s
	DescentRate float64 `json:"descentRate,omitempty"` // m/s

	// Derived when zero: from battery, power and speed.
	MaxFlightTime float64 `json:"maxFlightTime,omitempty"` // s
	MaxRange      float64 `json:"maxRange,omitempty"`      // m
}

// Normalize fills derived and defaulted fields and validates the drone.
func (d *Drone) Normalize() error {
	if d.TurnRadius == 0 {
		d.TurnRadius = 50
	}
	if d.ClimbRate == 0 {
		d.ClimbRate = 5
	}
	if d.DescentRate == 0 {
		d.DescentRate = 5
	}
	if d.MaxFlightTime == 0 {
		if d.PowerConsumption > 0 {
			d.MaxFlightTime = d.BatteryCapacity / d.PowerConsumption * 3600
		} else {
			d.MaxFlightTime = 3600
		}
	}
	if d.MaxRange == 0 {
		d.MaxRange = d.MaxSpeed * d.MaxFlightTime
	}

	if d.Name == "" {
		return fmt.Errorf("drone name is required")
	}
	if d.MaxSpeed <= 0 {
		return fmt.Errorf("drone %q: max speed must be positive, got %f", d.Name, d.MaxSpeed)
	}
	if d.BatteryCapacity <= 0 {
		return fmt.Errorf("drone %q: battery capacity must be positive, got %f", d.Name, d.BatteryCapacity)
	}
	if d.MinAltitude >= d.MaxAltitude {
		return fmt.Errorf("drone %q: min altitude %f must be below max altitude %f",
			d.Name, d.MinAltitude, d.MaxAltitude)
	}
	return nil
}

// FlightTime estimates the time in seconds to cover a horizontal distance
// with an altitude change. Horizontal and vertical motion overlap, so the
// slower of the two dominates.
func (d Drone) FlightTime(distance, altitudeChange float64) float64 {
	var horizontal, vertical float64
	if d.MaxSpeed > 0 {
		horizontal = distance / d.MaxSpeed
	}
	if altitudeChange != 0 && d.ClimbRate > 0 {
		vertical = math.Abs(altitudeChange) / d.ClimbRate
	}
	return math.Max(horizontal, vertical)
}

// Energy estimates consumption in Wh for a segment.
func (d Drone) Energy(distance, altitudeChange float64) float64 {
	return d.PowerConsumption * d.FlightTime(distance, altitudeChange) / 3600
}
