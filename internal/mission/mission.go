package mission

import "fmt"

// Constraints are mission-wide limits. Zero means unset for the optional
// fields; all set limits must hold for a route to be accepted.
type Constraints struct {
	MaxAltitude      float64 `json:"maxAltitude,omitempty"`      // m, global ceiling
	MinAltitude      float64 `json:"minAltitude,omitempty"`      // m, global floor
	MaxDistance      float64 `json:"maxDistance,omitempty"`      // m, total route length
	MaxFlightTime    float64 `json:"maxFlightTime,omitempty"`    // s
	MinZoneClearance float64 `json:"minZoneClearance,omitempty"` // m, lateral buffer around zones
}

// Mission is the unit of planning: one depot, one or more drones, one or
// more targets. Read-only once handed to the orchestrator.
type Mission struct {
	Name        string      `json:"name"`
	Drones      []Drone     `json:"drones"`
	Targets     []Waypoint  `json:"targets"`
	Depot       Waypoint    `json:"depot"`
	Constraints Constraints `json:"constraints"`
	Zones       []NoFlyZone `json:"noFlyZones,omitempty"`
}

// Validate rejects missions for which no meaningful partial result is
// possible: no drones, no targets, or no depot. Drone and waypoint fields
// are normalized and checked as a side effect.
func (m *Mission) Validate() error {
	if len(m.Drones) == 0 {
		return ErrNoDrones
	}
	if len(m.Targets) == 0 {
		return ErrNoTargets
	}
	if m.Depot == (Waypoint{}) {
		return ErrNoDepot
	}
	if err := m.Depot.Validate(); err != nil {
		return fmt.Errorf("depot: %w", err)
	}
	for i := range m.Drones {
		if err := m.Drones[i].Normalize(); err != nil {
			return err
		}
	}
	for i, t := range m.Targets {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("target %d: %w", i, err)
		}
	}
	return nil
}

// Drone returns the drone with the given name, if present.
func (m *Mission) Drone(name string) (Drone, bool) {
	for _, d := range m.Drones {
		if d.Name == name {
			return d, true
		}
	}
	return Drone{}, false
}
