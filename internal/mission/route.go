package mission

// ViolationType classifies a constraint violation.
type ViolationType string

const (
	ViolationAltitude   ViolationType = "altitude"
	ViolationNoFlyZone  ViolationType = "no_fly_zone"
	ViolationEnergy     ViolationType = "energy"
	ViolationKinematics ViolationType = "kinematics"
	ViolationDistance   ViolationType = "distance"
	ViolationFlightTime ViolationType = "flight_time"
	ViolationEmptyRoute ViolationType = "empty_route"
)

// Violation describes one broken constraint. WaypointIndex is -1 when the
// violation applies to the route as a whole.
type Violation struct {
	Type          ViolationType `json:"type"`
	Message       string        `json:"message"`
	WaypointIndex int           `json:"waypointIndex"`
}

// Verdict is the validator's accept/reject decision with reasons.
// Warnings do not make a route infeasible.
type Verdict struct {
	Feasible   bool        `json:"feasible"`
	Violations []Violation `json:"violations,omitempty"`
	Warnings   []Violation `json:"warnings,omitempty"`
}

// AddViolation records a violation and marks the verdict infeasible.
func (v *Verdict) AddViolation(t ViolationType, msg string, waypointIndex int) {
	v.Feasible = false
	v.Violations = append(v.Violations, Violation{Type: t, Message: msg, WaypointIndex: waypointIndex})
}

// AddWarning records a non-fatal finding.
func (v *Verdict) AddWarning(t ViolationType, msg string, waypointIndex int) {
	v.Warnings = append(v.Warnings, Violation{Type: t, Message: msg, WaypointIndex: waypointIndex})
}

// RouteMetrics summarizes a planned route.
type RouteMetrics struct {
	TotalDistance float64 `json:"totalDistance"` // m
	TotalEnergy   float64 `json:"totalEnergy"`   // Wh
	FlightTime    float64 `json:"flightTime"`    // s
	MaxAltitude   float64 `json:"maxAltitude"`   // m
	MinAltitude   float64 `json:"minAltitude"`   // m
	WaypointCount int     `json:"waypointCount"`
	Verdict       Verdict `json:"verdict"`
}

// Route is a planned waypoint sequence for one drone, starting and ending at
// the mission depot. A pure output value, never mutated after creation.
type Route struct {
	DroneName string       `json:"droneName"`
	Waypoints []Waypoint   `json:"waypoints"`
	Metrics   RouteMetrics `json:"metrics"`
}

// Targets returns the route's waypoints excluding the depot bookends and
// any intermediate grid points.
func (r *Route) Targets() []Waypoint {
	var out []Waypoint
	for _, w := range r.Waypoints {
		if w.Type == WaypointTarget {
			out = append(out, w)
		}
	}
	return out
}
