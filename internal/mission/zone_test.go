package mission

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// square is a roughly 1km x 1km polygon around 52.005, 4.005.
func square() NoFlyZone {
	return NoFlyZone{
		Name: "restricted",
		Polygon: []Vertex{
			{Lat: 52.000, Lon: 4.000},
			{Lat: 52.010, Lon: 4.000},
			{Lat: 52.010, Lon: 4.010},
			{Lat: 52.000, Lon: 4.010},
		},
		MaxAltitude: 150,
	}
}

func circle() NoFlyZone {
	return NoFlyZone{
		Name:    "helipad",
		Center:  &Vertex{Lat: 52.005, Lon: 4.005},
		RadiusM: 300,
	}
}

func TestZone_Contains_Polygon(t *testing.T) {
	z := square()

	assert.True(t, z.Contains(52.005, 4.005, 100))
	assert.False(t, z.Contains(52.020, 4.005, 100), "outside footprint")
	assert.False(t, z.Contains(52.005, 4.005, 200), "above ceiling")
}

func TestZone_Contains_Circle(t *testing.T) {
	z := circle()

	assert.True(t, z.Contains(52.005, 4.005, 50))
	assert.True(t, z.Contains(52.0051, 4.0051, 50), "well inside radius")
	assert.False(t, z.Contains(52.05, 4.05, 50), "kilometers away")
}

func TestZone_Contains_AltitudeBand(t *testing.T) {
	z := square()
	z.MinAltitude = 50

	assert.False(t, z.Contains(52.005, 4.005, 20), "below floor")
	assert.True(t, z.Contains(52.005, 4.005, 100))
}

func TestZone_UnboundedCeiling(t *testing.T) {
	z := square()
	z.MaxAltitude = 0

	assert.True(t, z.Contains(52.005, 4.005, 5000))
}

func TestZone_IntersectsSegment(t *testing.T) {
	z := square()

	through := func(a, b Waypoint) bool { return z.IntersectsSegment(a, b) }

	// Straight through the middle.
	assert.True(t, through(
		Waypoint{Lat: 52.005, Lon: 3.990, Alt: 100},
		Waypoint{Lat: 52.005, Lon: 4.020, Alt: 100},
	))

	// Passing well north of the zone.
	assert.False(t, through(
		Waypoint{Lat: 52.050, Lon: 3.990, Alt: 100},
		Waypoint{Lat: 52.050, Lon: 4.020, Alt: 100},
	))

	// Crossing the footprint but above the ceiling.
	assert.False(t, through(
		Waypoint{Lat: 52.005, Lon: 3.990, Alt: 200},
		Waypoint{Lat: 52.005, Lon: 4.020, Alt: 200},
	))

	// Endpoint inside counts as intersecting.
	assert.True(t, through(
		Waypoint{Lat: 52.005, Lon: 4.005, Alt: 100},
		Waypoint{Lat: 52.050, Lon: 4.050, Alt: 100},
	))
}

func TestZone_IntersectsSegment_Circle(t *testing.T) {
	z := circle()

	assert.True(t, z.IntersectsSegment(
		Waypoint{Lat: 52.005, Lon: 3.990, Alt: 50},
		Waypoint{Lat: 52.005, Lon: 4.020, Alt: 50},
	))
	assert.False(t, z.IntersectsSegment(
		Waypoint{Lat: 52.020, Lon: 3.990, Alt: 50},
		Waypoint{Lat: 52.020, Lon: 4.020, Alt: 50},
	))
}

func TestZone_SegmentClearance(t *testing.T) {
	z := circle()

	// A track passing about 1.1km north of the center clears the 300m
	// radius by roughly 800m.
	d := z.SegmentClearanceM(
		Waypoint{Lat: 52.015, Lon: 3.990, Alt: 50},
		Waypoint{Lat: 52.015, Lon: 4.020, Alt: 50},
	)
	assert.InDelta(t, 800, d, 50)

	// Intersecting tracks have zero clearance.
	d = z.SegmentClearanceM(
		Waypoint{Lat: 52.005, Lon: 3.990, Alt: 50},
		Waypoint{Lat: 52.005, Lon: 4.020, Alt: 50},
	)
	assert.Equal(t, 0.0, d)
}

func TestZone_ClearanceM(t *testing.T) {
	// About 1km east of the helipad center, 700m past the 300m radius.
	d := circle().ClearanceM(52.005, 4.0196, 50)
	assert.InDelta(t, 700, d, 25)

	assert.Equal(t, 0.0, circle().ClearanceM(52.005, 4.005, 50), "inside the zone")

	// Roughly 340m east of the square's boundary.
	d = square().ClearanceM(52.005, 4.015, 100)
	assert.InDelta(t, 342, d, 15)

	assert.True(t, math.IsInf(square().ClearanceM(52.005, 4.015, 500), 1),
		"above the ceiling the zone does not apply")
}

func TestZone_ActiveAt(t *testing.T) {
	from := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	until := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	z := square()
	z.ActiveFrom = &from
	z.ActiveUntil = &until

	assert.False(t, z.ActiveAt(from.Add(-time.Hour)))
	assert.True(t, z.ActiveAt(from.Add(time.Hour)))
	assert.False(t, z.ActiveAt(until.Add(time.Hour)))

	// Zero time is treated as active.
	assert.True(t, z.ActiveAt(time.Time{}))

	// No window means always active.
	assert.True(t, square().ActiveAt(time.Now()))
}
