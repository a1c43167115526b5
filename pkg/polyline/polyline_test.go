package polyline

import (
	"math"
	"testing"
)

func TestRoundTrip_FlightPath(t *testing.T) {
	tests := []struct {
		name   string
		coords []Coordinate
	}{
		{
			name:   "single point",
			coords: []Coordinate{{Lat: 38.5, Lon: -120.2, Alt: 100}},
		},
		{
			name: "climb and descend",
			coords: []Coordinate{
				{Lat: 38.5, Lon: -120.2, Alt: 0},
				{Lat: 38.51, Lon: -120.21, Alt: 120.5},
				{Lat: 38.52, Lon: -120.22, Alt: 80.25},
				{Lat: 38.53, Lon: -120.23, Alt: 0},
			},
		},
		{
			name: "southern hemisphere",
			coords: []Coordinate{
				{Lat: -33.8688, Lon: 151.2093, Alt: 50},
				{Lat: -33.87, Lon: 151.21, Alt: 75},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := Decode(Encode(tt.coords))
			if len(decoded) != len(tt.coords) {
				t.Fatalf("expected %d coordinates, got %d", len(tt.coords), len(decoded))
			}
			for i, got := range decoded {
				want := tt.coords[i]
				if math.Abs(got.Lat-want.Lat) > 1e-5 || math.Abs(got.Lon-want.Lon) > 1e-5 {
					t.Errorf("coordinate %d: expected %+v, got %+v", i, want, got)
				}
				if math.Abs(got.Alt-want.Alt) > 0.01 {
					t.Errorf("coordinate %d altitude: expected %v, got %v", i, want.Alt, got.Alt)
				}
			}
		})
	}
}

func TestDecode_EmptyString(t *testing.T) {
	if result := Decode(""); result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestEncode_EmptyCoordinates(t *testing.T) {
	if result := Encode(nil); result != "" {
		t.Errorf("expected empty string for nil coordinates, got %q", result)
	}
}

func TestLength_IncludesAltitude(t *testing.T) {
	flat := []Coordinate{
		{Lat: 52.0, Lon: 4.0, Alt: 0},
		{Lat: 52.0, Lon: 4.001, Alt: 0},
	}
	climbing := []Coordinate{
		{Lat: 52.0, Lon: 4.0, Alt: 0},
		{Lat: 52.0, Lon: 4.001, Alt: 100},
	}

	lenFlat := Length(flat)
	lenClimb := Length(climbing)

	if lenFlat <= 0 {
		t.Fatalf("expected positive flat length, got %v", lenFlat)
	}
	if lenClimb <= lenFlat {
		t.Errorf("climbing path should be longer: flat=%v climb=%v", lenFlat, lenClimb)
	}

	// The climb contribution should match the hypotenuse.
	want := math.Sqrt(lenFlat*lenFlat + 100*100)
	if math.Abs(lenClimb-want) > 0.1 {
		t.Errorf("expected length %v, got %v", want, lenClimb)
	}
}

func TestLength_TooFewPoints(t *testing.T) {
	if l := Length([]Coordinate{{Lat: 1, Lon: 1}}); l != 0 {
		t.Errorf("expected 0 for single point, got %v", l)
	}
}

func TestSample_InterpolatesAltitude(t *testing.T) {
	// Two points about 1.1km apart with a 100m climb.
	coords := []Coordinate{
		{Lat: 52.0, Lon: 4.0, Alt: 0},
		{Lat: 52.01, Lon: 4.0, Alt: 100},
	}

	sampled := Sample(coords, 200)
	if len(sampled) < 4 {
		t.Fatalf("expected several samples, got %d", len(sampled))
	}

	if sampled[0] != coords[0] {
		t.Errorf("first sample should be the start point")
	}
	if sampled[len(sampled)-1] != coords[1] {
		t.Errorf("last sample should be the end point")
	}

	// Altitude must rise monotonically along a straight climb.
	for i := 1; i < len(sampled); i++ {
		if sampled[i].Alt < sampled[i-1].Alt {
			t.Errorf("altitude decreased at sample %d: %v -> %v", i, sampled[i-1].Alt, sampled[i].Alt)
		}
	}
}

func TestSample_ZeroInterval(t *testing.T) {
	coords := []Coordinate{
		{Lat: 52.0, Lon: 4.0, Alt: 10},
		{Lat: 52.01, Lon: 4.0, Alt: 20},
	}
	sampled := Sample(coords, 0)
	if len(sampled) != len(coords) {
		t.Errorf("expected original coordinates for zero interval, got %d", len(sampled))
	}
}
