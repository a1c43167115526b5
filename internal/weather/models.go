// Package weather holds pre-fetched weather samples used to weight planning
// costs. The core never fetches data; callers supply samples keyed by
// location and the planner degrades to unweighted costs when none are close
// enough.
package weather

import (
	"fmt"
	"math"
	"time"
)

// Sample is a weather observation at a location and time. Never mutated by
// the planning core.
type Sample struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	// Wind at the 10m reference height.
	WindSpeed     float64 `json:"windSpeed"`     // m/s
	WindDirection float64 `json:"windDirection"` // degrees, 0=N, 90=E
	WindGust      float64 `json:"windGust,omitempty"`

	Temperature   float64 `json:"temperature"`             // Celsius
	Precipitation float64 `json:"precipitation,omitempty"` // mm/h
	CloudCover    float64 `json:"cloudCover,omitempty"`    // percent
	Visibility    float64 `json:"visibility,omitempty"`    // km, 0 when unknown

	ObservedAt time.Time `json:"observedAt,omitempty"`
}

// WindCategory categorizes wind speed for planning impact.
type WindCategory string

const (
	WindCalm     WindCategory = "CALM"     // < 1 m/s
	WindLight    WindCategory = "LIGHT"    // 1-3 m/s
	WindModerate WindCategory = "MODERATE" // 3-8 m/s
	WindStrong   WindCategory = "STRONG"   // > 8 m/s
)

// WindCategoryAt returns the wind category at the given altitude.
func (s *Sample) WindCategoryAt(altitude float64) WindCategory {
	v := s.WindSpeedAt(altitude)
	switch {
	case v < 1:
		return WindCalm
	case v < 3:
		return WindLight
	case v < 8:
		return WindModerate
	default:
		return WindStrong
	}
}

// WindSpeedAt estimates wind speed at an altitude using the power-law wind
// profile v(z) = v_ref * (z/z_ref)^alpha with the reference at 10m.
func (s *Sample) WindSpeedAt(altitude float64) float64 {
	const (
		refAltitude = 10.0
		alpha       = 0.15
	)
	if altitude <= refAltitude {
		return s.WindSpeed
	}
	return s.WindSpeed * math.Pow(altitude/refAltitude, alpha)
}

// EffectiveWind resolves the wind vector against a travel bearing at an
// altitude. Positive is headwind (more energy), negative is tailwind.
func (s *Sample) EffectiveWind(bearing, altitude float64) float64 {
	diff := math.Abs(bearing - s.WindDirection)
	if diff > 180 {
		diff = 360 - diff
	}
	// Wind direction is where wind comes FROM: travelling straight into it
	// (diff = 0) is a full headwind.
	return s.WindSpeedAt(altitude) * math.Cos(diff*math.Pi/180)
}

// SafetyLimits bound the conditions a drone may fly in.
type SafetyLimits struct {
	MaxWindSpeed     float64 // m/s, default 15
	MaxPrecipitation float64 // mm/h, default 5
	MinVisibility    float64 // km, default 1
}

// DefaultSafetyLimits returns conservative flight limits.
func DefaultSafetyLimits() SafetyLimits {
	return SafetyLimits{MaxWindSpeed: 15, MaxPrecipitation: 5, MinVisibility: 1}
}

// SafeForFlight screens the sample against the limits. The returned reason
// is empty when flight is safe.
func (s *Sample) SafeForFlight(limits SafetyLimits) (bool, string) {
	if limits.MaxWindSpeed > 0 && s.WindSpeed > limits.MaxWindSpeed {
		return false, fmt.Sprintf("wind %.1f m/s exceeds limit %.1f m/s", s.WindSpeed, limits.MaxWindSpeed)
	}
	if limits.MaxPrecipitation > 0 && s.Precipitation > limits.MaxPrecipitation {
		return false, fmt.Sprintf("precipitation %.1f mm/h exceeds limit %.1f mm/h", s.Precipitation, limits.MaxPrecipitation)
	}
	if limits.MinVisibility > 0 && s.Visibility > 0 && s.Visibility < limits.MinVisibility {
		return false, fmt.Sprintf("visibility %.1f km below limit %.1f km", s.Visibility, limits.MinVisibility)
	}
	return true, ""
}
