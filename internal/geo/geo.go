// Package geo provides the geometry and cost model shared by every planner:
// distances, bearings, energy consumption, and weather-adjusted edge costs.
// All planners optimizing over the same model optimize the same physical
// objective.
package geo

import (
	"math"

	"github.com/skyroute/skyroute/internal/mission"
)

// EarthRadiusM is the mean Earth radius in meters.
const EarthRadiusM = 6371000.0

// Haversine returns the great-circle distance between two points in meters.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// Distance3D returns the straight-line distance between two waypoints,
// combining great-circle ground distance with the altitude delta.
func Distance3D(a, b mission.Waypoint) float64 {
	horizontal := Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	vertical := b.Alt - a.Alt
	return math.Sqrt(horizontal*horizontal + vertical*vertical)
}

// Bearing returns the initial bearing from a to b in degrees (0-360, 0=N).
func Bearing(a, b mission.Waypoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	bearing := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(bearing+360, 360)
}

// Midpoint returns the midpoint of a segment, altitude included.
func Midpoint(a, b mission.Waypoint) mission.Waypoint {
	return mission.Waypoint{
		Lat: (a.Lat + b.Lat) / 2,
		Lon: (a.Lon + b.Lon) / 2,
		Alt: (a.Alt + b.Alt) / 2,
	}
}
