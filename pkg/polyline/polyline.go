// Package polyline encodes flight paths as compact strings using a 3-D
// extension of Google's polyline algorithm. Latitude and longitude deltas
// are stored at 1e-5 degree precision like the standard format; each point
// carries a third altitude value at centimeter precision, so decoders
// expecting triples round-trip full flight geometry.
package polyline

import (
	"math"
)

// Coordinate is one point of a flight path. Alt is meters above ground.
type Coordinate struct {
	Lat float64
	Lon float64
	Alt float64
}

const (
	horizontalScale = 1e5
	altitudeScale   = 1e2
)

// Decode parses an encoded flight path back into coordinates.
func Decode(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}

	var coords []Coordinate
	index := 0
	lat, lon, alt := 0, 0, 0

	for index < len(encoded) {
		latDelta, newIndex := decodeValue(encoded, index)
		index = newIndex
		lat += latDelta

		lonDelta, newIndex := decodeValue(encoded, index)
		index = newIndex
		lon += lonDelta

		altDelta, newIndex := decodeValue(encoded, index)
		index = newIndex
		alt += altDelta

		coords = append(coords, Coordinate{
			Lat: float64(lat) / horizontalScale,
			Lon: float64(lon) / horizontalScale,
			Alt: float64(alt) / altitudeScale,
		})
	}

	return coords
}

// decodeValue decodes a single delta starting at index and returns it with
// the new index position.
func decodeValue(encoded string, index int) (int, int) {
	shift := 0
	result := 0

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	// Apply two's complement for negative values
	if result&1 != 0 {
		return ^(result >> 1), index
	}
	return result >> 1, index
}

// Encode serializes a flight path. Points are delta-encoded against their
// predecessor, so smooth paths compress well.
func Encode(coords []Coordinate) string {
	if len(coords) == 0 {
		return ""
	}

	encoded := make([]byte, 0, len(coords)*6)
	prevLat, prevLon, prevAlt := 0, 0, 0

	for _, coord := range coords {
		lat := int(math.Round(coord.Lat * horizontalScale))
		lon := int(math.Round(coord.Lon * horizontalScale))
		alt := int(math.Round(coord.Alt * altitudeScale))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)
		encoded = encodeValue(encoded, alt-prevAlt)

		prevLat, prevLon, prevAlt = lat, lon, alt
	}

	return string(encoded)
}

// encodeValue appends one delta using the polyline 5-bit chunk scheme.
func encodeValue(buf []byte, value int) []byte {
	// Invert if negative
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	buf = append(buf, byte(value)+63)

	return buf
}

// Length returns the total 3-D path length in meters.
func Length(coords []Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(coords); i++ {
		total += distance(coords[i-1], coords[i])
	}
	return total
}

// Sample returns points spaced approximately intervalMeters apart along the
// path, interpolating altitude linearly within segments. The first and last
// points are always included.
func Sample(coords []Coordinate, intervalMeters float64) []Coordinate {
	if len(coords) == 0 {
		return nil
	}
	if intervalMeters <= 0 {
		return coords
	}

	sampled := []Coordinate{coords[0]}
	accumulated := 0.0

	for i := 1; i < len(coords); i++ {
		segmentDist := distance(coords[i-1], coords[i])

		for accumulated+segmentDist >= intervalMeters {
			remaining := intervalMeters - accumulated
			fraction := remaining / segmentDist

			sampled = append(sampled, Coordinate{
				Lat: coords[i-1].Lat + fraction*(coords[i].Lat-coords[i-1].Lat),
				Lon: coords[i-1].Lon + fraction*(coords[i].Lon-coords[i-1].Lon),
				Alt: coords[i-1].Alt + fraction*(coords[i].Alt-coords[i-1].Alt),
			})

			segmentDist -= remaining
			accumulated = 0
		}

		accumulated += segmentDist
	}

	last := coords[len(coords)-1]
	if sampled[len(sampled)-1] != last {
		sampled = append(sampled, last)
	}

	return sampled
}

const earthRadiusMeters = 6371000

// distance is the 3-D separation of two points: haversine over the ground
// combined with the altitude change.
func distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	flat := 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
	dAlt := b.Alt - a.Alt
	return math.Sqrt(flat*flat + dAlt*dAlt)
}
