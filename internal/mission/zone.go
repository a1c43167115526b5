package mission

import (
	"math"
	"time"
)

// Vertex is a 2-D polygon vertex in degrees.
type Vertex struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NoFlyZone is a region routes must not traverse. Either Polygon (a closed
// ring, last vertex implicitly connects to the first) or Circle is set.
// The altitude band and the optional validity window bound when and where
// the zone applies.
type NoFlyZone struct {
	Name    string   `json:"name,omitempty"`
	Polygon []Vertex `json:"polygon,omitempty"`

	// Circular region, used when Polygon is empty.
	Center  *Vertex `json:"center,omitempty"`
	RadiusM float64 `json:"radiusM,omitempty"`

	MinAltitude float64 `json:"minAltitude"` // m, zone floor
	MaxAltitude float64 `json:"maxAltitude"` // m, zone ceiling

	// Validity window. Nil bounds mean always active on that side.
	ActiveFrom  *time.Time `json:"activeFrom,omitempty"`
	ActiveUntil *time.Time `json:"activeUntil,omitempty"`
}

// ActiveAt reports whether the zone applies at the given time.
// The zero time means "now unknown" and is treated as active.
func (z NoFlyZone) ActiveAt(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	if z.ActiveFrom != nil && t.Before(*z.ActiveFrom) {
		return false
	}
	if z.ActiveUntil != nil && t.After(*z.ActiveUntil) {
		return false
	}
	return true
}

// coversAltitude reports whether an altitude band [lo, hi] overlaps the zone's band.
func (z NoFlyZone) coversAltitude(lo, hi float64) bool {
	ceiling := z.MaxAltitude
	if ceiling == 0 {
		ceiling = math.MaxFloat64
	}
	return z.MinAltitude <= hi && ceiling >= lo
}

// Contains reports whether a point at the given altitude is inside the zone.
func (z NoFlyZone) Contains(lat, lon, alt float64) bool {
	if !z.coversAltitude(alt, alt) {
		return false
	}
	if len(z.Polygon) >= 3 {
		return pointInPolygon(lat, lon, z.Polygon)
	}
	if z.Center != nil && z.RadiusM > 0 {
		return flatDistanceM(lat, lon, z.Center.Lat, z.Center.Lon) <= z.RadiusM
	}
	return false
}

// IntersectsSegment reports whether the straight segment between two
// waypoints crosses the zone. The horizontal track is tested in 2-D and the
// segment's altitude span is tested against the zone's band, matching how
// zones are defined (a vertical prism over a footprint).
func (z NoFlyZone) IntersectsSegment(a, b Waypoint) bool {
	lo := math.Min(a.Alt, b.Alt)
	hi := math.Max(a.Alt, b.Alt)
	if !z.coversAltitude(lo, hi) {
		return false
	}

	if len(z.Polygon) >= 3 {
		// Endpoint inside, or the track crosses any polygon edge.
		if pointInPolygon(a.Lat, a.Lon, z.Polygon) || pointInPolygon(b.Lat, b.Lon, z.Polygon) {
			return true
		}
		n := len(z.Polygon)
		for i := 0; i < n; i++ {
			p := z.Polygon[i]
			q := z.Polygon[(i+1)%n]
			if segmentsCross(a.Lat, a.Lon, b.Lat, b.Lon, p.Lat, p.Lon, q.Lat, q.Lon) {
				return true
			}
		}
		return false
	}

	if z.Center != nil && z.RadiusM > 0 {
		return segmentDistanceM(a, b, z.Center.Lat, z.Center.Lon) <= z.RadiusM
	}
	return false
}

// ClearanceM returns the horizontal distance in meters from a point to the
// zone boundary at the given altitude. Zero inside the zone, +Inf when the
// zone's altitude band does not reach the point.
func (z NoFlyZone) ClearanceM(lat, lon, alt float64) float64 {
	if !z.coversAltitude(alt, alt) {
		return math.Inf(1)
	}
	p := Waypoint{Lat: lat, Lon: lon, Alt: alt}
	return z.SegmentClearanceM(p, p)
}

// SegmentClearanceM returns the minimum horizontal distance in meters
// between the segment a-b and the zone boundary. Zero when the segment
// crosses the zone or the altitude bands do not separate them.
func (z NoFlyZone) SegmentClearanceM(a, b Waypoint) float64 {
	if z.IntersectsSegment(a, b) {
		return 0
	}
	if len(z.Polygon) >= 3 {
		best := math.MaxFloat64
		n := len(z.Polygon)
		for i := 0; i < n; i++ {
			p := z.Polygon[i]
			q := z.Polygon[(i+1)%n]
			edgeA := Waypoint{Lat: p.Lat, Lon: p.Lon}
			edgeB := Waypoint{Lat: q.Lat, Lon: q.Lon}
			// Min distance between two non-crossing segments is attained at
			// an endpoint of one of them.
			for _, d := range []float64{
				segmentDistanceM(a, b, p.Lat, p.Lon),
				segmentDistanceM(a, b, q.Lat, q.Lon),
				segmentDistanceM(edgeA, edgeB, a.Lat, a.Lon),
				segmentDistanceM(edgeA, edgeB, b.Lat, b.Lon),
			} {
				if d < best {
					best = d
				}
			}
		}
		return best
	}
	if z.Center != nil && z.RadiusM > 0 {
		d := segmentDistanceM(a, b, z.Center.Lat, z.Center.Lon) - z.RadiusM
		if d < 0 {
			return 0
		}
		return d
	}
	return math.MaxFloat64
}

// pointInPolygon runs a ray cast over the ring in lat/lon space.
func pointInPolygon(lat, lon float64, ring []Vertex) bool {
	inside := false
	n := len(ring)
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := ring[i], ring[j]
		if (pi.Lon > lon) != (pj.Lon > lon) &&
			lat < (pj.Lat-pi.Lat)*(lon-pi.Lon)/(pj.Lon-pi.Lon)+pi.Lat {
			inside = !inside
		}
		j = i
	}
	return inside
}

// segmentsCross reports proper or touching intersection of two 2-D segments.
func segmentsCross(ax, ay, bx, by, cx, cy, dx, dy float64) bool {
	d1 := orient(cx, cy, dx, dy, ax, ay)
	d2 := orient(cx, cy, dx, dy, bx, by)
	d3 := orient(ax, ay, bx, by, cx, cy)
	d4 := orient(ax, ay, bx, by, dx, dy)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(cx, cy, dx, dy, ax, ay) {
		return true
	}
	if d2 == 0 && onSegment(cx, cy, dx, dy, bx, by) {
		return true
	}
	if d3 == 0 && onSegment(ax, ay, bx, by, cx, cy) {
		return true
	}
	if d4 == 0 && onSegment(ax, ay, bx, by, dx, dy) {
		return true
	}
	return false
}

func orient(px, py, qx, qy, rx, ry float64) float64 {
	return (qx-px)*(ry-py) - (qy-py)*(rx-px)
}

func onSegment(px, py, qx, qy, rx, ry float64) bool {
	return math.Min(px, qx) <= rx && rx <= math.Max(px, qx) &&
		math.Min(py, qy) <= ry && ry <= math.Max(py, qy)
}

// flatDistanceM is an equirectangular approximation, adequate for zone-scale
// distances.
func flatDistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	const metersPerDegree = 111320.0
	dLat := (lat2 - lat1) * metersPerDegree
	dLon := (lon2 - lon1) * metersPerDegree * math.Cos(lat1*math.Pi/180)
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// segmentDistanceM returns the minimum horizontal distance from a point to
// the segment a-b, in meters.
func segmentDistanceM(a, b Waypoint, lat, lon float64) float64 {
	// Project into a local tangent plane around the query point.
	cosLat := math.Cos(lat * math.Pi / 180)
	ax := (a.Lon - lon) * 111320.0 * cosLat
	ay := (a.Lat - lat) * 111320.0
	bx := (b.Lon - lon) * 111320.0 * cosLat
	by := (b.Lat - lat) * 111320.0

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Sqrt(ax*ax + ay*ay)
	}
	t := -(ax*dx + ay*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	px := ax + t*dx
	py := ay + t*dy
	return math.Sqrt(px*px + py*py)
}
