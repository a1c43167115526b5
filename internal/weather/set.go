package weather

import (
	"fmt"
	"math"
)

// DefaultMaxSampleDistance is how far a sample may be from a query point
// before it stops being representative, in meters.
const DefaultMaxSampleDistance = 5000.0

// Set indexes samples by a quantized location grid so edge-cost lookups are
// cheap. Points within the same grid cell share a sample. Read-only during
// planning; build it fully before handing it to the orchestrator.
type Set struct {
	gridSize          float64
	maxSampleDistance float64
	samples           map[string]Sample
}

// SetConfig configures a sample set.
type SetConfig struct {
	// GridSize is the quantization cell size in degrees (default 0.05, ~5.5km).
	GridSize float64

	// MaxSampleDistance is the usefulness radius of a sample in meters
	// (default 5km). Queries farther than this from every sample miss.
	MaxSampleDistance float64
}

// NewSet creates an empty sample set.
func NewSet(cfg SetConfig) *Set {
	gridSize := cfg.GridSize
	if gridSize == 0 {
		gridSize = 0.05
	}
	maxDist := cfg.MaxSampleDistance
	if maxDist == 0 {
		maxDist = DefaultMaxSampleDistance
	}
	return &Set{
		gridSize:          gridSize,
		maxSampleDistance: maxDist,
		samples:           make(map[string]Sample),
	}
}

// Add stores a sample, replacing any previous sample in the same grid cell.
func (s *Set) Add(sample Sample) {
	s.samples[s.key(sample.Lat, sample.Lon)] = sample
}

// Len returns the number of stored samples.
func (s *Set) Len() int {
	return len(s.samples)
}

// Nearest returns the closest sample within the usefulness radius of the
// query point, or false when every sample is too far away.
func (s *Set) Nearest(lat, lon float64) (Sample, bool) {
	if s == nil || len(s.samples) == 0 {
		return Sample{}, false
	}

	// Fast path: exact cell hit.
	if sample, ok := s.samples[s.key(lat, lon)]; ok {
		return sample, true
	}

	best := Sample{}
	bestDist := math.MaxFloat64
	for _, sample := range s.samples {
		d := flatDistanceM(lat, lon, sample.Lat, sample.Lon)
		if d < bestDist {
			bestDist = d
			best = sample
		}
	}
	if bestDist > s.maxSampleDistance {
		return Sample{}, false
	}
	return best, true
}

func (s *Set) key(lat, lon float64) string {
	gridLat := math.Floor(lat/s.gridSize) * s.gridSize
	gridLon := math.Floor(lon/s.gridSize) * s.gridSize
	return fmt.Sprintf("%.3f,%.3f", gridLat, gridLon)
}

func flatDistanceM(lat1, lon1, lat2, lon2 float64) float64 {
	const metersPerDegree = 111320.0
	dLat := (lat2 - lat1) * metersPerDegree
	dLon := (lon2 - lon1) * metersPerDegree * math.Cos(lat1*math.Pi/180)
	return math.Sqrt(dLat*dLat + dLon*dLon)
}
