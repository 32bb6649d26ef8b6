package geodesic

import (
	"sync"

	"github.com/ssargent/locus/pkg/metrics"
)

type cacheEntry struct {
	valid                  bool
	lat1, lon1, lat2, lon2 float64
	result                 Result
}

// Solver computes geodesics in one mode and memoizes the last result. It is
// safe for concurrent use.
type Solver struct {
	mode   Mode
	radius float64

	mu    sync.Mutex
	cache cacheEntry
}

// Option configures a Solver
type Option func(*Solver)

// WithRadius sets the sphere radius used in fast mode
func WithRadius(radius float64) Option {
	return func(s *Solver) {
		if radius > 0 {
			s.radius = radius
		}
	}
}

// NewSolver creates a solver for the given mode
func NewSolver(mode Mode, opts ...Option) *Solver {
	s := &Solver{mode: mode, radius: FastRadius}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the solver's algorithm
func (s *Solver) Mode() Mode {
	return s.mode
}

func (s *Solver) solve(lat1, lon1, lat2, lon2 float64) Result {
	if s.mode == ModeFast {
		return HaversineRadius(lat1, lon1, lat2, lon2, s.radius)
	}
	return Precise(lat1, lon1, lat2, lon2)
}

// Compute returns distance and bearing between two coordinates, reusing the
// cached result when both endpoints match the previous call.
func (s *Solver) Compute(lat1, lon1, lat2, lon2 float64) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &s.cache
	if c.valid && c.lat1 == lat1 && c.lon1 == lon1 && c.lat2 == lat2 && c.lon2 == lon2 {
		metrics.GeodesicCacheTotal.WithLabelValues(metrics.CacheHit).Inc()
		return c.result
	}
	metrics.GeodesicCacheTotal.WithLabelValues(metrics.CacheMiss).Inc()

	res := s.solve(lat1, lon1, lat2, lon2)
	*c = cacheEntry{valid: true, lat1: lat1, lon1: lon1, lat2: lat2, lon2: lon2, result: res}
	return res
}

// Distance returns the distance in meters
func (s *Solver) Distance(lat1, lon1, lat2, lon2 float64) float64 {
	return s.Compute(lat1, lon1, lat2, lon2).Distance
}

// Bearing returns the raw initial bearing in degrees
func (s *Solver) Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	return s.Compute(lat1, lon1, lat2, lon2).Bearing
}

// Reset drops the cached result
func (s *Solver) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = cacheEntry{}
}

// From binds the solver to an origin coordinate
func (s *Solver) From(lat, lon float64) Origin {
	return Origin{solver: s, Lat: lat, Lon: lon}
}

// Origin is a solver bound to a fixed starting coordinate
type Origin struct {
	solver *Solver
	Lat    float64
	Lon    float64
}

// To returns distance and bearing from the origin to a destination
func (o Origin) To(lat, lon float64) Result {
	return o.solver.Compute(o.Lat, o.Lon, lat, lon)
}

// DistanceTo returns meters from the origin to a destination
func (o Origin) DistanceTo(lat, lon float64) float64 {
	return o.To(lat, lon).Distance
}

// BearingTo returns the raw initial bearing from the origin to a destination
func (o Origin) BearingTo(lat, lon float64) float64 {
	return o.To(lat, lon).Bearing
}
