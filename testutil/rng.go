package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/geomsearch/geom"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Uniform returns a pseudo-random number in [minVal, maxVal).
func (r *RNG) Uniform(minVal, maxVal float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return minVal + r.rand.Float64()*(maxVal-minVal)
}

// Jitter returns p moved by up to amount along x and y.
func (r *RNG) Jitter(p geom.Point, amount float64) geom.Point {
	if amount == 0 {
		return p
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p.X += (r.rand.Float64()*2 - 1) * amount
	p.Y += (r.rand.Float64()*2 - 1) * amount
	return p
}

// UniformPoints generates num points in the box [0,1)^3 with z fixed to 0
// when planar is set.
func (r *RNG) UniformPoints(num int, planar bool) []geom.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	pts := make([]geom.Point, num)
	for i := range pts {
		pts[i].X = r.rand.Float64()
		pts[i].Y = r.rand.Float64()
		if !planar {
			pts[i].Z = r.rand.Float64()
		}
	}
	return pts
}
