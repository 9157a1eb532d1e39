// Package rng provides the random samplers used for star generation.
package rng

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	radiusCoeff = 1.2
	radiusPower = 0.3
)

// Source is a seeded pseudo-random generator. It is seeded once and never
// reseeded. A Source is not safe for concurrent use.
type Source struct {
	r    *rand.Rand
	seed uint64
}

// New creates a Source. A zero seed selects a time-based seed.
func New(seed int64) *Source {
	s := uint64(seed)
	if seed == 0 {
		s = uint64(time.Now().UnixNano())
	}
	return &Source{
		r:    rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15)),
		seed: s,
	}
}

// Seed returns the seed the Source was created with.
func (s *Source) Seed() uint64 {
	return s.seed
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// StarRadius returns a size factor with a maximum of the distribution near 1.0
// and a long right tail, vaguely resembling a Gamma distribution for k=3..5.
func (s *Source) StarRadius() float64 {
	return SkewedRadius(s.Float64())
}

// SkewedRadius maps a uniform sample r in [0, 1) onto the star radius
// distribution: 1.2 * (r/(1-r))^0.3.
func SkewedRadius(r float64) float64 {
	return radiusCoeff * math.Pow(r/(1-r), radiusPower)
}
