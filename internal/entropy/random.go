// Package entropy provides the seedable random source threaded through generation.
// Seeds come from crypto/rand when the caller does not supply one.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// Source is the random source used by every generation step.
// It is not safe for concurrent use; generation is single-threaded.
type Source struct {
	seed int64
	rng  *mrand.Rand
}

// New creates a source for the given seed. A zero seed draws one from crypto/rand.
func New(seed int64) *Source {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return &Source{
		seed: seed,
		rng:  mrand.New(mrand.NewSource(seed)),
	}
}

// Seed returns the seed the source was created with, so a run can be reproduced.
func (s *Source) Seed() int64 {
	return s.seed
}

// Intn returns a uniform int in [0, n). Returns 0 when n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.Intn(n)
}

// Between returns a uniform int in [lo, hi]. Returns lo when hi < lo.
func (s *Source) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Intn(hi-lo+1)
}

// Float returns a uniform float64 in [0, 1).
func (s *Source) Float() float64 {
	return s.rng.Float64()
}

// Percent reports whether a uniform draw in [0, 100) falls below chance.
func (s *Source) Percent(chance float64) bool {
	if chance <= 0 {
		return false
	}
	return s.rng.Float64()*100 < chance
}

// Chance reports whether a uniform draw in [0, 1) falls below p.
func (s *Source) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	return s.rng.Float64() < p
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1), nil
}

// CryptoSeed is NewSeed without the error. It never returns zero.
func CryptoSeed() int64 {
	seed, err := NewSeed()
	if err != nil || seed == 0 {
		// crypto/rand does not fail on supported platforms.
		return 1
	}
	return seed
}
