package core

import "math"

// JenkinsHash mixes a 32-bit word with Bob Jenkins' one-at-a-time final avalanche.
// The exact sequence of shifts is part of the reproducibility contract with the GPU kernel.
func JenkinsHash(x uint32) uint32 {
	x += x << 10
	x ^= x >> 6
	x += x << 3
	x ^= x >> 11
	x += x << 15
	return x
}

// Seed is the per-pixel random state. It must be owned by exactly one
// pixel invocation and passed by pointer through every stochastic call.
type Seed uint32

// NewSeed derives the random state for a pixel in a given frame
func NewSeed(x, y, width, frame uint32) Seed {
	return Seed(JenkinsHash((x + y*width) ^ JenkinsHash(frame)))
}

// Next advances the state and returns the new value
func (s *Seed) Next() uint32 {
	*s = Seed(JenkinsHash(uint32(*s)))
	return uint32(*s)
}

// Range returns a value in [lo, hi]
func (s *Seed) Range(lo, hi float32) float32 {
	return lo + (hi-lo)*float32(s.Next())/float32(math.MaxUint32)
}
