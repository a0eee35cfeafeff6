// Package splitmix implements the SplitMix64 pseudo-random generator used
// wherever this module needs a deterministic, seed-derived stream of 64-bit
// values: MinHash affine coefficients (perceptual) and the stub embedding
// vector (semantic). One generator, two call sites.
package splitmix

// State is a SplitMix64 generator. Zero value is not valid; use New.
type State struct {
	x uint64
}

// New returns a generator seeded deterministically from seed.
func New(seed uint64) *State {
	return &State{x: seed}
}

// Next returns the next 64-bit value in the stream and advances state.
func (s *State) Next() uint64 {
	s.x += 0x9E3779B97F4A7C15
	z := s.x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// NextN returns the next n values.
func (s *State) NextN(n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}

// Float64 returns the next value mapped into [0, 1).
func (s *State) Float64() float64 {
	return float64(s.Next()>>11) / (1 << 53)
}
