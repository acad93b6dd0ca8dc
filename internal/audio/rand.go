package audio

import "math/rand/v2"

// Rand is the randomness source of the generators. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a PCG generator with a fixed seed, for reproducible output.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandomRand returns a generator seeded from the runtime's entropy.
func NewRandomRand() *rand.Rand {
	return NewRand(rand.Uint64())
}

// uniform draws from [lo, hi).
func uniform(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// oneIn reports true with probability 1/n.
func oneIn(r Rand, n int) bool {
	return r.IntN(n) == 0
}
