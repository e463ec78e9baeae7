// Package rng provides the seeded pseudo-random stream used for sampling.
//
// The generator is a 64-bit linear congruential generator with Knuth's MMIX
// constants. It is not cryptographically secure. Its only contracts are
// determinism (same seed, same sequence) and reasonable dispersion over [0, 1).
package rng

const (
	multiplier uint64 = 6364136223846793005
	increment  uint64 = 1442695040888963407

	// Draws use the top 53 bits of the state; low bits of a power-of-two
	// modulus LCG have short periods.
	mantissaBits = 53
	scale        = 1.0 / (1 << mantissaBits)
)

// LCG is a seeded generator. A zero LCG is usable and equivalent to New(0).
// An LCG is not safe for concurrent use; each generation owns its own.
type LCG struct {
	state uint64
}

// New returns a generator seeded with seed. The seed passes through the
// splitmix64 finalizer first, so neighbouring seeds start from unrelated
// states. mix(0) is 0, which keeps the zero LCG equal to New(0).
func New(seed int64) *LCG {
	return &LCG{state: mix(uint64(seed))}
}

// mix is the splitmix64 finalizer, a bijection on uint64.
func mix(z uint64) uint64 {
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	return z
}

// Float64 advances the state and returns a value in [0, 1).
func (g *LCG) Float64() float64 {
	g.state = g.state*multiplier + increment
	return float64(g.state>>(64-mantissaBits)) * scale
}

// Source is the draw interface consumed by the sampler.
type Source interface {
	Float64() float64
}
