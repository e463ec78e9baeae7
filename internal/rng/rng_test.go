package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draws(seed int64, n int) []float64 {
	g := New(seed)
	out := make([]float64, n)
	for i := range out {
		out[i] = g.Float64()
	}
	return out
}

func TestSameSeedSameSequence(t *testing.T) {
	assert.Equal(t, draws(42, 100), draws(42, 100))
}

func TestDifferentSeedsDiverge(t *testing.T) {
	assert.NotEqual(t, draws(42, 10), draws(43, 10))
}

func TestDrawsInUnitInterval(t *testing.T) {
	for _, seed := range []int64{0, 1, -1, 42, 1 << 52, -9223372036854775808} {
		for _, r := range draws(seed, 1000) {
			require.GreaterOrEqual(t, r, 0.0)
			require.Less(t, r, 1.0)
		}
	}
}

func TestFirstDrawFromZeroSeed(t *testing.T) {
	// mix(0) = 0, so state = 0*a + c; top 53 bits of c scaled to [0, 1).
	want := float64(increment>>11) / (1 << 53)
	assert.Equal(t, want, New(0).Float64())

	var zero LCG
	assert.Equal(t, want, zero.Float64())
}

func TestDispersion(t *testing.T) {
	const buckets, n = 10, 10000
	var counts [buckets]int
	g := New(7)
	for i := 0; i < n; i++ {
		counts[int(g.Float64()*buckets)]++
	}
	for i, c := range counts {
		assert.InDelta(t, n/buckets, c, 200, "bucket %d", i)
	}
}

func TestConsecutiveSeedsAreNotAStepPattern(t *testing.T) {
	// Without seed mixing, New(s+1) is New(s) shifted by a constant, so every
	// neighbour difference (mod 1) would be the same.
	for draw := 0; draw < 3; draw++ {
		diffs := make(map[float64]bool)
		for s := int64(100); s < 110; s++ {
			a := draws(s, draw+1)[draw]
			b := draws(s+1, draw+1)[draw]
			d := math.Mod(b-a+1, 1)
			diffs[math.Round(d*1e6)/1e6] = true
		}
		assert.Greater(t, len(diffs), 5, "draw %d: neighbour differences %v", draw, diffs)
	}
}

func TestConsecutiveSeedsDisperse(t *testing.T) {
	const buckets, n = 10, 5000
	var counts [buckets]int
	for s := int64(0); s < n; s++ {
		counts[int(New(s).Float64()*buckets)]++
	}
	for i, c := range counts {
		assert.InDelta(t, n/buckets, c, 120, "bucket %d", i)
	}
}

func TestMixIsInjectiveOnNeighbours(t *testing.T) {
	seen := make(map[uint64]int64)
	for s := int64(-500); s < 500; s++ {
		m := mix(uint64(s))
		prev, dup := seen[m]
		require.False(t, dup, "seeds %d and %d mix to the same state", prev, s)
		seen[m] = s
	}
	assert.Equal(t, uint64(0), mix(0))
}
