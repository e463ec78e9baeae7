package engine

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"
)

// MaxSeed is the largest seed a SeedSource produces. Seeds stay within
// 53 bits so they survive JSON consumers that read numbers as doubles.
const MaxSeed = 1<<53 - 1

// SeedSource chooses seeds for Regenerate.
// Implemented by ClockSeedSource (production) and FixedSeedSource (tests).
type SeedSource interface {
	NextSeed() int64
}

// ClockSeedSource derives seeds from the wall clock.
//
// A counter is mixed in so that calls within one clock tick still yield
// distinct seeds.
//
// Thread-safety: ClockSeedSource is safe for concurrent use (atomic counter).
type ClockSeedSource struct {
	now     func() time.Time
	counter atomic.Int64
}

// NewClockSeedSource creates a clock-backed seed source.
func NewClockSeedSource() *ClockSeedSource {
	return &ClockSeedSource{now: time.Now}
}

// NextSeed returns a fresh seed in [0, MaxSeed].
func (s *ClockSeedSource) NextSeed() int64 {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	n := s.counter.Add(1)
	return (now().UnixNano() + n*0x9E3779B9) & MaxSeed
}

// FixedSeedSource returns predetermined seeds for testing.
//
// Thread-safety: FixedSeedSource is safe for concurrent use via internal mutex.
type FixedSeedSource struct {
	mu    sync.Mutex
	seeds []int64
	idx   int
}

// NewFixedSeedSource creates a source that returns seeds in order.
//
// Example:
//
//	src := NewFixedSeedSource(42, 43)
//	src.NextSeed() // 42
//	src.NextSeed() // 43
//	src.NextSeed() // panic: all seeds exhausted
func NewFixedSeedSource(seeds ...int64) *FixedSeedSource {
	return &FixedSeedSource{seeds: seeds}
}

// NextSeed returns the next predetermined seed.
//
// Panics if all seeds have been consumed, to catch a test that regenerates
// more often than it expects.
func (s *FixedSeedSource) NextSeed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx >= len(s.seeds) {
		panic("FixedSeedSource: all seeds exhausted")
	}
	seed := s.seeds[s.idx]
	s.idx++
	return seed
}

// DeriveSeed maps an opaque key (a learner id, an assignment slot) and a
// template id to a stable seed, so the same key always sees the same
// instance of a template.
func DeriveSeed(key, templateID string) int64 {
	h := sha256.Sum256([]byte(key + "|" + templateID))
	return int64(binary.BigEndian.Uint64(h[:8]) & MaxSeed)
}
