package testutil

import (
	"io"
	"log/slog"
	"sync"
)

// SequentialSeedSource hands out consecutive seeds for tests.
//
// Unlike engine.FixedSeedSource it never runs out, and it can be reset so the
// same scenario runs repeatedly with identical seeds.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialSeedSource struct {
	mu    sync.Mutex
	start int64
	next  int64
}

// NewSequentialSeedSource creates a source whose first seed is start.
func NewSequentialSeedSource(start int64) *SequentialSeedSource {
	return &SequentialSeedSource{start: start, next: start}
}

// NextSeed returns the next seed. Implements engine.SeedSource.
func (s *SequentialSeedSource) NextSeed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seed := s.next
	s.next++
	return seed
}

// Reset rewinds the source to its first seed.
func (s *SequentialSeedSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = s.start
}

// ConstantSeedSource returns the same seed every time.
//
// Thread-safety: ConstantSeedSource is stateless and safe for concurrent use.
type ConstantSeedSource int64

// NextSeed returns the constant seed. Implements engine.SeedSource.
func (c ConstantSeedSource) NextSeed() int64 {
	return int64(c)
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
