package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store holds per-user window counters. Incr is the only operation; it must
// atomically reset the counter when a new window has started and return the
// post-increment count, so that two simultaneous callers can never both
// observe a pre-limit count when only one should pass.
type Store interface {
	// Incr increments the counter for key within the window starting at
	// windowStart and returns the new count. A stored counter from an
	// earlier window is replaced, not added to.
	Incr(ctx context.Context, key string, windowStart time.Time) (int64, error)
}

// MemoryStore is an in-process Store. Suitable for single-instance
// deployments and tests.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
}

type counter struct {
	windowStart time.Time
	count       int64
}

// NewMemoryStore creates an in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]*counter)}
}

func (s *MemoryStore) Incr(_ context.Context, key string, windowStart time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !c.windowStart.Equal(windowStart) {
		c = &counter{windowStart: windowStart}
		s.counters[key] = c
	}
	c.count++
	return c.count, nil
}

// Prune drops counters whose window started before cutoff. Called
// periodically so idle users do not accumulate entries forever.
func (s *MemoryStore) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, c := range s.counters {
		if c.windowStart.Before(cutoff) {
			delete(s.counters, key)
			removed++
		}
	}
	return removed
}
