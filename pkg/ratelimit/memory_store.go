package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps failure timestamps in process memory with periodic
// cleanup of empty keys.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]time.Time

	retention   time.Duration
	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithRetention bounds how long timestamps are kept before the janitor
// discards them regardless of window queries.
func WithRetention(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// NewMemoryStore creates an in-memory store with a background janitor.
// Call Close to stop the janitor.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries:     make(map[string][]time.Time),
		retention:   time.Hour,
		stopCleanup: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()
	return s
}

func (s *MemoryStore) Record(ctx context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = append(s.entries[key], at)
	return nil
}

func (s *MemoryStore) Window(ctx context.Context, key string, cutoff time.Time) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, ok := s.entries[key]
	if !ok {
		return nil, nil
	}

	// Timestamps are appended in order, so trimming the head keeps the
	// stored slice sorted oldest first.
	idx := 0
	for idx < len(all) && !all[idx].After(cutoff) {
		idx++
	}
	trimmed := all[idx:]
	if len(trimmed) == 0 {
		delete(s.entries, key)
		return nil, nil
	}
	s.entries[key] = trimmed

	out := make([]time.Time, len(trimmed))
	copy(out, trimmed)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine. Idempotent.
func (s *MemoryStore) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.retention)
	for key, all := range s.entries {
		idx := 0
		for idx < len(all) && !all[idx].After(cutoff) {
			idx++
		}
		if idx == len(all) {
			delete(s.entries, key)
			continue
		}
		s.entries[key] = all[idx:]
	}
}
