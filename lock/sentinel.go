package lock

import (
	"context"
	"sync"
)

// SentinelStore tracks which keys are currently held.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Atomicity: TryAdd must be an atomic insert-if-absent. A separate
//     exists/add pair cannot preserve mutual exclusion under parallelism.
//   - Errors: the local implementation never errors; remote implementations
//     surface transport failures as errors.
type SentinelStore interface {
	// TryAdd inserts the key, reporting whether it was absent.
	TryAdd(ctx context.Context, key string) (bool, error)

	// Exists reports whether the key is currently held.
	Exists(ctx context.Context, key string) (bool, error)

	// Remove releases the key. Idempotent - removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Sentinels is the local in-process SentinelStore.
type Sentinels struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewSentinels creates an empty local sentinel store.
func NewSentinels() *Sentinels {
	return &Sentinels{keys: make(map[string]struct{})}
}

// TryAdd inserts the key, reporting whether it was absent.
func (s *Sentinels) TryAdd(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.keys[key]; held {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

// Exists reports whether the key is currently held.
func (s *Sentinels) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, held := s.keys[key]
	return held, nil
}

// Remove releases the key. Idempotent.
func (s *Sentinels) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, key)
	return nil
}

// Ensure Sentinels implements SentinelStore
var _ SentinelStore = (*Sentinels)(nil)
