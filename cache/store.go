package cache

import (
	"context"
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache stores.
var (
	ErrInvalidKey      = errors.New("cache: key is invalid")
	ErrKeyTooLong      = errors.New("cache: key exceeds max length")
	ErrNegativeTTL     = errors.New("cache: ttl must not be negative")
	ErrNegativeMaxSize = errors.New("cache: max size must not be negative")
)

// Store is the interface for memoization value stores.
//
// Contract:
//   - Miss: Get reports ok=false on miss. A stored zero value is a hit;
//     the ok flag is the only miss marker.
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: the local implementation never errors; remote implementations
//     surface transport failures as errors, never as misses.
type Store[T any] interface {
	// Get retrieves a value. ok=false reports a miss.
	Get(ctx context.Context, key string) (value T, ok bool, err error)

	// Set stores a value, replacing any previous entry for key.
	Set(ctx context.Context, key string, value T) error

	// Remove deletes an entry, reporting whether one existed. Idempotent.
	Remove(ctx context.Context, key string) (bool, error)
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
