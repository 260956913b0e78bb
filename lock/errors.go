package lock

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for lock operations.
var (
	// ErrLocked is the root of the contention error family. Every timeout
	// kind supplied via Config.TimeoutErr must wrap it.
	ErrLocked = errors.New("lock: key is locked")

	// ErrLockTimeout is the default timeout kind.
	ErrLockTimeout = fmt.Errorf("lock: wait exceeded: %w", ErrLocked)

	// ErrNilSentinels indicates a nil SentinelStore was provided.
	ErrNilSentinels = errors.New("lock: sentinel store is nil")

	// ErrInvalidPulse indicates a negative polling interval.
	ErrInvalidPulse = errors.New("lock: pulse must be positive")

	// ErrInvalidTimeoutKind indicates Config.TimeoutErr does not wrap ErrLocked.
	ErrInvalidTimeoutKind = errors.New("lock: timeout error must wrap ErrLocked")

	// ErrEmptyKey indicates an empty lock key.
	ErrEmptyKey = errors.New("lock: key is empty")
)

// TimeoutError is returned when a key could not be acquired within
// Config.MaxWait. It carries the contested key and wraps the configured
// timeout kind, so callers can match the kind with errors.Is or recover
// the key with errors.As.
type TimeoutError struct {
	// Key is the contested lock key.
	Key string

	// Wait is how long the caller was prepared to wait.
	Wait time.Duration

	// Kind is the configured timeout kind. It wraps ErrLocked.
	Kind error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v: key %q not acquired after %v", e.Kind, e.Key, e.Wait)
}

func (e *TimeoutError) Unwrap() error { return e.Kind }
