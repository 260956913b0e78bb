package lock

import (
	"context"
	"errors"
	"time"
)

// Config configures the lock.
type Config struct {
	// MaxWait is the maximum time to wait for a contested key.
	// Default: 0 (try-lock, fail immediately on contention)
	MaxWait time.Duration

	// Pulse is the polling interval while waiting.
	// Default: 100ms
	Pulse time.Duration

	// TimeoutErr is the error kind reported when MaxWait is exceeded.
	// It must wrap ErrLocked.
	// Default: ErrLockTimeout
	TimeoutErr error
}

// Lock is a per-key bounded-wait mutex over a SentinelStore.
//
// Contract:
//   - Exclusion: for a given key at most one critical section runs at a time,
//     provided the store's TryAdd is atomic.
//   - Fairness: none. Whichever waiter next observes the key free wins.
//   - Release: the sentinel is removed on every exit path, including panics
//     and context cancellation.
type Lock struct {
	sentinels SentinelStore
	config    Config
}

// New creates a lock over the given sentinel store.
func New(sentinels SentinelStore, config Config) (*Lock, error) {
	if sentinels == nil {
		return nil, ErrNilSentinels
	}

	// Apply defaults
	if config.Pulse == 0 {
		config.Pulse = 100 * time.Millisecond
	}
	if config.Pulse < 0 {
		return nil, ErrInvalidPulse
	}
	if config.TimeoutErr == nil {
		config.TimeoutErr = ErrLockTimeout
	}
	if !errors.Is(config.TimeoutErr, ErrLocked) {
		return nil, ErrInvalidTimeoutKind
	}

	return &Lock{
		sentinels: sentinels,
		config:    config,
	}, nil
}

// Acquire acquires the lock for key, polling every Pulse until the key is
// free or MaxWait elapses. With the default MaxWait of 0 a single attempt
// is made and contention fails immediately, with no sleeping.
//
// On timeout a *TimeoutError wrapping the configured kind is returned and
// the lock is not held. Every successful Acquire must be paired with
// exactly one Release for the same key.
func (l *Lock) Acquire(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	var elapsed time.Duration
	for {
		free, err := l.sentinels.TryAdd(ctx, key)
		if err != nil {
			return err
		}
		if free {
			return nil
		}

		if elapsed >= l.config.MaxWait {
			return &TimeoutError{Key: key, Wait: l.config.MaxWait, Kind: l.config.TimeoutErr}
		}

		timer := time.NewTimer(l.config.Pulse)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		elapsed += l.config.Pulse
	}
}

// Release releases the lock for key.
//
// It deliberately ignores ctx cancellation: a cancelled critical section
// must still give the key back.
func (l *Lock) Release(ctx context.Context, key string) error {
	return l.sentinels.Remove(context.WithoutCancel(ctx), key)
}

// Do runs fn while holding the lock for key.
//
// The sentinel is removed on every exit path: normal return, error from fn,
// panic, and context cancellation.
func (l *Lock) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := l.Acquire(ctx, key); err != nil {
		return err
	}
	defer func() {
		_ = l.Release(ctx, key)
	}()

	return fn(ctx)
}
