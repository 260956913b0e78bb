package memo

import (
	"context"
	"time"

	"github.com/jonwraymond/memo/cache"
	"github.com/jonwraymond/memo/lock"
)

// Defaults applied by NewLocal.
const (
	DefaultMaxSize = 128
	DefaultMaxWait = time.Second
	DefaultPulse   = 50 * time.Millisecond
)

// LocalConfig configures a process-RAM memoizer: an LRU store guarded by a
// local-sentinel lock whose timeout kind is preset to ErrStampede.
//
// Good for small frequently-used datasets (high TTL) or volatile
// stampede-likely values (low TTL).
type LocalConfig struct {
	// TTL is the entry lifetime. 0 means entries never expire.
	TTL time.Duration

	// MaxSize bounds the LRU store.
	// Default: 128. Negative means unbounded, which logs a warning.
	MaxSize int

	// MaxWait is how long callers wait for an in-flight computation.
	// Default: 1s. Negative means try-lock - contention fails immediately
	// with ErrStampede.
	MaxWait time.Duration

	// Pulse is the lock's polling interval.
	// Default: 50ms
	Pulse time.Duration
}

// NewLocal composes an LRU store and a local lock into a Memoizer.
// Registration, logging, metrics, and tracing are supplied through the
// usual options; evictions from the underlying store are reported to the
// configured metrics sink.
func NewLocal[T any](config LocalConfig, opts ...Option) (*Memoizer[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	maxSize := config.MaxSize
	switch {
	case maxSize == 0:
		maxSize = DefaultMaxSize
	case maxSize < 0:
		maxSize = 0 // unbounded, the store warns
	}

	maxWait := config.MaxWait
	switch {
	case maxWait == 0:
		maxWait = DefaultMaxWait
	case maxWait < 0:
		maxWait = 0 // try-lock
	}

	pulse := config.Pulse
	if pulse == 0 {
		pulse = DefaultPulse
	}

	name := cfg.name
	metrics := cfg.metrics
	store, err := cache.NewLRU(cache.LRUConfig[T]{
		TTL:     config.TTL,
		MaxSize: maxSize,
		Logger:  cfg.logger,
		OnEvict: func(string, T) {
			metrics.RecordEviction(context.Background(), name)
		},
	})
	if err != nil {
		return nil, err
	}

	guard, err := lock.New(lock.NewSentinels(), lock.Config{
		MaxWait:    maxWait,
		Pulse:      pulse,
		TimeoutErr: ErrStampede,
	})
	if err != nil {
		return nil, err
	}

	return newMemoizer(store, guard, cfg)
}
