package memo

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/memo/cache"
	"github.com/jonwraymond/memo/lock"
	"github.com/jonwraymond/memo/observe"
)

// tracerName identifies spans emitted by this package.
const tracerName = "github.com/jonwraymond/memo"

// Func is the operation a Memoizer wraps.
type Func[T any] func(ctx context.Context) (T, error)

// config carries the non-generic construction options.
type config struct {
	name     string
	registry *Registry
	logger   observe.Logger
	metrics  observe.Metrics
	tracer   trace.Tracer
}

// Option configures a Memoizer.
type Option func(*config) error

// WithName registers the memoizer's (store, lock) pair under name so
// mutation paths can reach it through Registry.Invalidate. The name must be
// unique for the registry's lifetime; a duplicate fails construction.
func WithName(registry *Registry, name string) Option {
	return func(c *config) error {
		if registry == nil {
			return ErrNilRegistry
		}
		c.registry = registry
		c.name = name
		return nil
	}
}

// WithLogger sets the logger. Default: observe.NopLogger().
func WithLogger(logger observe.Logger) Option {
	return func(c *config) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithMetrics sets the metrics sink. Default: observe.NopMetrics().
func WithMetrics(metrics observe.Metrics) Option {
	return func(c *config) error {
		if metrics != nil {
			c.metrics = metrics
		}
		return nil
	}
}

// WithTracer sets the tracer. Default: a noop tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) error {
		if tracer != nil {
			c.tracer = tracer
		}
		return nil
	}
}

// Memoizer caches an operation's results under the fingerprint of its
// arguments, with a per-key lock bounding concurrent work.
//
// Contract:
//   - At most one wrapped operation runs concurrently per fingerprint.
//     Callers arriving while one is in flight wait per the lock's policy
//     and read the fresh value, or fail with ErrStampede without ever
//     running the operation.
//   - Errors from the operation propagate unchanged and are never cached.
//   - Ownership: the Memoizer owns its store and lock; nothing else should
//     mutate them directly.
type Memoizer[T any] struct {
	store   cache.Store[T]
	guard   *lock.Lock
	name    string
	logger  observe.Logger
	metrics observe.Metrics
	tracer  trace.Tracer
}

// New creates a Memoizer over the given store and lock.
func New[T any](store cache.Store[T], guard *lock.Lock, opts ...Option) (*Memoizer[T], error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if guard == nil {
		return nil, ErrNilLock
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return newMemoizer(store, guard, cfg)
}

func defaultConfig() config {
	return config{
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
		tracer:  noop.NewTracerProvider().Tracer(tracerName),
	}
}

func newMemoizer[T any](store cache.Store[T], guard *lock.Lock, cfg config) (*Memoizer[T], error) {
	if cfg.registry != nil {
		if err := cfg.registry.add(cfg.name, registration{store: store, guard: guard}); err != nil {
			return nil, err
		}
	}

	return &Memoizer[T]{
		store:   store,
		guard:   guard,
		name:    cfg.name,
		logger:  cfg.logger,
		metrics: cfg.metrics,
		tracer:  cfg.tracer,
	}, nil
}

// Name returns the registered name, or "" for an anonymous memoizer.
func (m *Memoizer[T]) Name() string { return m.name }

// Do returns the memoized result for args, computing it with fn on a miss.
//
// The flow per call: fingerprint the arguments, acquire the key's lock,
// read the store. On a hit the cached value is returned and fn never runs.
// On a miss fn runs, its result is stored, and the value is returned. The
// lock is released on every path.
//
// A lock timeout is reported as ErrStampede (wrapped in a *lock.TimeoutError
// carrying the key) regardless of the guard's configured timeout kind.
func (m *Memoizer[T]) Do(ctx context.Context, args Args, fn Func[T]) (T, error) {
	var zero T

	key, err := args.Fingerprint()
	if err != nil {
		return zero, err
	}

	ctx, span := m.tracer.Start(ctx, "memo.do", trace.WithAttributes(
		attribute.String("memo.name", m.name),
		attribute.String("memo.key", key),
	))
	defer span.End()

	start := time.Now()
	var value T
	hit := false

	err = m.guard.Do(ctx, key, func(ctx context.Context) error {
		var err error
		value, hit, err = m.store.Get(ctx, key)
		if err != nil {
			return err
		}
		if hit {
			return nil
		}

		value, err = fn(ctx)
		if err != nil {
			return err
		}
		return m.store.Set(ctx, key, value)
	})

	span.SetAttributes(attribute.Bool("memo.hit", hit))

	var timeout *lock.TimeoutError
	if errors.As(err, &timeout) {
		if !errors.Is(err, ErrStampede) {
			err = &lock.TimeoutError{Key: timeout.Key, Wait: timeout.Wait, Kind: ErrStampede}
		}
		m.metrics.RecordStampede(ctx, m.name)
		m.logger.Warn(ctx, "memoized computation already in flight",
			observe.Field{Key: "memo.name", Value: m.name},
			observe.Field{Key: "memo.key", Value: timeout.Key},
			observe.Field{Key: "memo.wait", Value: timeout.Wait.String()})
	}
	m.metrics.RecordLookup(ctx, m.name, hit, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return zero, err
	}
	return value, nil
}
