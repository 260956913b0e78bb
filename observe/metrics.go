package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records memoization events.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly; recording is best-effort.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records one memoized call: hit or miss, wall time of the
	// whole guarded section, and the terminal error if any.
	RecordLookup(ctx context.Context, name string, hit bool, duration time.Duration, err error)

	// RecordStampede records a caller turned away because a computation for
	// the same key was already in flight.
	RecordStampede(ctx context.Context, name string)

	// RecordEviction records an entry leaving a store by capacity or expiry.
	RecordEviction(ctx context.Context, name string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	lookupCount   metric.Int64Counter
	errorCount    metric.Int64Counter
	stampedeCount metric.Int64Counter
	evictionCount metric.Int64Counter
	durationHist  metric.Float64Histogram
}

// NewMetrics creates a Metrics instance recording through the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	lookupCount, err := meter.Int64Counter(
		"memo.lookups.total",
		metric.WithDescription("Total number of memoized lookups"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"memo.lookups.errors",
		metric.WithDescription("Total number of memoized lookups that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	stampedeCount, err := meter.Int64Counter(
		"memo.stampedes.total",
		metric.WithDescription("Total number of callers rejected while a computation was in flight"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	evictionCount, err := meter.Int64Counter(
		"memo.evictions.total",
		metric.WithDescription("Total number of entries evicted by capacity or expiry"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"memo.lookup.duration_ms",
		metric.WithDescription("Memoized lookup duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		lookupCount:   lookupCount,
		errorCount:    errorCount,
		stampedeCount: stampedeCount,
		evictionCount: evictionCount,
		durationHist:  durationHist,
	}, nil
}

func (m *metricsImpl) RecordLookup(ctx context.Context, name string, hit bool, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("memo.name", name),
		attribute.Bool("memo.hit", hit),
	}
	opt := metric.WithAttributes(attrs...)

	m.lookupCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordStampede(ctx context.Context, name string) {
	m.stampedeCount.Add(ctx, 1, metric.WithAttributes(attribute.String("memo.name", name)))
}

func (m *metricsImpl) RecordEviction(ctx context.Context, name string) {
	m.evictionCount.Add(ctx, 1, metric.WithAttributes(attribute.String("memo.name", name)))
}

// nopMetrics is a metrics implementation that does nothing.
type nopMetrics struct{}

func (nopMetrics) RecordLookup(context.Context, string, bool, time.Duration, error) {}
func (nopMetrics) RecordStampede(context.Context, string)                           {}
func (nopMetrics) RecordEviction(context.Context, string)                           {}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics {
	return nopMetrics{}
}
