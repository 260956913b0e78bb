// Package observe provides the telemetry surface for memoization:
// a minimal structured logging interface with a JSON implementation,
// and OpenTelemetry-backed metrics for cache lookups, stampedes, and
// evictions.
package observe
