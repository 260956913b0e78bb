// Package cache provides pluggable value stores for memoization.
//
// It provides a generic Store interface with an in-process LRU
// implementation supporting TTL expiry and bounded-size eviction.
package cache
