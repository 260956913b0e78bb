// Package lock provides per-key bounded-wait mutual exclusion over a
// pluggable sentinel store.
//
// It provides a SentinelStore interface with a local in-process
// implementation, and a Lock that polls for a contested key until a
// configured wait is exceeded.
package lock
