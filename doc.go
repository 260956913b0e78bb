// Package memo provides memoization with stampede control: an operation's
// result is cached under a deterministic fingerprint of its arguments, and
// a per-key lock guarantees that at most one computation for a given
// fingerprint is in flight at a time.
//
// A Registry binds named memoizers to their (store, lock) pairs so that
// mutation paths can invalidate entries through Registry.Invalidate, which
// evicts a key and holds its lock until the caller's mutation commits.
package memo
