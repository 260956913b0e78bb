package memo

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Args captures the shape of a memoized call: positional arguments in call
// order plus named arguments. Two calls fingerprint identically iff their
// positional sequences match and their named sets match. Named-argument
// order never matters, but passing the same value positionally versus by
// name produces different fingerprints, so invalidation sites must
// reproduce the call shape of the memoized site exactly.
type Args struct {
	pos   []any
	named []namedArg
}

type namedArg struct {
	name  string
	value any
}

// NewArgs creates an Args from positional arguments.
func NewArgs(pos ...any) Args {
	return Args{pos: pos}
}

// With returns a copy of a with the named argument added.
func (a Args) With(name string, value any) Args {
	named := make([]namedArg, len(a.named), len(a.named)+1)
	copy(named, a.named)
	a.named = append(named, namedArg{name: name, value: value})
	return a
}

// Fingerprint returns the deterministic fixed-length hex digest identifying
// this call shape: positional arguments in order, then [name, value] pairs
// sorted by name, canonically JSON-encoded and hashed SHA-256.
//
// Determinism holds for map-valued arguments too: encoding/json writes map
// keys in sorted order. Arguments the encoder rejects (channels, functions,
// cyclic values) fail with ErrNotFingerprintable.
func (a Args) Fingerprint() (string, error) {
	named := make([]namedArg, len(a.named))
	copy(named, a.named)
	sort.Slice(named, func(i, j int) bool { return named[i].name < named[j].name })

	parts := make([]any, 0, len(a.pos)+len(named))
	parts = append(parts, a.pos...)
	for _, kw := range named {
		parts = append(parts, [2]any{kw.name, kw.value})
	}

	encoded, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFingerprintable, err)
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
