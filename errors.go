package memo

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/memo/lock"
)

// Sentinel errors for memoization.
var (
	// ErrStampede reports that a computation for the same fingerprint was
	// already in flight and the configured wait was exceeded. The wrapped
	// operation is guaranteed not to have run. It wraps lock.ErrLocked so
	// transport layers can map the whole contention family to a "too busy"
	// response.
	ErrStampede = fmt.Errorf("memo: stampede: %w", lock.ErrLocked)

	// ErrDuplicateName reports a name registered twice. A configuration
	// error - construction fails rather than overwriting the first binding.
	ErrDuplicateName = errors.New("memo: name already registered")

	// ErrNotFingerprintable reports arguments that cannot be canonically
	// encoded. A caller programming error, never retried.
	ErrNotFingerprintable = errors.New("memo: arguments are not fingerprintable")

	// ErrNilStore indicates a nil Store was provided.
	ErrNilStore = errors.New("memo: store is nil")

	// ErrNilLock indicates a nil Lock was provided.
	ErrNilLock = errors.New("memo: lock is nil")

	// ErrNilRegistry indicates WithName was given a nil Registry.
	ErrNilRegistry = errors.New("memo: registry is nil")

	// ErrEmptyName indicates WithName was given a blank name.
	ErrEmptyName = errors.New("memo: name is empty")
)
