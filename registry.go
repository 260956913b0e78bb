package memo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonwraymond/memo/lock"
	"github.com/jonwraymond/memo/observe"
)

// remover is the type-erased slice of a cache store the invalidation path
// needs. Remove does not mention the value type, so stores of any value
// type satisfy it behind one registry.
type remover interface {
	Remove(ctx context.Context, key string) (bool, error)
}

type registration struct {
	store remover
	guard *lock.Lock
}

// Registry maps names to (store, lock) pairs so mutation paths can
// invalidate entries owned by memoizers they hold no reference to.
// Construct one at process startup and pass it explicitly; there is no
// process-global registry.
//
// A name is bound at most once for the registry's lifetime. The registry
// holds the pair for lookup only - the memoizer remains the owner of its
// store and lock.
type Registry struct {
	mu      sync.Mutex
	entries map[string]registration
	logger  observe.Logger
}

// NewRegistry creates an empty registry. A nil logger discards warnings.
func NewRegistry(logger observe.Logger) *Registry {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Registry{
		entries: make(map[string]registration),
		logger:  logger,
	}
}

func (r *Registry) add(name string, reg registration) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	r.entries[name] = reg
	return nil
}

func (r *Registry) lookup(name string) (registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.entries[name]
	return reg, ok
}

// Names returns registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invalidate evicts the entry for args under the named memoizer and holds
// that key's lock for the full duration of fn, which should perform the
// mutation that makes the cached value stale. Holding the lock until fn
// returns prevents a concurrent memoized call from re-populating the cache
// with the old value before the mutation commits. A nil fn evicts and
// releases immediately.
//
// args must reproduce the positional/named shape of the memoized call site
// exactly. A mismatched shape evicts a key nobody reads, which behaves as a
// silent no-op.
//
// An unknown name logs a warning and runs fn without eviction or locking.
//
// fn must not invoke the memoizer registered under name: the lock is not
// reentrant and the flow would stall until its wait expired.
func (r *Registry) Invalidate(ctx context.Context, name string, args Args, fn func(ctx context.Context) error) error {
	if fn == nil {
		fn = func(context.Context) error { return nil }
	}

	reg, ok := r.lookup(name)
	if !ok {
		r.logger.Warn(ctx, "invalidate: name not registered",
			observe.Field{Key: "memo.name", Value: name})
		return fn(ctx)
	}

	key, err := args.Fingerprint()
	if err != nil {
		return err
	}

	return reg.guard.Do(ctx, key, func(ctx context.Context) error {
		if _, err := reg.store.Remove(ctx, key); err != nil {
			return err
		}
		return fn(ctx)
	})
}
