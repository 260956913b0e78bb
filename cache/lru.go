package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/memo/observe"
)

// OnEvictFunc is called when an entry leaves the store without an explicit
// Remove: capacity eviction or lazy expiry.
type OnEvictFunc[T any] func(key string, value T)

// LRUConfig configures an LRU store.
type LRUConfig[T any] struct {
	// TTL is the absolute lifetime of an entry. 0 means entries never expire.
	TTL time.Duration

	// MaxSize bounds the number of live entries; once exceeded the least
	// recently used entry is evicted. 0 means unbounded, which logs a
	// warning at construction since unbounded growth is a foot-gun.
	MaxSize int

	// OnEvict, if set, observes capacity and expiry evictions.
	OnEvict OnEvictFunc[T]

	// Logger receives construction warnings.
	// Default: observe.NopLogger()
	Logger observe.Logger
}

// LRU is the reference in-process Store: TTL expiry plus bounded-size
// least-recently-used eviction. Expiry is lazy - a stale entry is dropped
// when a read finds it, never by a background sweep.
type LRU[T any] struct {
	ttl     time.Duration
	maxSize int
	onEvict OnEvictFunc[T]

	mu    sync.Mutex
	items map[string]*lruEntry[T]
	head  *lruEntry[T] // most recently used
	tail  *lruEntry[T] // least recently used

	timeNow func() time.Time // for testing
}

// lruEntry is an intrusive doubly-linked list node.
type lruEntry[T any] struct {
	key    string
	val    T
	expiry time.Time // zero when the store has no TTL
	prev   *lruEntry[T]
	next   *lruEntry[T]
}

// NewLRU creates an LRU store with the given configuration.
func NewLRU[T any](config LRUConfig[T]) (*LRU[T], error) {
	if config.TTL < 0 {
		return nil, ErrNegativeTTL
	}
	if config.MaxSize < 0 {
		return nil, ErrNegativeMaxSize
	}

	logger := config.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	if config.MaxSize == 0 {
		logger.Warn(context.Background(), "lru store without max size may grow endlessly",
			observe.Field{Key: "cache.ttl", Value: config.TTL.String()})
	}

	return &LRU[T]{
		ttl:     config.TTL,
		maxSize: config.MaxSize,
		onEvict: config.OnEvict,
		items:   make(map[string]*lruEntry[T]),
		timeNow: time.Now,
	}, nil
}

// Get retrieves a value. ok=false reports a miss.
// A hit moves the key to the most-recently-used position; an expired entry
// is removed as a side effect and reported as a miss.
func (c *LRU[T]) Get(_ context.Context, key string) (T, bool, error) {
	var zero T

	c.mu.Lock()
	e, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		return zero, false, nil
	}

	if c.ttl > 0 && !c.timeNow().Before(e.expiry) {
		delete(c.items, key)
		c.removeEntry(e)
		onEvict := c.onEvict
		c.mu.Unlock()

		if onEvict != nil {
			onEvict(e.key, e.val)
		}
		return zero, false, nil
	}

	c.moveToFront(e)
	val := e.val
	c.mu.Unlock()

	return val, true, nil
}

// Set stores a value, replacing any previous entry for key and promoting it
// to the most-recently-used position. It then enforces the size bound:
// least-recently-used entries are evicted while the store is over capacity.
// A fresh insert can evict itself when MaxSize is smaller than expected;
// that is a caller error, not a special case.
func (c *LRU[T]) Set(_ context.Context, key string, value T) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	var evicted []*lruEntry[T]

	c.mu.Lock()
	if e, ok := c.items[key]; ok {
		e.val = value
		e.expiry = c.expiryFromNow()
		c.moveToFront(e)
	} else {
		e := &lruEntry[T]{key: key, val: value, expiry: c.expiryFromNow()}
		c.items[key] = e
		c.pushFront(e)
	}

	for c.maxSize > 0 && len(c.items) > c.maxSize {
		lru := c.tail
		delete(c.items, lru.key)
		c.removeEntry(lru)
		evicted = append(evicted, lru)
	}
	onEvict := c.onEvict
	c.mu.Unlock()

	if onEvict != nil {
		for _, e := range evicted {
			onEvict(e.key, e.val)
		}
	}
	return nil
}

// Remove deletes an entry, reporting whether one existed. Idempotent.
func (c *LRU[T]) Remove(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false, nil
	}
	delete(c.items, key)
	c.removeEntry(e)
	return true, nil
}

// Len returns the number of live entries, including any not yet observed
// as expired.
func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[T]) expiryFromNow() time.Time {
	if c.ttl == 0 {
		return time.Time{}
	}
	return c.timeNow().Add(c.ttl)
}

func (c *LRU[T]) pushFront(e *lruEntry[T]) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRU[T]) removeEntry(e *lruEntry[T]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (c *LRU[T]) moveToFront(e *lruEntry[T]) {
	if c.head == e {
		return
	}
	c.removeEntry(e)
	c.pushFront(e)
}

// Ensure LRU implements Store
var _ Store[any] = (*LRU[any])(nil)
