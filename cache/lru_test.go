package cache

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/memo/observe"
)

func mustLRU[T any](t *testing.T, config LRUConfig[T]) *LRU[T] {
	t.Helper()
	c, err := NewLRU(config)
	if err != nil {
		t.Fatalf("NewLRU failed: %v", err)
	}
	return c
}

func TestNewLRU_Validation(t *testing.T) {
	if _, err := NewLRU(LRUConfig[string]{TTL: -time.Second}); !errors.Is(err, ErrNegativeTTL) {
		t.Errorf("negative TTL error = %v, want ErrNegativeTTL", err)
	}
	if _, err := NewLRU(LRUConfig[string]{MaxSize: -1}); !errors.Is(err, ErrNegativeMaxSize) {
		t.Errorf("negative max size error = %v, want ErrNegativeMaxSize", err)
	}
}

func TestNewLRU_UnboundedWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := observe.NewLoggerWithWriter("warn", &buf)

	mustLRU(t, LRUConfig[string]{MaxSize: 0, Logger: logger})

	if !strings.Contains(buf.String(), "grow endlessly") {
		t.Errorf("unbounded store should warn at construction, log output: %q", buf.String())
	}

	buf.Reset()
	mustLRU(t, LRUConfig[string]{MaxSize: 16, Logger: logger})
	if buf.Len() != 0 {
		t.Errorf("bounded store should not warn, log output: %q", buf.String())
	}
}

func TestLRU_GetSetRemove(t *testing.T) {
	c := mustLRU(t, LRUConfig[string]{MaxSize: 8})
	ctx := context.Background()

	// Miss on empty store
	_, ok, err := c.Get(ctx, "absent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Get on empty store should miss")
	}

	if err := c.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || got != "v" {
		t.Errorf("Get = (%q, %v), want (%q, true)", got, ok, "v")
	}

	// Replace keeps a single entry
	if err := c.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, _ = c.Get(ctx, "k")
	if !ok || got != "v2" {
		t.Errorf("Get after replace = (%q, %v), want (%q, true)", got, ok, "v2")
	}
	if c.Len() != 1 {
		t.Errorf("Len after replace = %d, want 1", c.Len())
	}

	removed, err := c.Remove(ctx, "k")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Error("Remove should report an entry existed")
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Get after Remove should miss")
	}

	// Remove is idempotent
	removed, err = c.Remove(ctx, "k")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed {
		t.Error("Remove on absent key should report false")
	}
}

func TestLRU_ZeroValueIsAHit(t *testing.T) {
	c := mustLRU(t, LRUConfig[string]{MaxSize: 8})
	ctx := context.Background()

	if err := c.Set(ctx, "empty", ""); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := c.Get(ctx, "empty")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Error("a stored zero value must be a hit, not a miss")
	}
	if got != "" {
		t.Errorf("Get = %q, want empty string", got)
	}
}

func TestLRU_InvalidKey(t *testing.T) {
	c := mustLRU(t, LRUConfig[string]{MaxSize: 8})
	ctx := context.Background()

	if err := c.Set(ctx, "", "v"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Set with empty key error = %v, want ErrInvalidKey", err)
	}
	if err := c.Set(ctx, strings.Repeat("x", MaxKeyLength+1), "v"); !errors.Is(err, ErrKeyTooLong) {
		t.Errorf("Set with oversized key error = %v, want ErrKeyTooLong", err)
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := mustLRU(t, LRUConfig[string]{MaxSize: 2})
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, key, key); err != nil {
			t.Fatalf("Set(%q) failed: %v", key, err)
		}
	}

	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Error("a should have been evicted as least recently used")
	}
	if _, ok, _ := c.Get(ctx, "b"); !ok {
		t.Error("b should still be cached")
	}
	if _, ok, _ := c.Get(ctx, "c"); !ok {
		t.Error("c should still be cached")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestLRU_GetPromotesToMRU(t *testing.T) {
	c := mustLRU(t, LRUConfig[string]{MaxSize: 2})
	ctx := context.Background()

	_ = c.Set(ctx, "a", "a")
	_ = c.Set(ctx, "b", "b")

	// A hit on a makes b the eviction candidate.
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Fatal("a should be cached")
	}
	_ = c.Set(ctx, "c", "c")

	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Error("a was promoted and should survive")
	}
	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Error("b should have been evicted")
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := mustLRU(t, LRUConfig[string]{TTL: time.Minute, MaxSize: 8})
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	c.timeNow = func() time.Time { return now }

	if err := c.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Still fresh just before the deadline
	now = now.Add(time.Minute - time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Error("entry should be a hit before its TTL elapses")
	}

	// Stale at exactly the deadline, removed as a side effect
	now = now.Add(time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("entry should be a miss once its TTL has elapsed")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed lazily, Len = %d", c.Len())
	}
}

func TestLRU_ZeroTTLNeverExpires(t *testing.T) {
	c := mustLRU(t, LRUConfig[string]{MaxSize: 8})
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	c.timeNow = func() time.Time { return now }

	_ = c.Set(ctx, "k", "v")
	now = now.Add(1000 * time.Hour)

	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Error("entries in a TTL-less store must never expire")
	}
}

func TestLRU_SetRefreshesExpiry(t *testing.T) {
	c := mustLRU(t, LRUConfig[string]{TTL: time.Minute, MaxSize: 8})
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	c.timeNow = func() time.Time { return now }

	_ = c.Set(ctx, "k", "v1")
	now = now.Add(30 * time.Second)
	_ = c.Set(ctx, "k", "v2")
	now = now.Add(45 * time.Second)

	// 75s after the first write but only 45s after the replace.
	got, ok, _ := c.Get(ctx, "k")
	if !ok || got != "v2" {
		t.Errorf("Get = (%q, %v), want (%q, true): replace should reset expiry", got, ok, "v2")
	}
}

func TestLRU_OnEvict(t *testing.T) {
	var mu sync.Mutex
	evicted := make(map[string]int)

	c := mustLRU(t, LRUConfig[string]{
		TTL:     time.Minute,
		MaxSize: 2,
		OnEvict: func(key string, _ string) {
			mu.Lock()
			evicted[key]++
			mu.Unlock()
		},
	})
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	c.timeNow = func() time.Time { return now }

	// Capacity eviction
	_ = c.Set(ctx, "a", "a")
	_ = c.Set(ctx, "b", "b")
	_ = c.Set(ctx, "c", "c")
	if evicted["a"] != 1 {
		t.Errorf("capacity eviction of a not observed, evicted = %v", evicted)
	}

	// Expiry eviction
	now = now.Add(2 * time.Minute)
	_, _, _ = c.Get(ctx, "c")
	if evicted["c"] != 1 {
		t.Errorf("expiry eviction of c not observed, evicted = %v", evicted)
	}

	// Explicit Remove is not an eviction
	_, _ = c.Remove(ctx, "b")
	if evicted["b"] != 0 {
		t.Errorf("explicit Remove must not be reported as eviction, evicted = %v", evicted)
	}
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := mustLRU(t, LRUConfig[int]{MaxSize: 32})
	ctx := context.Background()

	const numGoroutines = 50
	const opsPerGoroutine = 500

	keys := []string{"a", "b", "c", "d", "e"}

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				key := keys[(id+j)%len(keys)]
				switch j % 3 {
				case 0:
					_ = c.Set(ctx, key, j)
				case 1:
					_, _, _ = c.Get(ctx, key)
				case 2:
					_, _ = c.Remove(ctx, key)
				}
			}
		}(i)
	}
	wg.Wait()

	// The map and the recency list must still agree.
	n := 0
	for e := c.head; e != nil; e = e.next {
		if _, ok := c.items[e.key]; !ok {
			t.Errorf("list key %q missing from map", e.key)
		}
		n++
	}
	if n != len(c.items) {
		t.Errorf("list has %d entries, map has %d", n, len(c.items))
	}
}
