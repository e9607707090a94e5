// Package cache provides a small TTL cache used for slow-moving exchange
// metadata such as supported-network lists and trading status.
package cache

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time.Now so cache expiry is testable with a fake clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a keyed get-or-refresh cache. A stale or missing entry is loaded
// via the supplied loader and stored with the given TTL. Loads run outside
// the cache lock; concurrent misses on the same key may load twice, with the
// later result winning.
type TTL[K comparable, V any] struct {
	clock Clock

	mu      sync.RWMutex
	entries map[K]entry[V]
}

// NewTTL creates a TTL cache using the given clock.
func NewTTL[K comparable, V any](clock Clock) *TTL[K, V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TTL[K, V]{
		clock:   clock,
		entries: make(map[K]entry[V]),
	}
}

// GetOrRefresh returns the cached value for key if it has not expired,
// otherwise invokes loader and caches its result for ttl. A loader error is
// returned as-is and nothing is cached.
func (c *TTL[K, V]) GetOrRefresh(ctx context.Context, key K, ttl time.Duration, loader func(context.Context) (V, error)) (V, error) {
	now := c.clock.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return e.value, nil
	}

	value, err := loader(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
	return value, nil
}

// Invalidate drops the entry for key, if present.
func (c *TTL[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
