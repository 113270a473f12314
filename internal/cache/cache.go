// Package cache is a bounded TTL cache for catalog responses and derived media.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// DefaultMaxEntries bounds a cache when no size is configured.
const DefaultMaxEntries = 2048

// Cache holds up to a fixed number of values, each for at most ttl.
// A zero ttl disables caching entirely.
type Cache[V any] struct {
	inner *ristretto.Cache[string, V]
	ttl   time.Duration
}

// New creates a cache holding up to maxEntries values.
func New[V any](maxEntries int, ttl time.Duration) (*Cache[V], error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	inner, err := ristretto.NewCache(&ristretto.Config[string, V]{
		// Ristretto recommends ~10x counters per expected item.
		NumCounters: int64(maxEntries) * 10,
		MaxCost:     int64(maxEntries),
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Cache[V]{inner: inner, ttl: ttl}, nil
}

// Get returns the cached value for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	if c == nil || c.ttl <= 0 {
		var zero V
		return zero, false
	}
	return c.inner.Get(key)
}

// Set stores value under key. Every value costs 1.
// Writes are applied asynchronously; call Wait to observe them immediately.
func (c *Cache[V]) Set(key string, value V) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.inner.SetWithTTL(key, value, 1, c.ttl)
}

// Wait blocks until buffered writes are applied.
func (c *Cache[V]) Wait() {
	if c == nil {
		return
	}
	c.inner.Wait()
}

// Clear drops every value.
func (c *Cache[V]) Clear() {
	if c == nil {
		return
	}
	c.inner.Clear()
}

// Close stops the cache's background goroutines.
func (c *Cache[V]) Close() {
	if c == nil {
		return
	}
	c.inner.Close()
}
