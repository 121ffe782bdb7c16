package dataset

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hazyhaar/energle/pkg/energy"
)

// CacheKey identifies a cached shard: a year and a group identity
// (AllGroups for ungrouped shards).
type CacheKey struct {
	Year  int
	Group string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%d/%s", k.Year, k.Group)
}

// Cache memoizes normalized shards for one source selection. Entries are
// never evicted; switching source means creating a new Cache. Cached
// datasets are shared and must not be mutated.
type Cache struct {
	mu      sync.RWMutex
	entries map[CacheKey]*energy.Dataset
	flight  singleflight.Group
	loads   int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[CacheKey]*energy.Dataset)}
}

// Get returns the cached dataset for key, calling load on the first access.
// Concurrent misses for the same key share a single load, which runs
// detached from any one caller's cancellation; each caller still stops
// waiting when its own ctx ends. Failed loads are not cached.
func (c *Cache) Get(ctx context.Context, key CacheKey, load func(context.Context) (*energy.Dataset, error)) (*energy.Dataset, error) {
	if d, ok := c.Peek(key); ok {
		return d, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key.String(), func() (interface{}, error) {
		if d, ok := c.Peek(key); ok {
			return d, nil
		}
		d, err := load(shared)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = d
		c.loads++
		c.mu.Unlock()
		return d, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*energy.Dataset), nil
	}
}

// Peek returns a cached dataset without loading.
func (c *Cache) Peek(key CacheKey) (*energy.Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[key]
	return d, ok
}

// Len returns the number of cached shards.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Loads returns how many times a load function populated the cache.
func (c *Cache) Loads() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loads
}
