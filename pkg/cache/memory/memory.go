// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/leseb/beebot-mcp/pkg/cache"
)

func init() {
	cache.Providers.Register("memory", func(_ context.Context, _ map[string]string) (cache.Cache, error) {
		return New(), nil
	})
}

// compile-time check
var _ cache.Cache = (*Cache)(nil)

type item struct {
	value     []byte
	expiresAt time.Time
}

// Cache is an in-process TTL cache safe for concurrent access.
type Cache struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{items: make(map[string]item), now: time.Now}
}

// Get returns a live value; expired entries are evicted on access.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, cache.ErrMiss
	}
	if !c.now().Before(it.expiresAt) {
		c.mu.Lock()
		if cur, still := c.items[key]; still && cur.expiresAt.Equal(it.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, cache.ErrMiss
	}
	return append([]byte(nil), it.value...), nil
}

// Set stores a copy of value for ttl.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item{value: append([]byte(nil), value...), expiresAt: c.now().Add(ttl)}
	return nil
}

// Close drops every entry.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item)
	return nil
}
