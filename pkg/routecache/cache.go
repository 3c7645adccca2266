// Package routecache caches decoded route-node tiles (spec §4.8's "tiles
// are read in LRU-cached blocks"): an optional Redis-backed cache for a
// multi-instance server, falling back to an in-process LRU so the router
// works standalone with no external dependency.
//
// Grounded on SoySergo-location_microservice/internal/repository/cache
// (Redis client wrapper + key-scoped Get/Set/Delete repository), adapted
// from "arbitrary []byte blobs keyed by string" to "one route-node tile's
// encoded node records, keyed by (database, TileKey)".
package routecache

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/mapstack/osmindex/pkg/routegraph"
)

// TileCache resolves a tile's encoded node-record bytes by database and
// TileKey, or reports a miss.
type TileCache interface {
	GetTile(ctx context.Context, dbID string, key routegraph.TileKey) ([]byte, bool, error)
	SetTile(ctx context.Context, dbID string, key routegraph.TileKey, data []byte) error
}

func tileCacheKey(dbID string, key routegraph.TileKey) string {
	return fmt.Sprintf("tile:%s:%d:%d", dbID, key.X, key.Y)
}

// LRU is a fixed-capacity in-process tile cache: plain map plus a
// doubly-linked recency list, since the pack supplies no third-party
// in-process LRU library for this (see DESIGN.md).
type LRU struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used
}

type lruEntry struct {
	key  string
	data []byte
}

// NewLRU builds an in-process cache holding at most capacity tiles.
// capacity <= 0 disables eviction bookkeeping and the cache never stores
// anything, turning every lookup into a miss.
func NewLRU(capacity int) *LRU {
	return &LRU{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *LRU) GetTile(_ context.Context, dbID string, key routegraph.TileKey) ([]byte, bool, error) {
	if c.capacity <= 0 {
		return nil, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	k := tileCacheKey(dbID, key)
	el, ok := c.items[k]
	if !ok {
		return nil, false, nil
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry).data, true, nil
}

func (c *LRU) SetTile(_ context.Context, dbID string, key routegraph.TileKey, data []byte) error {
	if c.capacity <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	k := tileCacheKey(dbID, key)
	if el, ok := c.items[k]; ok {
		el.Value.(*lruEntry).data = data
		c.order.MoveToFront(el)
		return nil
	}

	el := c.order.PushFront(&lruEntry{key: k, data: data})
	c.items[k] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry).key)
	}
	return nil
}

// Len reports the current number of cached tiles, for tests.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
