// Package dedupe keeps a bounded set of recently ingested post IDs so the
// worker can drop repeats without a round trip to the store.
package dedupe

import (
	"sync"
	"time"
)

type entry struct {
	id string
	ts time.Time
}

// Cache is a fixed-size TTL set of post IDs.
type Cache struct {
	mu       sync.Mutex
	items    map[string]time.Time
	order    []entry
	capacity int
	ttl      time.Duration
}

// NewCache creates a cache with the provided capacity and ttl.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		items:    make(map[string]time.Time, capacity),
		order:    make([]entry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

// IsSeen reports whether the post ID was observed inside the ttl window.
// It does not record the ID; use MarkSeen for that.
func (c *Cache) IsSeen(id string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ts, ok := c.items[id]; ok {
		if now.Sub(ts) <= c.ttl {
			return true
		}
	}
	return false
}

// MarkSeen records that a post ID has been processed.
func (c *Cache) MarkSeen(id string) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[id] = now
	c.order = append(c.order, entry{id: id, ts: now})
	c.compact(now)
}

func (c *Cache) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.items) > c.capacity || c.order[0].ts.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]

		if ts, ok := c.items[oldest.id]; ok {
			if ts == oldest.ts {
				delete(c.items, oldest.id)
			}
		}
	}
}
