package routing

import (
	"container/list"
	"sync"
	"time"

	"roteiro-chatbot/pkg"
)

// Cache is a TTL and capacity bounded store of routing analyses keyed by
// normalized question.  Expired entries are evicted lazily on access and the
// least recently used entry is dropped when the cache overflows, so memory
// stays bounded under sustained distinct-query load.  The clock is
// injectable so tests control expiry without sleeping.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]*list.Element
	order    *list.List // front is most recently used
}

type cacheEntry struct {
	key       string
	value     *pkg.RoutingAnalysis
	createdAt time.Time
}

// NewCache constructs a cache.  A nil clock defaults to time.Now; capacity
// and ttl must be positive.
func NewCache(capacity int, ttl time.Duration, clock func() time.Time) *Cache {
	if clock == nil {
		clock = time.Now
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		now:      clock,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Get returns the cached analysis for a key when present and unexpired.
func (c *Cache) Get(key string) (*pkg.RoutingAnalysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.now().Sub(entry.createdAt) >= c.ttl {
		c.removeLocked(el)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.value, true
}

// Put stores an analysis under a key, refreshing the entry's TTL if the key
// already exists and evicting the oldest entry on overflow.
func (c *Cache) Put(key string, value *pkg.RoutingAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.value = value
		entry.createdAt = c.now()
		c.order.MoveToFront(el)
		return
	}
	c.pruneExpiredLocked()
	for c.order.Len() >= c.capacity {
		c.removeLocked(c.order.Back())
	}
	el := c.order.PushFront(&cacheEntry{key: key, value: value, createdAt: c.now()})
	c.entries[key] = el
}

// Len reports the number of live entries, counting any not yet pruned.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// pruneExpiredLocked drops expired entries from the cold end of the list.
// It stops at the first live entry; older-than-TTL entries further up are
// caught by Get.
func (c *Cache) pruneExpiredLocked() {
	now := c.now()
	for el := c.order.Back(); el != nil; {
		entry := el.Value.(*cacheEntry)
		if now.Sub(entry.createdAt) < c.ttl {
			return
		}
		prev := el.Prev()
		c.removeLocked(el)
		el = prev
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	entry := el.Value.(*cacheEntry)
	delete(c.entries, entry.key)
	c.order.Remove(el)
}
