// Package cache implements a bounded, TTL-evicting cache of node hashes
// consulted opportunistically by the tree engine: a hit avoids a KV
// round trip, a miss falls back to a real read with no correctness
// difference either way.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/Barre/compact-log/merkle"
)

// NodeCache is a capacity- and TTL-bounded LRU keyed by internal index.
type NodeCache struct {
	mu       sync.Mutex
	ll       *list.List
	items    map[merkle.InternalIndex]*list.Element
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	key     merkle.InternalIndex
	hash    []byte
	expires time.Time
}

// New returns a NodeCache holding at most capacity entries, each valid
// for ttl after insertion. A ttl of 0 disables expiry.
func New(capacity int, ttl time.Duration) *NodeCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &NodeCache{
		ll:       list.New(),
		items:    make(map[merkle.InternalIndex]*list.Element, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the cached hash for x, if present and not expired.
func (c *NodeCache) Get(x merkle.InternalIndex) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[x]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if c.ttl > 0 && c.now().After(e.expires) {
		c.ll.Remove(el)
		delete(c.items, x)
		return nil, false
	}
	c.ll.MoveToFront(el)
	out := make([]byte, len(e.hash))
	copy(out, e.hash)
	return out, true
}

// Put inserts or refreshes the cached hash for x.
func (c *NodeCache) Put(x merkle.InternalIndex, hash []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if c.ttl > 0 {
		expires = c.now().Add(c.ttl)
	}
	h := make([]byte, len(hash))
	copy(h, hash)

	if el, ok := c.items[x]; ok {
		e := el.Value.(*entry)
		e.hash = h
		e.expires = expires
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{key: x, hash: h, expires: expires})
	c.items[x] = el
	c.evict()
}

func (c *NodeCache) evict() {
	for c.ll.Len() > c.capacity {
		el := c.ll.Back()
		if el == nil {
			return
		}
		e := el.Value.(*entry)
		delete(c.items, e.key)
		c.ll.Remove(el)
	}
}

// Len reports the number of entries currently held, including any that
// have expired but not yet been evicted by a Get.
func (c *NodeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
