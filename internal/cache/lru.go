package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/rstar/internal/resource"
)

// Evicted is a key/value pair dropped from an LRU.
type Evicted[K comparable, V any] struct {
	Key   K
	Value V
}

// LRU is a size-bounded least-recently-used map.
type LRU[K comparable, V any] struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	sizeOf    func(V) int64
	items     map[K]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type lruEntry[K comparable, V any] struct {
	key     K
	value   V
	size    int64
	charged bool // size is reserved in rc
}

// NewLRU creates a cache bounded by capacity in the units returned by
// sizeOf. A nil sizeOf counts entries. If rc is set, sizes are charged
// to it as bytes.
func NewLRU[K comparable, V any](capacity int64, sizeOf func(V) int64, rc *resource.Controller) *LRU[K, V] {
	if sizeOf == nil {
		sizeOf = func(V) int64 { return 1 }
	}
	return &LRU[K, V]{
		capacity:  capacity,
		sizeOf:    sizeOf,
		items:     make(map[K]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns the cached value and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(el)
		return el.Value.(*lruEntry[K, V]).value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Peek returns the cached value without touching recency or stats.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		return el.Value.(*lruEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put inserts or replaces key and returns the entries evicted to make room.
// The new entry itself is never evicted by its own Put, so a single entry
// larger than the capacity stays until the next Put.
func (c *LRU[K, V]) Put(key K, value V) []Evicted[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := c.sizeOf(value)
	var ent *lruEntry[K, V]
	if el, ok := c.items[key]; ok {
		ent = el.Value.(*lruEntry[K, V])
		c.uncharge(ent)
		c.size += size - ent.size
		ent.value, ent.size = value, size
		c.evictList.MoveToFront(el)
	} else {
		ent = &lruEntry[K, V]{key: key, value: value, size: size}
		c.items[key] = c.evictList.PushFront(ent)
		c.size += size
	}

	var out []Evicted[K, V]
	for c.evictList.Len() > 1 && c.size > c.capacity {
		out = append(out, c.evictBack())
	}
	// Make room in the global budget by evicting older entries. If the
	// budget is still exhausted the entry is kept but left unaccounted.
	for c.rc != nil && !ent.charged {
		if err := c.rc.AcquireMemory(ent.size); err == nil {
			ent.charged = true
			break
		}
		if c.evictList.Len() <= 1 {
			break
		}
		out = append(out, c.evictBack())
	}
	return out
}

// Remove drops key. It reports whether the key was present.
func (c *LRU[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	ent := c.removeElement(el)
	return ent.value, true
}

// Range calls fn for every entry from most to least recently used until fn
// returns false. fn must not call back into the cache.
func (c *LRU[K, V]) Range(fn func(K, V) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.evictList.Front(); el != nil; el = el.Next() {
		ent := el.Value.(*lruEntry[K, V])
		if !fn(ent.key, ent.value) {
			return
		}
	}
}

// Purge removes every entry and returns them.
func (c *LRU[K, V]) Purge() []Evicted[K, V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Evicted[K, V], 0, len(c.items))
	for el := c.evictList.Back(); el != nil; el = c.evictList.Back() {
		ent := c.removeElement(el)
		out = append(out, Evicted[K, V]{Key: ent.key, Value: ent.value})
	}
	return out
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the accounted size.
func (c *LRU[K, V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns hit and miss counts.
func (c *LRU[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRU[K, V]) evictBack() Evicted[K, V] {
	ent := c.removeElement(c.evictList.Back())
	return Evicted[K, V]{Key: ent.key, Value: ent.value}
}

func (c *LRU[K, V]) removeElement(el *list.Element) *lruEntry[K, V] {
	c.evictList.Remove(el)
	ent := el.Value.(*lruEntry[K, V])
	delete(c.items, ent.key)
	c.size -= ent.size
	c.uncharge(ent)
	return ent
}

func (c *LRU[K, V]) uncharge(ent *lruEntry[K, V]) {
	if ent.charged {
		c.rc.ReleaseMemory(ent.size)
		ent.charged = false
	}
}
