package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache memoizes expensive values, in this service the aggregated report
// packs served by the dashboard endpoint, under a bounded size. Entries
// expire after a fixed TTL so a stale pack never outlives new transactions
// for long, and the least recently requested filter key is evicted first
// when the cache is full.
type LRUCache[T any] struct {
	mu      sync.Mutex
	cap     int
	ttl     time.Duration
	index   map[string]*list.Element
	recency *list.List // front = most recently used
}

type entry[T any] struct {
	key     string
	value   T
	expires time.Time
}

func (e *entry[T]) expired(now time.Time) bool {
	return now.After(e.expires)
}

func NewLRUCache[T any](capacity int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		cap:     capacity,
		ttl:     ttl,
		index:   make(map[string]*list.Element),
		recency: list.New(),
	}
}

// Get returns the live value for key. An expired entry is dropped on read
// rather than waiting for the cleanup pass.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.index[key]
	if !ok {
		return zero, false
	}

	e := elem.Value.(*entry[T])
	if e.expired(time.Now()) {
		c.drop(elem)
		return zero, false
	}

	c.recency.MoveToFront(elem)
	return e.value, true
}

// Set stores value under key with a fresh TTL, evicting the least recently
// used entry when the cache is at capacity.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{
		key:     key,
		value:   value,
		expires: time.Now().Add(c.ttl),
	}

	if elem, ok := c.index[key]; ok {
		elem.Value = e
		c.recency.MoveToFront(elem)
		return
	}

	c.index[key] = c.recency.PushFront(e)

	if c.recency.Len() > c.cap {
		if oldest := c.recency.Back(); oldest != nil {
			c.drop(oldest)
		}
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		c.drop(elem)
	}
}

// CleanExpired removes every expired entry and reports how many were
// dropped. The Manager calls this on its cleanup interval.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	dropped := 0
	for elem := c.recency.Front(); elem != nil; {
		next := elem.Next()
		if elem.Value.(*entry[T]).expired(now) {
			c.drop(elem)
			dropped++
		}
		elem = next
	}
	return dropped
}

func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// drop removes an element from both the index and the recency list.
// Callers hold c.mu.
func (c *LRUCache[T]) drop(elem *list.Element) {
	delete(c.index, elem.Value.(*entry[T]).key)
	c.recency.Remove(elem)
}
