package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coregx/sqlforge/internal/core"
)

const (
	// DefaultLocalCapacity is the default maximum number of results kept in process.
	DefaultLocalCapacity = 1000
)

// Local stores query results in process with LRU eviction and a per-entry expiry.
type Local struct {
	mu       sync.RWMutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	lruList  *list.List
	now      func() time.Time

	// Metrics using atomic for lock-free access.
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type localEntry struct {
	key     string
	result  *core.Result
	expires time.Time
}

// NewLocal creates a local result cache. A capacity below 1 uses
// DefaultLocalCapacity; a ttl of 0 keeps entries until they are evicted.
func NewLocal(capacity int, ttl time.Duration) *Local {
	if capacity <= 0 {
		capacity = DefaultLocalCapacity
	}
	return &Local{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element, capacity),
		lruList:  list.New(),
		now:      time.Now,
	}
}

// Get returns the cached result for key. Expired entries are dropped and count
// as misses. Accessing an entry moves it to the front of the LRU list.
func (l *Local) Get(key string) (*core.Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	elem, exists := l.items[key]
	if !exists {
		l.misses.Add(1)
		return nil, false
	}

	entry := elem.Value.(*localEntry)
	if !entry.expires.IsZero() && !l.now().Before(entry.expires) {
		l.lruList.Remove(elem)
		delete(l.items, key)
		l.misses.Add(1)
		return nil, false
	}

	l.lruList.MoveToFront(elem)
	l.hits.Add(1)
	return entry.result, true
}

// Set stores a result. If the cache is full, the least recently used entry is
// evicted.
func (l *Local) Set(key string, result *core.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var expires time.Time
	if l.ttl > 0 {
		expires = l.now().Add(l.ttl)
	}

	if elem, exists := l.items[key]; exists {
		l.lruList.MoveToFront(elem)
		entry := elem.Value.(*localEntry)
		entry.result = result
		entry.expires = expires
		return
	}

	if l.lruList.Len() >= l.capacity {
		l.evictOldest()
	}

	elem := l.lruList.PushFront(&localEntry{key: key, result: result, expires: expires})
	l.items[key] = elem
}

// evictOldest must be called with the lock held.
func (l *Local) evictOldest() {
	elem := l.lruList.Back()
	if elem == nil {
		return
	}
	l.lruList.Remove(elem)
	delete(l.items, elem.Value.(*localEntry).key)
	l.evictions.Add(1)
}

// Clear removes every entry. Metrics are kept.
func (l *Local) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make(map[string]*list.Element, l.capacity)
	l.lruList.Init()
}

// Stats holds cache performance metrics.
type Stats struct {
	Size      int     // Current number of cached results.
	Capacity  int     // Maximum capacity.
	Hits      uint64  // Number of successful lookups.
	Misses    uint64  // Number of lookups that found nothing or an expired entry.
	Evictions uint64  // Number of entries evicted for capacity.
	HitRate   float64 // hits / (hits + misses).
}

// Stats returns cache statistics.
func (l *Local) Stats() Stats {
	l.mu.RLock()
	size := l.lruList.Len()
	l.mu.RUnlock()

	hits := l.hits.Load()
	misses := l.misses.Load()

	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Size:      size,
		Capacity:  l.capacity,
		Hits:      hits,
		Misses:    misses,
		Evictions: l.evictions.Load(),
		HitRate:   hitRate,
	}
}
