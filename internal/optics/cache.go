package optics

import (
	"math"
	"sync"
)

const (
	DefaultCacheSize      = 50
	DefaultCachePrecision = 1e-4
)

// PathCache memoizes traced paths by input value, rounded to a fixed
// precision so tiny input jitter reuses the same path. At capacity the
// oldest entry is evicted.
type PathCache struct {
	mu        sync.Mutex
	capacity  int
	precision float64
	entries   map[int64]Path
	order     []int64
	hits      int
	misses    int
}

func NewPathCache(capacity int, precision float64) *PathCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	if precision <= 0 {
		precision = DefaultCachePrecision
	}
	return &PathCache{
		capacity:  capacity,
		precision: precision,
		entries:   make(map[int64]Path, capacity),
		order:     make([]int64, 0, capacity),
	}
}

func (c *PathCache) key(v float64) int64 {
	return int64(math.Round(v / c.precision))
}

// Round returns the representative input of v's bucket.
func (c *PathCache) Round(v float64) float64 {
	return float64(c.key(v)) * c.precision
}

// Get returns the cached path for v.
func (c *PathCache) Get(v float64) (Path, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.entries[c.key(v)]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return p, ok
}

// Put stores p under v, evicting the oldest entry when full.
func (c *PathCache) Put(v float64, p Path) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := c.key(v)
	if _, ok := c.entries[k]; ok {
		c.entries[k] = p
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[k] = p
	c.order = append(c.order, k)
}

// GetOrTrace returns the cached path for v or computes and stores it.
func (c *PathCache) GetOrTrace(v float64, trace func() Path) Path {
	if p, ok := c.Get(v); ok {
		return p
	}
	p := trace()
	c.Put(v, p)
	return p
}

func (c *PathCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// HitRate returns hits / lookups, or 0 before the first lookup.
func (c *PathCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// Clear drops every entry.
func (c *PathCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int64]Path, c.capacity)
	c.order = c.order[:0]
	c.hits, c.misses = 0, 0
}
