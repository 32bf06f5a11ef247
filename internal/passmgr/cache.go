package passmgr

import "time"

// CacheKey identifies one cached analysis result: which analysis, for
// which contract, at which IR generation, grounded on the original
// Rust CacheKey (thalir-core/src/analysis/cache.rs).
type CacheKey struct {
	Analysis AnalysisID
	Target   string
	Version  uint64
}

type cacheEntry struct {
	value    any
	size     int
	accesses uint64
}

// CacheStatistics tracks cache effectiveness.
type CacheStatistics struct {
	Hits              uint64
	Misses            uint64
	Evictions         uint64
	Invalidations     uint64
	TotalComputeTime  time.Duration
}

// AnalysisCache is an LRU cache bounded by both byte size and entry
// count, grounded on the original Rust AnalysisCache.
// Go has no Box<dyn Any> downcast story as clean as Rust's, so cached
// values are stored as `any` and callers type-assert on Get.
type AnalysisCache struct {
	entries     map[CacheKey]*cacheEntry
	lruOrder    []CacheKey
	maxBytes    int
	curBytes    int
	maxEntries  int
	generation  uint64
	stats       CacheStatistics
}

// NewAnalysisCache constructs a cache with explicit bounds.
func NewAnalysisCache(maxBytes, maxEntries int) *AnalysisCache {
	return &AnalysisCache{
		entries:    make(map[CacheKey]*cacheEntry),
		maxBytes:   maxBytes,
		maxEntries: maxEntries,
	}
}

// DefaultAnalysisCache matches the original's Default impl: 100 MiB,
// 1000 entries.
func DefaultAnalysisCache() *AnalysisCache {
	return NewAnalysisCache(100*1024*1024, 1000)
}

// Get looks up a cached value, promoting it to most-recently-used.
func (c *AnalysisCache) Get(key CacheKey) (any, bool) {
	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	entry.accesses++
	c.stats.Hits++
	c.promoteLRU(key)
	return entry.value, true
}

// GetOrCompute returns the cached value for key, computing and storing
// it via compute on a miss. sizeHint is an estimated byte cost used
// for the size-budget eviction check.
func (c *AnalysisCache) GetOrCompute(key CacheKey, sizeHint int, compute func() any) any {
	if v, ok := c.Get(key); ok {
		return v
	}
	start := time.Now()
	value := compute()
	c.stats.TotalComputeTime += time.Since(start)
	c.Insert(key, value, sizeHint)
	return value
}

// Insert stores value under key, evicting LRU entries first if the
// size or count budget would be exceeded.
func (c *AnalysisCache) Insert(key CacheKey, value any, sizeHint int) {
	if sizeHint <= 0 {
		sizeHint = 64
	}
	c.evictIfNeeded(sizeHint)
	c.entries[key] = &cacheEntry{value: value, size: sizeHint}
	c.lruOrder = append(c.lruOrder, key)
	c.curBytes += sizeHint
}

// Invalidate removes every entry matching pred.
func (c *AnalysisCache) Invalidate(pred func(CacheKey) bool) {
	var kept []CacheKey
	for _, k := range c.lruOrder {
		entry, ok := c.entries[k]
		if !ok {
			continue
		}
		if pred(k) {
			delete(c.entries, k)
			c.curBytes -= entry.size
			c.stats.Invalidations++
			continue
		}
		kept = append(kept, k)
	}
	c.lruOrder = kept
}

// InvalidateTarget drops every cached analysis for one contract.
func (c *AnalysisCache) InvalidateTarget(target string) {
	c.Invalidate(func(k CacheKey) bool { return k.Target == target })
}

// IncrementGeneration bumps the IR-mutation counter and drops any
// entry computed against an older generation.
func (c *AnalysisCache) IncrementGeneration() {
	current := c.generation
	c.generation++
	c.Invalidate(func(k CacheKey) bool { return k.Version < current })
}

func (c *AnalysisCache) Clear() {
	c.entries = make(map[CacheKey]*cacheEntry)
	c.lruOrder = nil
	c.curBytes = 0
}

func (c *AnalysisCache) Statistics() CacheStatistics { return c.stats }

func (c *AnalysisCache) HitRate() float64 {
	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(c.stats.Hits) / float64(total)
}

func (c *AnalysisCache) promoteLRU(key CacheKey) {
	for i, k := range c.lruOrder {
		if k == key {
			c.lruOrder = append(c.lruOrder[:i], c.lruOrder[i+1:]...)
			break
		}
	}
	c.lruOrder = append(c.lruOrder, key)
}

func (c *AnalysisCache) evictIfNeeded(needed int) {
	for len(c.entries) >= c.maxEntries {
		if !c.evictOldest() {
			break
		}
	}
	for c.curBytes+needed > c.maxBytes {
		if !c.evictOldest() {
			break
		}
	}
}

func (c *AnalysisCache) evictOldest() bool {
	if len(c.lruOrder) == 0 {
		return false
	}
	key := c.lruOrder[0]
	c.lruOrder = c.lruOrder[1:]
	if entry, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.curBytes -= entry.size
		c.stats.Evictions++
	}
	return true
}
