package playa

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// CacheStrategy controls which frames a FrameCache retains across recompute
// passes (spec §5 cache invariants).
type CacheStrategy uint8

const (
	// StrategyAll retains every computed frame until evicted by memory
	// pressure.
	StrategyAll CacheStrategy = iota
	// StrategyPlaybackWindow retains only frames within a window around the
	// current playhead; everything else is dropped on insert.
	StrategyPlaybackWindow
	// StrategyOnlyCurrent retains only the single most recently computed
	// frame per node.
	StrategyOnlyCurrent
)

// cacheKey identifies one cached frame: a node and a frame index.
type cacheKey struct {
	node uuid.UUID
	idx  int
}

// CacheStats is a snapshot of cumulative cache activity, surfaced for
// diagnostics (spec §7, ambient logging).
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Inserts   uint64
	Evictions uint64
	Entries   int
	Bytes     int64
}

// entry pairs a cached Frame with its insertion order, used as the eviction
// tie-breaker (oldest-by-insertion, ties broken by key order per spec §5).
type entry struct {
	frame *Frame
	seq   uint64
}

// FrameCache stores computed Frames keyed by (node UUID, frame index). It is
// safe for concurrent use by the worker pool and the compute graph.
type FrameCache struct {
	mu       sync.RWMutex
	entries  map[cacheKey]entry
	strategy CacheStrategy
	window   int // half-width of the playback window, in frames
	current  int // current playhead, used by StrategyPlaybackWindow

	seqCounter uint64

	hits, misses, inserts, evictions atomic.Uint64

	dirty map[uuid.UUID]bool

	epoch atomic.Uint64
}

// NewFrameCache creates an empty cache with StrategyAll.
func NewFrameCache() *FrameCache {
	c := &FrameCache{
		entries: make(map[cacheKey]entry),
		dirty:   make(map[uuid.UUID]bool),
	}
	c.epoch.Store(1) // 0 is WorkerPool's reserved ungated sentinel
	return c
}

// Epoch returns the cache's current compute epoch, the single source of
// truth a Project bumps on any structural change (scrub, attr edit, layer
// add/remove) to invalidate not-yet-started preload work without touching
// frames already computing (spec §5).
func (c *FrameCache) Epoch() uint64 { return c.epoch.Load() }

// BumpEpoch atomically increments and returns the new epoch.
func (c *FrameCache) BumpEpoch() uint64 { return c.epoch.Add(1) }

// Get returns the cached frame for (node, idx), if present.
func (c *FrameCache) Get(node uuid.UUID, idx int) (*Frame, bool) {
	c.mu.RLock()
	e, ok := c.entries[cacheKey{node, idx}]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return e.frame, true
	}
	c.misses.Add(1)
	return nil, false
}

// GetStatus returns the status of the cached frame for (node, idx), or
// StatusHeader (nothing known yet) if absent.
func (c *FrameCache) GetStatus(node uuid.UUID, idx int) Status {
	f, ok := c.Get(node, idx)
	if !ok {
		return StatusHeader
	}
	return f.Status()
}

// Insert stores frame under (node, idx), subject to the current strategy,
// and records it as an insertion for eviction ordering.
func (c *FrameCache) Insert(node uuid.UUID, idx int, frame *Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.strategy {
	case StrategyOnlyCurrent:
		for k := range c.entries {
			if k.node == node {
				delete(c.entries, k)
			}
		}
	case StrategyPlaybackWindow:
		lo, hi := c.current-c.window, c.current+c.window
		if idx < lo || idx > hi {
			return
		}
		for k := range c.entries {
			if k.idx < lo || k.idx > hi {
				delete(c.entries, k)
			}
		}
	}

	c.seqCounter++
	c.entries[cacheKey{node, idx}] = entry{frame: frame, seq: c.seqCounter}
	c.inserts.Add(1)
}

// SetStrategy changes the retention strategy. Switching to
// StrategyPlaybackWindow or StrategyOnlyCurrent does not retroactively evict
// existing entries; eviction happens lazily as new frames are inserted or
// via the owning CacheManager's memory-pressure sweep.
func (c *FrameCache) SetStrategy(s CacheStrategy, window, current int) {
	c.mu.Lock()
	c.strategy = s
	c.window = window
	c.current = current
	c.mu.Unlock()
}

// SetPlayhead updates the current frame used by StrategyPlaybackWindow
// without changing the strategy.
func (c *FrameCache) SetPlayhead(current int) {
	c.mu.Lock()
	c.current = current
	c.mu.Unlock()
}

// ClearComp removes all entries belonging to node.
func (c *FrameCache) ClearComp(node uuid.UUID) {
	c.mu.Lock()
	for k := range c.entries {
		if k.node == node {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// ClearRange removes entries for node within [start, end] inclusive.
func (c *FrameCache) ClearRange(node uuid.UUID, start, end int) {
	c.mu.Lock()
	for k := range c.entries {
		if k.node == node && k.idx >= start && k.idx <= end {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of cumulative activity plus current size.
func (c *FrameCache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	var bytes int64
	for _, e := range c.entries {
		bytes += int64(e.frame.ByteSize())
	}
	c.mu.RUnlock()
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Inserts:   c.inserts.Load(),
		Evictions: c.evictions.Load(),
		Entries:   n,
		Bytes:     bytes,
	}
}

// TakeDirty returns and clears the set of node UUIDs marked dirty since the
// last call, used by the project to know which Comps need a recompute pass.
func (c *FrameCache) TakeDirty() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uuid.UUID, 0, len(c.dirty))
	for id := range c.dirty {
		out = append(out, id)
	}
	c.dirty = make(map[uuid.UUID]bool)
	return out
}

// MarkDirty records that node's cached frames may be stale.
func (c *FrameCache) MarkDirty(node uuid.UUID) {
	c.mu.Lock()
	c.dirty[node] = true
	c.mu.Unlock()
}

// evictOldest removes the n least-recently-inserted entries, ties broken by
// key's node/idx order (deterministic iteration avoids Go's randomized map
// order from making eviction order nondeterministic between runs).
func (c *FrameCache) evictOldest(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || len(c.entries) == 0 {
		return 0
	}

	type scored struct {
		key cacheKey
		seq uint64
	}
	all := make([]scored, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, scored{k, e.seq})
	}
	// Selection of the n smallest sequence numbers; n is typically small
	// relative to cache size so a partial pass is cheap enough without
	// pulling in sort for a full sort.
	evicted := 0
	for evicted < n && len(all) > 0 {
		minIdx := 0
		for i := 1; i < len(all); i++ {
			if all[i].seq < all[minIdx].seq ||
				(all[i].seq == all[minIdx].seq && lessKey(all[i].key, all[minIdx].key)) {
				minIdx = i
			}
		}
		delete(c.entries, all[minIdx].key)
		all[minIdx] = all[len(all)-1]
		all = all[:len(all)-1]
		evicted++
	}
	c.evictions.Add(uint64(evicted))
	return evicted
}

func lessKey(a, b cacheKey) bool {
	if a.node != b.node {
		return a.node.String() < b.node.String()
	}
	return a.idx < b.idx
}

// CacheManager owns a FrameCache and enforces a memory budget, evicting the
// oldest entries on each EnforceLimit call while usage exceeds
// fraction*(totalRAM-reserve) bytes (spec §5 memory-governed eviction).
type CacheManager struct {
	cache    *FrameCache
	limit    atomic.Int64
	fraction float64
	reserve  int64
}

// NewCacheManager creates a manager over cache whose byte limit is computed
// from fraction and reserveBytes by recomputeLimit. A computed limit of 0
// (for example fraction 0) disables memory-pressure eviction.
func NewCacheManager(cache *FrameCache, fraction float64, reserveBytes int64) *CacheManager {
	m := &CacheManager{cache: cache, fraction: fraction, reserve: reserveBytes}
	m.recomputeLimit()
	return m
}

// recomputeLimit estimates a byte budget from the Go runtime's reported
// system memory, since Go has no direct "total system RAM" query without a
// platform-specific syscall; this approximates the spec's
// fraction*(total_ram-reserve) rule using the process's own memory stats as
// a stand-in for total availability.
func (m *CacheManager) recomputeLimit() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	total := int64(ms.Sys)
	budget := int64(float64(total-m.reserve) * m.fraction)
	if budget < 0 {
		budget = 0
	}
	m.limit.Store(budget)
}

// EnforceLimit evicts the oldest entries until the cache's reported byte
// size is under the current budget, or the cache is empty. Returns the
// number of entries evicted.
func (m *CacheManager) EnforceLimit() int {
	limit := m.limit.Load()
	if limit <= 0 {
		return 0
	}
	total := 0
	for {
		stats := m.cache.Stats()
		if stats.Bytes <= limit || stats.Entries == 0 {
			return total
		}
		n := m.cache.evictOldest(max(1, stats.Entries/8))
		if n == 0 {
			return total
		}
		total += n
	}
}

// Cache returns the managed FrameCache.
func (m *CacheManager) Cache() *FrameCache { return m.cache }
