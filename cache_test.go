package playa

import (
	"testing"

	"github.com/google/uuid"
)

func TestFrameCacheInsertGetMiss(t *testing.T) {
	c := NewFrameCache()
	node := uuid.New()

	if _, ok := c.Get(node, 0); ok {
		t.Fatal("empty cache should miss")
	}

	f := NewSizedPlaceholderFrame(4, 4)
	c.Insert(node, 0, f)

	got, ok := c.Get(node, 0)
	if !ok || got != f {
		t.Fatalf("Get after Insert = %v, %v", got, ok)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Inserts != 1 {
		t.Errorf("stats = %+v, want one each of hit/miss/insert", stats)
	}
}

func TestFrameCacheOnlyCurrentEvictsSiblings(t *testing.T) {
	c := NewFrameCache()
	c.SetStrategy(StrategyOnlyCurrent, 0, 0)
	node := uuid.New()

	c.Insert(node, 0, NewSizedPlaceholderFrame(2, 2))
	c.Insert(node, 1, NewSizedPlaceholderFrame(2, 2))

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1 under StrategyOnlyCurrent", c.Len())
	}
	if _, ok := c.Get(node, 0); ok {
		t.Fatal("frame 0 should have been evicted in favor of frame 1")
	}
}

func TestFrameCachePlaybackWindowRejectsOutsideRange(t *testing.T) {
	c := NewFrameCache()
	c.SetStrategy(StrategyPlaybackWindow, 2, 10)
	node := uuid.New()

	c.Insert(node, 10, NewSizedPlaceholderFrame(2, 2))
	c.Insert(node, 50, NewSizedPlaceholderFrame(2, 2))

	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (frame 50 is outside the window)", c.Len())
	}
	if _, ok := c.Get(node, 50); ok {
		t.Fatal("frame outside the playback window should not be retained")
	}
}

func TestFrameCacheClearRange(t *testing.T) {
	c := NewFrameCache()
	node := uuid.New()
	for i := 0; i < 5; i++ {
		c.Insert(node, i, NewSizedPlaceholderFrame(1, 1))
	}
	c.ClearRange(node, 1, 3)
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2 after clearing [1,3]", c.Len())
	}
	if _, ok := c.Get(node, 0); !ok {
		t.Error("frame 0 should survive ClearRange(1,3)")
	}
	if _, ok := c.Get(node, 4); !ok {
		t.Error("frame 4 should survive ClearRange(1,3)")
	}
}

func TestFrameCacheDirtyTracking(t *testing.T) {
	c := NewFrameCache()
	a, b := uuid.New(), uuid.New()
	c.MarkDirty(a)
	c.MarkDirty(b)
	c.MarkDirty(a) // duplicate, should not produce a duplicate entry

	dirty := c.TakeDirty()
	if len(dirty) != 2 {
		t.Fatalf("TakeDirty = %v, want 2 distinct nodes", dirty)
	}
	if len(c.TakeDirty()) != 0 {
		t.Fatal("TakeDirty should clear the set")
	}
}

func TestFrameCacheEpochStartsAtOneAndBumps(t *testing.T) {
	c := NewFrameCache()
	if c.Epoch() != 1 {
		t.Fatalf("initial epoch = %d, want 1 (0 is the ungated sentinel)", c.Epoch())
	}
	if got := c.BumpEpoch(); got != 2 {
		t.Errorf("BumpEpoch = %d, want 2", got)
	}
}

func TestLessKeyOrdersByNodeThenIndex(t *testing.T) {
	a := uuid.New()
	k1 := cacheKey{node: a, idx: 1}
	k2 := cacheKey{node: a, idx: 2}
	if !lessKey(k1, k2) {
		t.Error("lower index under the same node should sort first")
	}
	if lessKey(k2, k1) {
		t.Error("lessKey should not be symmetric for distinct keys")
	}
}

func TestCacheManagerEnforceLimitEvictsUnderTinyBudget(t *testing.T) {
	c := NewFrameCache()
	node := uuid.New()
	for i := 0; i < 8; i++ {
		c.Insert(node, i, NewSizedPlaceholderFrame(4, 4))
	}

	m := NewCacheManager(c, 0, 0)
	m.limit.Store(1) // force a tiny budget regardless of the host's runtime.MemStats

	evicted := m.EnforceLimit()
	if evicted == 0 {
		t.Fatal("EnforceLimit should evict when usage exceeds a near-zero budget")
	}
	if c.Len() >= 8 {
		t.Errorf("Len after EnforceLimit = %d, want fewer than 8", c.Len())
	}
}

func TestCacheManagerEnforceLimitNoopWhenDisabled(t *testing.T) {
	c := NewFrameCache()
	node := uuid.New()
	c.Insert(node, 0, NewSizedPlaceholderFrame(4, 4))

	m := NewCacheManager(c, 0, 0)
	m.limit.Store(0)

	if evicted := m.EnforceLimit(); evicted != 0 {
		t.Errorf("EnforceLimit with limit 0 should be a no-op, evicted %d", evicted)
	}
}
