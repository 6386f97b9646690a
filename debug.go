package playa

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// verboseLogging mirrors a single process-wide debug flag, checked cheaply
// from hot paths (compute, cache, worker pool) that have no logger handle of
// their own. Set via SetVerboseLogging.
var verboseLogging atomic.Bool

// SetVerboseLogging enables or disables "[playa] ..." diagnostic output on
// stderr: per-compute timing, cache hit/miss ratios, and worker pool
// scheduling decisions.
func SetVerboseLogging(enabled bool) {
	verboseLogging.Store(enabled)
}

func debugEnabled() bool { return verboseLogging.Load() }

// computeStats holds per-composite timing, reported by CompNode.Compute when
// verbose logging is enabled.
type computeStats struct {
	layerCount   int
	computeTime  time.Duration
	blendTime    time.Duration
	cacheHit     bool
}

func logComputeStats(name string, frameIdx int, stats computeStats) {
	if !debugEnabled() {
		return
	}
	if stats.cacheHit {
		_, _ = fmt.Fprintf(os.Stderr, "[playa] comp %q frame %d: cache hit\n", name, frameIdx)
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[playa] comp %q frame %d: layers=%d compute=%v blend=%v total=%v\n",
		name, frameIdx, stats.layerCount, stats.computeTime, stats.blendTime,
		stats.computeTime+stats.blendTime)
}

func logCacheStats(stats CacheStats) {
	if !debugEnabled() {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[playa] cache: hits=%d misses=%d inserts=%d evictions=%d entries=%d bytes=%d\n",
		stats.Hits, stats.Misses, stats.Inserts, stats.Evictions, stats.Entries, stats.Bytes)
}

func logWarn(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "[playa] warning: "+format+"\n", args...)
}
