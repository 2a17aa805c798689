// Package metrics provides thread-safe, advisory counters for the
// adaptive file-processing pipeline: allocation totals, mmap bytes, cache
// hit rates, and per-strategy file counts.
package metrics

import (
	"sync/atomic"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// Size thresholds that classify a file's processing strategy.
const (
	SmallThreshold = 32 * 1024        // 32 KiB
	LargeThreshold = 10 * 1024 * 1024 // 10 MiB
)

// Metrics is a set of atomic counters, each updated independently with
// sync/atomic; the counters are advisory, not synchronization primitives,
// and a zero value is ready to use.
type Metrics struct {
	totalAllocated int64
	peakAllocated  int64
	mmapAllocated  int64
	cacheSizeBytes int64

	cacheHits   int64
	cacheMisses int64

	smallFiles    int64
	bufferedFiles int64
	mmapFiles     int64
}

// New returns a ready-to-use Metrics.
func New() *Metrics {
	return &Metrics{}
}

// RecordAllocation adds n to the running total and bumps the peak via a
// compare-and-swap loop.
func (m *Metrics) RecordAllocation(n int64) {
	total := atomic.AddInt64(&m.totalAllocated, n)
	for {
		peak := atomic.LoadInt64(&m.peakAllocated)
		if total <= peak {
			return
		}
		if atomic.CompareAndSwapInt64(&m.peakAllocated, peak, total) {
			return
		}
	}
}

// RecordMmap tracks mapped bytes independently of RecordAllocation.
func (m *Metrics) RecordMmap(n int64) {
	atomic.AddInt64(&m.mmapAllocated, n)
}

// RecordCacheSize sets the on-disk cache size, in bytes.
func (m *Metrics) RecordCacheSize(n int64) {
	atomic.StoreInt64(&m.cacheSizeBytes, n)
}

// RecordCacheHit and RecordCacheMiss track IncrementalCache effectiveness.
func (m *Metrics) RecordCacheHit()  { atomic.AddInt64(&m.cacheHits, 1) }
func (m *Metrics) RecordCacheMiss() { atomic.AddInt64(&m.cacheMisses, 1) }

// RecordFileProcessing increments exactly one of the three per-strategy
// file counters based on size, using the same SMALL/LARGE thresholds the
// FileProcessor uses to choose its read strategy.
func (m *Metrics) RecordFileProcessing(size int64) {
	switch {
	case size < SmallThreshold:
		atomic.AddInt64(&m.smallFiles, 1)
	case size < LargeThreshold:
		atomic.AddInt64(&m.bufferedFiles, 1)
	default:
		atomic.AddInt64(&m.mmapFiles, 1)
	}
}

// Snapshot returns a point-in-time, non-atomic copy of all counters.
func (m *Metrics) Snapshot() types.MetricsSnapshot {
	return types.MetricsSnapshot{
		TotalAllocated: atomic.LoadInt64(&m.totalAllocated),
		PeakAllocated:  atomic.LoadInt64(&m.peakAllocated),
		MmapAllocated:  atomic.LoadInt64(&m.mmapAllocated),
		CacheSizeBytes: atomic.LoadInt64(&m.cacheSizeBytes),
		CacheHits:      atomic.LoadInt64(&m.cacheHits),
		CacheMisses:    atomic.LoadInt64(&m.cacheMisses),
		SmallFiles:     atomic.LoadInt64(&m.smallFiles),
		BufferedFiles:  atomic.LoadInt64(&m.bufferedFiles),
		MmapFiles:      atomic.LoadInt64(&m.mmapFiles),
	}
}
