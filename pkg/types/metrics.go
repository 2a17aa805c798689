package types

// MetricsSnapshot is a point-in-time, read-only copy of MemoryMetrics'
// atomic counters, suitable for embedding in a SearchResult.
type MetricsSnapshot struct {
	TotalAllocated int64
	PeakAllocated  int64
	MmapAllocated  int64
	CacheSizeBytes int64
	CacheHits      int64
	CacheMisses    int64
	SmallFiles     int64
	BufferedFiles  int64
	MmapFiles      int64
}
