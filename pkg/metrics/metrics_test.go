package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordAllocationTracksPeak(t *testing.T) {
	m := New()
	m.RecordAllocation(100)
	m.RecordAllocation(50)
	m.RecordAllocation(-120)

	snap := m.Snapshot()
	require.EqualValues(t, 30, snap.TotalAllocated)
	require.EqualValues(t, 150, snap.PeakAllocated)
}

func TestRecordFileProcessingBuckets(t *testing.T) {
	m := New()
	m.RecordFileProcessing(1024)
	m.RecordFileProcessing(SmallThreshold)
	m.RecordFileProcessing(LargeThreshold)
	m.RecordFileProcessing(LargeThreshold + 1)

	snap := m.Snapshot()
	require.EqualValues(t, 1, snap.SmallFiles)
	require.EqualValues(t, 1, snap.BufferedFiles)
	require.EqualValues(t, 2, snap.MmapFiles)
}

func TestConcurrentUpdatesAreRaceFree(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordAllocation(1)
			m.RecordCacheHit()
			m.RecordFileProcessing(10)
		}()
	}
	wg.Wait()

	snap := m.Snapshot()
	require.EqualValues(t, 100, snap.TotalAllocated)
	require.EqualValues(t, 100, snap.CacheHits)
	require.EqualValues(t, 100, snap.SmallFiles)
}
