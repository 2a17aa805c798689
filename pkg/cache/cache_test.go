package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

func TestSaveThenOpenRoundTripsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path, "fp-1")
	require.NoError(t, err)

	c.Record(types.CacheEntry{
		Path:      "/repo/a.go",
		Signature: types.FileSignature{SizeBytes: 42, ModifiedTime: time.Unix(1000, 0)},
		Matches:   []types.Match{{LineNumber: 1, ByteStart: 0, ByteEnd: 4, PatternID: 0, LineText: "TODO"}},
	})
	require.NoError(t, c.Save())

	reopened, err := Open(path, "fp-1")
	require.NoError(t, err)

	entry, ok := reopened.Lookup("/repo/a.go")
	require.True(t, ok)
	require.Equal(t, int64(42), entry.Signature.SizeBytes)
	require.Len(t, entry.Matches, 1)
}

func TestLookupMissesOnFingerprintMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path, "fp-1")
	require.NoError(t, err)
	c.Record(types.CacheEntry{Path: "/repo/a.go", Signature: types.FileSignature{SizeBytes: 1}})
	require.NoError(t, c.Save())

	reopened, err := Open(path, "fp-2")
	require.NoError(t, err)
	_, ok := reopened.Lookup("/repo/a.go")
	require.False(t, ok)
}

func TestOpenMissingFileReturnsEmptyCacheNoError(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "absent.db"), "fp")
	require.NoError(t, err)
	_, ok := c.Lookup("/anything")
	require.False(t, ok)
}

func TestPruneDropsDeletedPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path, "fp")
	require.NoError(t, err)
	c.Record(types.CacheEntry{Path: "/repo/a.go"})
	c.Record(types.CacheEntry{Path: "/repo/b.go"})

	c.Prune(map[string]bool{"/repo/a.go": true})

	_, ok := c.Lookup("/repo/a.go")
	require.True(t, ok)
	_, ok = c.Lookup("/repo/b.go")
	require.False(t, ok)
}

func TestFrequentlyChangedCrossesThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path, "fp")
	require.NoError(t, err)

	for i := 0; i < frequentThreshold; i++ {
		c.MarkChanged("/repo/flaky.go", true)
	}
	require.Contains(t, c.FrequentlyChanged(), "/repo/flaky.go")
}

func TestHitRateReflectsLookups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path, "fp")
	require.NoError(t, err)
	c.Record(types.CacheEntry{Path: "/repo/a.go"})

	c.Lookup("/repo/a.go")
	c.Lookup("/repo/missing.go")
	require.InDelta(t, 0.5, c.HitRate(), 0.001)
}
