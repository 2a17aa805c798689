package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func todoPattern() []types.PatternDefinition {
	return []types.PatternDefinition{{Text: "TODO", BoundaryMode: types.BoundaryWholeWords}}
}

func TestSearchFindsMatchesAcrossFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "// TODO fix this\n")
	writeFile(t, filepath.Join(root, "b.go"), "nothing here\n")

	e := New(Config{Root: root, Patterns: todoPattern()})
	result, err := e.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalMatches)
	require.Equal(t, 1, result.TotalFilesMatched)
	require.Equal(t, 2, result.TotalFilesScanned)
}

func TestSearchIncrementalSecondRunReportsCacheHits(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "// TODO fix this\n")
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	cfg := Config{Root: root, Patterns: todoPattern(), Incremental: true, CachePath: cachePath}

	first, err := New(cfg).Search(context.Background())
	require.NoError(t, err)
	require.False(t, first.Files[0].WasCached)

	second, err := New(cfg).Search(context.Background())
	require.NoError(t, err)
	require.True(t, second.Files[0].WasCached)
	require.Equal(t, first.TotalMatches, second.TotalMatches)
}

func TestSearchRescansAfterModification(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.go")
	writeFile(t, path, "nothing\n")
	cachePath := filepath.Join(t.TempDir(), "cache.db")
	cfg := Config{Root: root, Patterns: todoPattern(), Incremental: true, CachePath: cachePath}

	_, err := New(cfg).Search(context.Background())
	require.NoError(t, err)

	writeFile(t, path, "// TODO now\n")
	result, err := New(cfg).Search(context.Background())
	require.NoError(t, err)
	require.False(t, result.Files[0].WasCached)
	require.Equal(t, 1, result.TotalMatches)
}
