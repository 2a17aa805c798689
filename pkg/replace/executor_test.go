package replace

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestApplyAllRewritesFileAndWritesUndoRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	writeFile(t, path, "use old_api here\n")

	undoDir := filepath.Join(dir, "undo")
	exec := NewExecutor(ExecutorConfig{
		Backup:      true,
		UndoDir:     undoDir,
		Description: "replace old_api -> new_api",
		Now:         func() time.Time { return time.UnixMilli(1700000000000) },
	})

	plan := types.FileReplacementPlan{
		Path: path,
		Tasks: []types.ReplacementTask{
			{Start: 4, End: 11, ReplacementText: []byte("new_api")},
		},
	}

	record, err := exec.ApplyAll([]types.FileReplacementPlan{plan})
	require.NoError(t, err)
	require.Equal(t, 1, record.FileCount)
	require.Len(t, record.Pairs, 1)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "use new_api here\n", string(got))

	backupContent, err := os.ReadFile(record.Pairs[0].BackupPath)
	require.NoError(t, err)
	require.Equal(t, "use old_api here\n", string(backupContent))

	recordPath := filepath.Join(undoDir, "1700000000000.json")
	require.FileExists(t, recordPath)
}

func TestApplyAllDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	original := "use old_api here\n"
	writeFile(t, path, original)

	undoDir := filepath.Join(dir, "undo")
	exec := NewExecutor(ExecutorConfig{
		Backup:  true,
		UndoDir: undoDir,
		DryRun:  true,
	})

	plan := types.FileReplacementPlan{
		Path: path,
		Tasks: []types.ReplacementTask{
			{Start: 4, End: 11, ReplacementText: []byte("new_api")},
		},
	}

	record, err := exec.ApplyAll([]types.FileReplacementPlan{plan})
	require.NoError(t, err)
	require.True(t, record.DryRun)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, original, string(got))

	_, statErr := os.Stat(undoDir)
	require.True(t, os.IsNotExist(statErr))
}

func TestApplyAllMultipleNonOverlappingEditsInOneFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	writeFile(t, path, "fn foo() {}\nfn bar() {}\n")

	exec := NewExecutor(ExecutorConfig{UndoDir: filepath.Join(dir, "undo")})
	plan := types.FileReplacementPlan{
		Path: path,
		Tasks: []types.ReplacementTask{
			{Start: 3, End: 6, ReplacementText: []byte("new_foo")},
			{Start: 15, End: 18, ReplacementText: []byte("new_bar")},
		},
	}

	_, err := exec.ApplyAll([]types.FileReplacementPlan{plan})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "fn new_foo() {}\nfn new_bar() {}\n", string(got))
}

func TestApplyAllMediumStrategyRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "medium.txt")

	var content []byte
	for i := 0; i < 2000; i++ {
		content = append(content, []byte("0123456789ABCDEF\n")...)
	}
	content = append(content, []byte("REPLACE_ME\n")...)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	require.GreaterOrEqual(t, len(content), smallThreshold)
	require.Less(t, len(content), largeThreshold)

	start := int64(len(content)) - int64(len("REPLACE_ME\n"))
	plan := types.FileReplacementPlan{
		Path: path,
		Tasks: []types.ReplacementTask{
			{Start: start, End: start + int64(len("REPLACE_ME")), ReplacementText: []byte("REPLACED")},
		},
	}

	exec := NewExecutor(ExecutorConfig{UndoDir: filepath.Join(dir, "undo")})
	_, err := exec.ApplyAll([]types.FileReplacementPlan{plan})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(got), "REPLACED\n")
	require.NotContains(t, string(got), "REPLACE_ME")
}
