package changedetect

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

func TestSignatureDetectorClassifiesAddedModifiedUnchanged(t *testing.T) {
	dir := t.TempDir()
	unchangedPath := filepath.Join(dir, "unchanged.txt")
	modifiedPath := filepath.Join(dir, "modified.txt")
	addedPath := filepath.Join(dir, "added.txt")

	require.NoError(t, os.WriteFile(unchangedPath, []byte("same"), 0o644))
	require.NoError(t, os.WriteFile(modifiedPath, []byte("original"), 0o644))
	require.NoError(t, os.WriteFile(addedPath, []byte("new"), 0o644))

	unchangedInfo, err := os.Stat(unchangedPath)
	require.NoError(t, err)
	modifiedInfo, err := os.Stat(modifiedPath)
	require.NoError(t, err)

	previous := map[string]types.FileSignature{
		unchangedPath: {SizeBytes: unchangedInfo.Size(), ModifiedTime: unchangedInfo.ModTime()},
		modifiedPath:  {SizeBytes: 1, ModifiedTime: modifiedInfo.ModTime().Add(-time.Hour)},
	}

	d := NewSignatureDetector(previous)
	results := d.Detect([]string{unchangedPath, modifiedPath, addedPath})

	require.Equal(t, types.Unchanged, results[unchangedPath].Status)
	require.Equal(t, types.Modified, results[modifiedPath].Status)
	require.Equal(t, types.Added, results[addedPath].Status)
}

func TestSignatureDetectorMissingFileDegradesToModified(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.txt")
	d := NewSignatureDetector(map[string]types.FileSignature{})
	results := d.Detect([]string{missing})
	require.Equal(t, types.Modified, results[missing].Status)
}

func TestNewAutoFallsBackToSignatureOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	d := NewAuto(dir, map[string]types.FileSignature{})
	_, ok := d.(*SignatureDetector)
	require.True(t, ok)
}
