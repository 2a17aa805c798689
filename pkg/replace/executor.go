package replace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/edsrzf/mmap-go"

	"github.com/praetorian-inc/rustscout/pkg/metrics"
	"github.com/praetorian-inc/rustscout/pkg/types"
	"github.com/praetorian-inc/rustscout/pkg/undo"
)

// These thresholds mirror fileproc's three-way split (§4.6, §4.11): small files
// are rewritten in memory, medium files are streamed, large files are
// mapped read-only and sliced into the output.
const (
	smallThreshold = metrics.SmallThreshold
	largeThreshold = metrics.LargeThreshold
)

// ExecutorConfig controls one ApplyAll call, covering every plan produced
// by a single `replace` invocation so they share one UndoRecord.
type ExecutorConfig struct {
	Backup           bool
	BackupDir        string // defaults to <UndoDir>/backups
	UndoDir          string
	PreserveMetadata bool
	DryRun           bool
	Description      string
	Now              func() time.Time // defaults to time.Now; overridable by tests
	Metrics          *metrics.Metrics
}

// Executor applies FileReplacementPlans atomically.
type Executor struct {
	cfg ExecutorConfig
}

// NewExecutor builds an Executor, defaulting BackupDir, Now, and Metrics.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.BackupDir == "" && cfg.UndoDir != "" {
		cfg.BackupDir = filepath.Join(cfg.UndoDir, "backups")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	return &Executor{cfg: cfg}
}

// ApplyAll applies every plan in order and returns the single UndoRecord
// covering the whole operation. On dry run, no file, backup, or undo
// document is written; the returned record still describes what would
// have happened, with DryRun set.
func (e *Executor) ApplyAll(plans []types.FileReplacementPlan) (types.UndoRecord, error) {
	id := e.cfg.Now().UnixNano() / int64(time.Millisecond)
	record := types.UndoRecord{
		ID:          id,
		Description: e.cfg.Description,
		DryRun:      e.cfg.DryRun,
	}

	for _, plan := range plans {
		if len(plan.Tasks) == 0 {
			continue
		}

		n, pair, err := e.applyOne(plan, id)
		if err != nil {
			return types.UndoRecord{}, err
		}
		record.TotalBytes += n
		record.FileCount++
		if pair != nil {
			record.Pairs = append(record.Pairs, *pair)
		}
	}

	if e.cfg.DryRun {
		return record, nil
	}

	if err := undo.Save(e.cfg.UndoDir, record); err != nil {
		return types.UndoRecord{}, &types.ReplaceError{Kind: types.ReplaceErrorIO, Path: e.cfg.UndoDir, Cause: err}
	}
	return record, nil
}

// applyOne applies a single file's plan and returns the byte count
// written and, if backup is enabled, the BackupPair linking the original
// to its copy.
func (e *Executor) applyOne(plan types.FileReplacementPlan, id int64) (int64, *types.BackupPair, error) {
	info, err := os.Stat(plan.Path)
	if err != nil {
		return 0, nil, &types.ReplaceError{Kind: types.ReplaceErrorIO, Path: plan.Path, Cause: err}
	}

	if e.cfg.DryRun {
		return info.Size(), nil, nil
	}

	var pair *types.BackupPair
	if e.cfg.Backup {
		p, err := e.backup(plan.Path, id)
		if err != nil {
			return 0, nil, err
		}
		pair = p
	}

	tmp, err := tempSibling(plan.Path)
	if err != nil {
		return 0, nil, &types.ReplaceError{Kind: types.ReplaceErrorIO, Path: plan.Path, Cause: err}
	}

	var n int64
	switch {
	case info.Size() < smallThreshold:
		n, err = applySmall(plan, tmp)
	case info.Size() < largeThreshold:
		n, err = applyMedium(plan, tmp)
	default:
		n, err = applyLarge(plan, tmp)
	}
	if err != nil {
		os.Remove(tmp)
		return 0, nil, &types.ReplaceError{Kind: types.ReplaceErrorIO, Path: plan.Path, Cause: err}
	}

	if e.cfg.PreserveMetadata {
		if err := os.Chmod(tmp, info.Mode()); err != nil {
			os.Remove(tmp)
			return 0, nil, &types.ReplaceError{Kind: types.ReplaceErrorMetadata, Path: plan.Path, Cause: err}
		}
		if err := os.Chtimes(tmp, time.Now(), info.ModTime()); err != nil {
			os.Remove(tmp)
			return 0, nil, &types.ReplaceError{Kind: types.ReplaceErrorMetadata, Path: plan.Path, Cause: err}
		}
	}

	if err := renameOnto(tmp, plan.Path); err != nil {
		os.Remove(tmp)
		return 0, nil, &types.ReplaceError{Kind: types.ReplaceErrorRename, Path: plan.Path, Cause: err}
	}

	return n, pair, nil
}

// backup copies the original file into cfg.BackupDir before it is
// rewritten, named `<basename>.<id>.bak` (§6 Undo log).
func (e *Executor) backup(path string, id int64) (*types.BackupPair, error) {
	if err := os.MkdirAll(e.cfg.BackupDir, 0o755); err != nil {
		return nil, &types.ReplaceError{Kind: types.ReplaceErrorIO, Path: e.cfg.BackupDir, Cause: err}
	}

	backupPath := filepath.Join(e.cfg.BackupDir, fmt.Sprintf("%s.%d.bak", filepath.Base(path), id))
	src, err := os.Open(path)
	if err != nil {
		return nil, &types.ReplaceError{Kind: types.ReplaceErrorIO, Path: path, Cause: err}
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return nil, &types.ReplaceError{Kind: types.ReplaceErrorIO, Path: backupPath, Cause: err}
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, &types.ReplaceError{Kind: types.ReplaceErrorIO, Path: backupPath, Cause: err}
	}

	return &types.BackupPair{OriginalPath: path, BackupPath: backupPath}, nil
}

// applySmall reads the whole file, applies edits in reverse offset
// order to keep earlier offsets stable, and writes the result to tmp.
func applySmall(plan types.FileReplacementPlan, tmp string) (int64, error) {
	content, err := os.ReadFile(plan.Path)
	if err != nil {
		return 0, err
	}

	for i := len(plan.Tasks) - 1; i >= 0; i-- {
		t := plan.Tasks[i]
		var buf []byte
		buf = append(buf, content[:t.Start]...)
		buf = append(buf, t.ReplacementText...)
		buf = append(buf, content[t.End:]...)
		content = buf
	}

	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return 0, err
	}
	return int64(len(content)), nil
}

// applyMedium streams the file through a reader/writer pair, copying
// verbatim bytes between tasks and emitting each replacement in place,
// bounding memory for files too large to comfortably hold twice over.
func applyMedium(plan types.FileReplacementPlan, tmp string) (int64, error) {
	src, err := os.Open(plan.Path)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	dst, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	defer dst.Close()

	w := bufio.NewWriter(dst)
	var written int64
	var cur int64

	for _, t := range plan.Tasks {
		n, err := io.CopyN(w, src, t.Start-cur)
		written += n
		if err != nil && err != io.EOF {
			return written, err
		}
		nw, err := w.Write(t.ReplacementText)
		written += int64(nw)
		if err != nil {
			return written, err
		}
		if _, err := src.Seek(t.End, io.SeekStart); err != nil {
			return written, err
		}
		cur = t.End
	}

	n, err := io.Copy(w, src)
	written += n
	if err != nil {
		return written, err
	}
	if err := w.Flush(); err != nil {
		return written, err
	}
	return written, nil
}

// applyLarge memory-maps the source read-only and writes a new sibling
// file by slicing the mapped range around each task, releasing the
// mapping before the caller renames onto the original (§9 "Mmap and
// mutation").
func applyLarge(plan types.FileReplacementPlan, tmp string) (int64, error) {
	src, err := os.Open(plan.Path)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	m, err := mmap.Map(src, mmap.RDONLY, 0)
	if err != nil {
		return 0, err
	}
	content := []byte(m)

	dst, err := os.Create(tmp)
	if err != nil {
		m.Unmap()
		return 0, err
	}
	defer dst.Close()

	w := bufio.NewWriter(dst)
	var written int64
	var cur int64
	for _, t := range plan.Tasks {
		n, err := w.Write(content[cur:t.Start])
		written += int64(n)
		if err != nil {
			m.Unmap()
			return written, err
		}
		n, err = w.Write(t.ReplacementText)
		written += int64(n)
		if err != nil {
			m.Unmap()
			return written, err
		}
		cur = t.End
	}
	n, err := w.Write(content[cur:])
	written += int64(n)

	if unmapErr := m.Unmap(); err == nil {
		err = unmapErr
	}
	if err != nil {
		return written, err
	}
	if err := w.Flush(); err != nil {
		return written, err
	}
	return written, nil
}

// tempSibling returns a temp file path in the same directory as path so
// the final rename stays on one filesystem/mount point.
func tempSibling(path string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return name, nil
}

// renameOnto renames tmp onto path, the single commit point that makes
// the whole operation crash-safe: before this call the original is
// intact, after it the replacement is. On filesystems that refuse a
// cross-mount rename, fall back to copy-then-truncate (§9).
func renameOnto(tmp, path string) error {
	if err := os.Rename(tmp, path); err == nil {
		return nil
	}

	src, err := os.Open(tmp)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	os.Remove(tmp)
	return nil
}
