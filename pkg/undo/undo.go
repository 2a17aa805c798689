// Package undo implements the UndoManager (§4.12): it persists, lists,
// and reverts UndoRecords, one self-describing JSON document per
// operation in the undo directory, named `<id>.json`. Reverting copies
// each record's backup files back onto their originals via the same
// temp-file-then-rename discipline the ReplacementExecutor uses to apply
// a plan, so undo is itself crash-safe.
package undo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// Manager lists and reverts UndoRecords stored under dir.
type Manager struct {
	dir string
}

// New builds a Manager rooted at dir, creating it lazily on first Save.
func New(dir string) *Manager {
	return &Manager{dir: dir}
}

func recordPath(dir string, id int64) string {
	return filepath.Join(dir, strconv.FormatInt(id, 10)+".json")
}

// Save writes record as dir/<id>.json. Dry-run records are never saved
// by the caller (the executor skips this for DryRun plans); Save itself
// has no opinion about that and will happily persist one if asked.
func Save(dir string, record types.UndoRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating undo directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing undo record %d: %w", record.ID, err)
	}

	path := recordPath(dir, record.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing undo record %d: %w", record.ID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("committing undo record %d: %w", record.ID, err)
	}
	return nil
}

// List returns every UndoRecord under dir in chronological order
// (ascending ID, which is a unix-ms timestamp).
func (m *Manager) List() ([]types.UndoRecord, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading undo directory %s: %w", m.dir, err)
	}

	var records []types.UndoRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.dir, e.Name()))
		if err != nil {
			continue
		}
		var r types.UndoRecord
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Get loads the single record identified by id.
func (m *Manager) Get(id int64) (types.UndoRecord, error) {
	data, err := os.ReadFile(recordPath(m.dir, id))
	if err != nil {
		return types.UndoRecord{}, fmt.Errorf("reading undo record %d: %w", id, err)
	}
	var r types.UndoRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return types.UndoRecord{}, fmt.Errorf("parsing undo record %d: %w", id, err)
	}
	return r, nil
}

// Preview reports, without touching the filesystem, which of a record's
// pairs are restorable (their backup file still exists).
func (m *Manager) Preview(id int64) ([]types.BackupPair, []string, error) {
	record, err := m.Get(id)
	if err != nil {
		return nil, nil, err
	}

	var restorable []types.BackupPair
	var missing []string
	for _, pair := range record.Pairs {
		if _, err := os.Stat(pair.BackupPath); err != nil {
			missing = append(missing, pair.BackupPath)
			continue
		}
		restorable = append(restorable, pair)
	}
	return restorable, missing, nil
}

// Undo reverts record id: every backup is verified to exist first
// (§4.12 step 1), then each pair is restored via copy-to-temp-then-
// rename, and finally the backups and the record document are removed.
// On partial failure, already-restored files stay restored and the
// error reports which paths remain unrestored.
func (m *Manager) Undo(id int64, dryRun bool) ([]string, error) {
	record, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, pair := range record.Pairs {
		if _, err := os.Stat(pair.BackupPath); err != nil {
			missing = append(missing, pair.BackupPath)
		}
	}
	if len(missing) > 0 {
		unrestored := make([]string, 0, len(record.Pairs))
		for _, pair := range record.Pairs {
			unrestored = append(unrestored, pair.OriginalPath)
		}
		return nil, &types.UndoError{RecordID: id, Remaining: unrestored, Cause: fmt.Errorf("missing backups: %v", missing)}
	}
	if dryRun {
		restored := make([]string, 0, len(record.Pairs))
		for _, pair := range record.Pairs {
			restored = append(restored, pair.OriginalPath)
		}
		return restored, nil
	}

	var restored []string
	var remaining []string
	for _, pair := range record.Pairs {
		if err := restoreOne(pair); err != nil {
			remaining = append(remaining, pair.OriginalPath)
			continue
		}
		restored = append(restored, pair.OriginalPath)
	}
	if len(remaining) > 0 {
		return restored, &types.UndoError{RecordID: id, Remaining: remaining, Cause: fmt.Errorf("restore failed")}
	}

	for _, pair := range record.Pairs {
		os.Remove(pair.BackupPath)
	}
	os.Remove(recordPath(m.dir, id))

	return restored, nil
}

func restoreOne(pair types.BackupPair) error {
	src, err := os.Open(pair.BackupPath)
	if err != nil {
		return err
	}
	defer src.Close()

	tmp := pair.OriginalPath + ".undo-tmp"
	dst, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(tmp)
		return err
	}
	dst.Close()

	if err := os.Rename(tmp, pair.OriginalPath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
