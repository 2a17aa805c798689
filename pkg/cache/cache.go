// Package cache implements the IncrementalCache (§4.8): a persistent
// map from absolute path to CacheEntry, backed by a single SQLite file
// the same way titus's SQLiteStore persists its blob/match tables
// (PRAGMA journal_mode=WAL, schema created when the cache is saved;
// Open only reads an existing file). Atomicity across a
// save is achieved by building the new database in a temp file and
// renaming it over the configured path, never writing in place.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// changeWindow is how many recent saves contribute to the
// frequently_changed rolling counter (§ SUPPLEMENTED FEATURES).
const changeWindow = 5

// frequentThreshold is the counter value (out of changeWindow) at or
// above which a path is reported as frequently changed.
const frequentThreshold = 3

// IncrementalCache holds the in-memory working set for one search and
// persists it atomically to path on Save.
type IncrementalCache struct {
	mu          sync.Mutex
	path        string
	fingerprint string
	entries     map[string]types.CacheEntry
	changeCount map[string]int
	hits        int64
	misses      int64
}

// Open loads path if it exists. A missing file, a version mismatch, or
// any read failure yields an empty cache rather than an error: per
// §4.8 this never aborts a search, it only disables incremental reuse
// for this run. The caller supplies fingerprint so that stale entries
// from a different pattern set are invalidated on read.
func Open(path, fingerprint string) (*IncrementalCache, error) {
	c := &IncrementalCache{
		path:        path,
		fingerprint: fingerprint,
		entries:     make(map[string]types.CacheEntry),
		changeCount: make(map[string]int),
	}

	if _, err := os.Stat(path); err != nil {
		return c, nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return c, nil
	}
	defer db.Close()

	var version int
	if err := db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&version); err != nil {
		return c, nil
	}
	if version != SchemaVersion {
		return c, nil
	}

	rows, err := db.Query("SELECT path, size_bytes, modified_time_unix_nano, content_hash, pattern_set_fingerprint, matches_json FROM entries")
	if err != nil {
		return c, nil
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p, hash, fp, matchesJSON string
			size, mtimeNano          int64
		)
		if err := rows.Scan(&p, &size, &mtimeNano, &hash, &fp, &matchesJSON); err != nil {
			continue
		}
		if fp != fingerprint {
			continue
		}
		var matches []types.Match
		if err := json.Unmarshal([]byte(matchesJSON), &matches); err != nil {
			continue
		}
		c.entries[p] = types.CacheEntry{
			Path: p,
			Signature: types.FileSignature{
				SizeBytes:    size,
				ModifiedTime: time.Unix(0, mtimeNano),
				ContentHash:  hash,
			},
			Matches:     matches,
			Fingerprint: fp,
		}
	}

	countRows, err := db.Query("SELECT path, count FROM change_counts")
	if err == nil {
		defer countRows.Close()
		for countRows.Next() {
			var p string
			var n int
			if countRows.Scan(&p, &n) == nil {
				c.changeCount[p] = n
			}
		}
	}

	return c, nil
}

// Lookup returns the entry for path if one exists and matches the
// current fingerprint. Every call records a hit or a miss; callers decide
// usability from ChangeStatus separately.
func (c *IncrementalCache) Lookup(path string) (types.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok || e.Fingerprint != c.fingerprint {
		c.misses++
		return types.CacheEntry{}, false
	}
	c.hits++
	return e, true
}

// Record stores or replaces the entry for a freshly scanned path.
func (c *IncrementalCache) Record(entry types.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry.Fingerprint = c.fingerprint
	c.entries[entry.Path] = entry
}

// Prune drops every entry whose path is not in live, reflecting files
// deleted since the previous run.
func (c *IncrementalCache) Prune(live map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p := range c.entries {
		if !live[p] {
			delete(c.entries, p)
			delete(c.changeCount, p)
		}
	}
}

// MarkChanged updates the rolling frequently-changed counter for path
// based on whether this run's ChangeStatus was Unchanged.
func (c *IncrementalCache) MarkChanged(path string, changed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.changeCount[path]
	if changed {
		if n < changeWindow {
			n++
		}
	} else if n > 0 {
		n--
	}
	c.changeCount[path] = n
}

// HitRate returns hits / (hits + misses), or 0 if nothing was looked up.
func (c *IncrementalCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// FrequentlyChanged returns paths whose rolling counter has reached
// frequentThreshold out of the last changeWindow runs.
func (c *IncrementalCache) FrequentlyChanged() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for p, n := range c.changeCount {
		if n >= frequentThreshold {
			out = append(out, p)
		}
	}
	return out
}

// Save writes the full cache to a temp file beside path and renames it
// into place, so a crash mid-write never corrupts the previous cache.
func (c *IncrementalCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tmp := c.path + ".tmp"
	_ = os.Remove(tmp)

	db, err := sql.Open("sqlite", tmp)
	if err != nil {
		return &types.CacheError{Path: c.path, Cause: err}
	}

	if err := c.writeTo(db); err != nil {
		db.Close()
		os.Remove(tmp)
		return &types.CacheError{Path: c.path, Cause: err}
	}
	db.Close()

	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return &types.CacheError{Path: c.path, Cause: err}
	}
	return nil
}

func (c *IncrementalCache) writeTo(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enabling WAL mode: %w", err)
	}
	if err := createSchema(db); err != nil {
		return err
	}

	if _, err := db.Exec("DELETE FROM meta"); err != nil {
		return err
	}
	if _, err := db.Exec("INSERT INTO meta (key, value) VALUES ('version', ?)", fmt.Sprint(SchemaVersion)); err != nil {
		return err
	}
	if _, err := db.Exec("INSERT INTO meta (key, value) VALUES ('last_run_time', ?)", time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	for _, e := range c.entries {
		matchesJSON, err := json.Marshal(e.Matches)
		if err != nil {
			return fmt.Errorf("serializing matches for %s: %w", e.Path, err)
		}
		hash := e.Signature.ContentHash
		_, err = db.Exec(`
			INSERT INTO entries (path, size_bytes, modified_time_unix_nano, content_hash, pattern_set_fingerprint, matches_json)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				size_bytes = excluded.size_bytes,
				modified_time_unix_nano = excluded.modified_time_unix_nano,
				content_hash = excluded.content_hash,
				pattern_set_fingerprint = excluded.pattern_set_fingerprint,
				matches_json = excluded.matches_json
		`, e.Path, e.Signature.SizeBytes, e.Signature.ModifiedTime.UnixNano(), hash, e.Fingerprint, string(matchesJSON))
		if err != nil {
			return fmt.Errorf("writing entry for %s: %w", e.Path, err)
		}
	}

	for p, n := range c.changeCount {
		_, err := db.Exec(`
			INSERT INTO change_counts (path, count) VALUES (?, ?)
			ON CONFLICT(path) DO UPDATE SET count = excluded.count
		`, p, n)
		if err != nil {
			return fmt.Errorf("writing change count for %s: %w", p, err)
		}
	}

	return nil
}

// Metadata reports the cache's metadata block (§3 IncrementalCache) as
// of this call: LastRunTime is the current time, and HitRate and
// FrequentlyChanged come from the in-memory state. Save persists only
// the version, the last run time and the per-path change counters.
func (c *IncrementalCache) Metadata() types.CacheMetadata {
	return types.CacheMetadata{
		Version:           SchemaVersion,
		LastRunTime:       time.Now().UTC(),
		HitRate:           c.HitRate(),
		CompressionUsed:   false,
		FrequentlyChanged: c.FrequentlyChanged(),
	}
}
