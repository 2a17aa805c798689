package cache

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is bumped whenever the on-disk layout changes
// incompatibly; a mismatch on load discards the cache rather than
// attempting a migration.
const SchemaVersion = 1

func createSchema(db *sql.DB) error {
	if err := createMetaTable(db); err != nil {
		return fmt.Errorf("creating meta table: %w", err)
	}
	if err := createEntriesTable(db); err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}
	if err := createChangeCountTable(db); err != nil {
		return fmt.Errorf("creating change_counts table: %w", err)
	}
	return nil
}

func createMetaTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY NOT NULL,
			value TEXT NOT NULL
		)
	`)
	return err
}

func createEntriesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			path                    TEXT PRIMARY KEY NOT NULL,
			size_bytes              INTEGER NOT NULL,
			modified_time_unix_nano INTEGER NOT NULL,
			content_hash            TEXT,
			pattern_set_fingerprint TEXT NOT NULL,
			matches_json            TEXT NOT NULL
		)
	`)
	return err
}

func createChangeCountTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS change_counts (
			path  TEXT PRIMARY KEY NOT NULL,
			count INTEGER NOT NULL
		)
	`)
	return err
}
