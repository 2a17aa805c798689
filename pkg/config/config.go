// Package config loads the self-describing configuration document that
// mirrors every command-line option by name, resolved in precedence
// order: an explicit path, a local .rustscout.yaml, then the user config
// directory.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of .rustscout.yaml. Search and replace fields
// are named after the command-line options (context_before and
// context_after have no command-line counterpart); zero values mean
// "unset" and the CLI's own defaults apply.
type File struct {
	Search  *SearchOptions  `yaml:"search,omitempty"`
	Replace *ReplaceOptions `yaml:"replace,omitempty"`
	Logging *LoggingOptions `yaml:"logging,omitempty"`
}

// SearchOptions mirrors the search verb's options (§6).
type SearchOptions struct {
	Extensions      []string `yaml:"extensions,omitempty"`
	IgnorePatterns  []string `yaml:"ignore_patterns,omitempty"`
	Threads         int      `yaml:"threads,omitempty"`
	BoundaryMode    string   `yaml:"boundary_mode,omitempty"`
	HyphenHandling  string   `yaml:"hyphen_handling,omitempty"`
	Regex           bool     `yaml:"regex,omitempty"`
	CaseInsensitive bool     `yaml:"case_insensitive,omitempty"`
	ContextBefore   int      `yaml:"context_before,omitempty"`
	ContextAfter    int      `yaml:"context_after,omitempty"`
	Encoding        string   `yaml:"encoding,omitempty"`
	Incremental     bool     `yaml:"incremental,omitempty"`
	CachePath       string   `yaml:"cache_path,omitempty"`
	CacheStrategy   string   `yaml:"cache_strategy,omitempty"`
	MaxCacheSizeMB  int      `yaml:"max_cache_size_mb,omitempty"`
	Compression     bool     `yaml:"compression,omitempty"`
	StatsOnly       bool     `yaml:"stats_only,omitempty"`
	FailOnMatch     bool     `yaml:"fail_on_match,omitempty"`
}

// ReplaceOptions mirrors the replace verb's options (§6).
type ReplaceOptions struct {
	Regex            bool   `yaml:"regex,omitempty"`
	DryRun           bool   `yaml:"dry_run,omitempty"`
	Backup           bool   `yaml:"backup,omitempty"`
	BackupDir        string `yaml:"backup_dir,omitempty"`
	PreserveMetadata bool   `yaml:"preserve_metadata,omitempty"`
	Preview          bool   `yaml:"preview,omitempty"`
	Threads          int    `yaml:"threads,omitempty"`
	UndoDir          string `yaml:"undo_dir,omitempty"`
}

// LoggingOptions holds the logging section of the document (ambient
// stack, not a command verb). It is parsed but not read by the CLI,
// whose log/slog setup uses only -v/-q and RUSTSCOUT_LOG.
type LoggingOptions struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load resolves and parses the configuration document. explicitPath, if
// non-empty, is used as-is and it is an error for it not to exist.
// Otherwise a local .rustscout.yaml in cwd is tried, then
// $XDG_CONFIG_HOME/rustscout/config.yaml (or its platform equivalent via
// os.UserConfigDir). It is not an error for no file to exist at any of
// the non-explicit locations; Load then returns a zero-value File.
func Load(explicitPath string) (*File, string, error) {
	path, err := resolvePath(explicitPath)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		return &File{}, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading config %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, "", fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &f, path, nil
}

func resolvePath(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config path %s: %w", explicitPath, err)
		}
		return explicitPath, nil
	}

	if _, err := os.Stat(".rustscout.yaml"); err == nil {
		return ".rustscout.yaml", nil
	}

	if dir, err := os.UserConfigDir(); err == nil {
		candidate := filepath.Join(dir, "rustscout", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", nil
}
