package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/rustscout/pkg/config"
	"github.com/praetorian-inc/rustscout/pkg/fileproc"
	"github.com/praetorian-inc/rustscout/pkg/search"
)

var (
	searchExtensions      []string
	searchIgnore          []string
	searchThreads         int
	searchBoundary        string
	searchHyphen          string
	searchRegex           bool
	searchCaseInsensitive bool
	searchEncoding        string
	searchIncremental     bool
	searchCachePath       string
	searchCacheStrategy   string
	searchMaxCacheSizeMB  int
	searchCompression     bool
	searchStatsOnly       bool
	searchFailOnMatch     bool
	searchJSON            bool
	searchNoColor         bool
)

var searchCmd = &cobra.Command{
	Use:   "search <root> <pattern> [pattern...]",
	Short: "Search a directory tree for one or more patterns",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSearch,
}

func init() {
	flags := searchCmd.Flags()
	flags.StringSliceVar(&searchExtensions, "extensions", nil, "Case-insensitive extension allowlist (e.g. go,rs)")
	flags.StringSliceVar(&searchIgnore, "ignore", nil, "Additional gitignore-style ignore patterns")
	flags.IntVar(&searchThreads, "threads", 0, "Worker thread count (default: logical CPUs)")
	flags.StringVar(&searchBoundary, "boundary", "none", `Word-boundary mode: "none" or "words"`)
	flags.StringVar(&searchHyphen, "hyphen", "boundary", `Hyphen handling: "boundary" or "joining"`)
	flags.BoolVar(&searchRegex, "regex", false, "Treat patterns as regular expressions")
	flags.BoolVar(&searchCaseInsensitive, "ignore-case", false, "Case-insensitive matching")
	flags.StringVar(&searchEncoding, "encoding", "failfast", `Encoding mode: "failfast" or "lossy"`)
	flags.BoolVar(&searchIncremental, "incremental", false, "Reuse a persisted cache for unchanged files")
	flags.StringVar(&searchCachePath, "cache-path", ".rustscout-cache.db", "Incremental cache file path")
	flags.StringVar(&searchCacheStrategy, "cache-strategy", "auto", `Change detection: "auto", "signature", or "sourcecontrol"`)
	flags.IntVar(&searchMaxCacheSizeMB, "max-cache-size-mb", 0, "Maximum cache size in MiB (accepted but not applied: the cache is not size-bounded)")
	flags.BoolVar(&searchCompression, "compression", false, "Cache compression (accepted but not applied: the cache is stored uncompressed)")
	flags.BoolVar(&searchStatsOnly, "stats-only", false, "Print only the aggregate summary, not per-file matches")
	flags.BoolVar(&searchFailOnMatch, "fail-on-match", false, "Exit 1 if any match is found")
	flags.BoolVar(&searchJSON, "json", false, "Emit JSON instead of human-readable output")
	flags.BoolVar(&searchNoColor, "no-color", false, "Disable colorized output")
}

func runSearch(cmd *cobra.Command, args []string) error {
	root := args[0]
	patterns := args[1:]

	applySearchConfigDefaults(cmd, loadConfig())

	defs, err := buildPatternDefinitions(patterns, searchRegex, searchCaseInsensitive, searchBoundary, searchHyphen)
	if err != nil {
		return err
	}

	encoding, err := parseEncodingMode(searchEncoding)
	if err != nil {
		return err
	}

	strategy, err := parseChangeStrategy(searchCacheStrategy)
	if err != nil {
		return err
	}

	threads := searchThreads
	if threads < 0 {
		return invalidArgs("--threads must not be negative")
	}

	engine := search.New(search.Config{
		Root:           root,
		Patterns:       defs,
		Extensions:     searchExtensions,
		IgnorePatterns: searchIgnore,
		Threads:        threads,
		Encoding:       encoding,
		Incremental:    searchIncremental,
		CachePath:      searchCachePath,
		ChangeStrategy: strategy,
		OnWarning: func(path, message string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", path, message)
		},
	})

	result, err := engine.Search(context.Background())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		if searchStatsOnly {
			result.Files = nil
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		s := newStyles(!searchNoColor)
		if !searchStatsOnly {
			for _, fr := range result.Files {
				printFileResult(out, s, fr)
			}
		}
		printSummary(out, s, result)
	}

	if searchFailOnMatch && result.TotalMatches > 0 {
		return &matchesFoundError{}
	}
	return nil
}

func parseEncodingMode(s string) (fileproc.EncodingMode, error) {
	switch s {
	case "", "failfast":
		return fileproc.FailFast, nil
	case "lossy":
		return fileproc.Lossy, nil
	default:
		return 0, invalidArgs("unknown encoding mode %q (want \"failfast\" or \"lossy\")", s)
	}
}

func parseChangeStrategy(s string) (search.ChangeStrategy, error) {
	switch s {
	case "", "auto":
		return search.ChangeAuto, nil
	case "signature":
		return search.ChangeSignature, nil
	case "sourcecontrol":
		return search.ChangeSourceControl, nil
	default:
		return 0, invalidArgs("unknown cache strategy %q (want \"auto\", \"signature\", or \"sourcecontrol\")", s)
	}
}

// applySearchConfigDefaults fills search flags the user did not pass
// explicitly from the loaded .rustscout.yaml, giving the config file
// precedence only where the command line is silent (§6 "mirrors every
// command-line option by name"). max_cache_size_mb, compression,
// context_before and context_after are parsed but not applied.
func applySearchConfigDefaults(cmd *cobra.Command, file *config.File) {
	if file.Search == nil {
		return
	}
	opts := file.Search
	flags := cmd.Flags()

	changed := func(name string) bool { return flags.Changed(name) }

	if !changed("extensions") && len(opts.Extensions) > 0 {
		searchExtensions = opts.Extensions
	}
	if !changed("ignore") && len(opts.IgnorePatterns) > 0 {
		searchIgnore = opts.IgnorePatterns
	}
	if !changed("threads") && opts.Threads > 0 {
		searchThreads = opts.Threads
	}
	if !changed("boundary") && opts.BoundaryMode != "" {
		searchBoundary = opts.BoundaryMode
	}
	if !changed("hyphen") && opts.HyphenHandling != "" {
		searchHyphen = opts.HyphenHandling
	}
	if !changed("regex") && opts.Regex {
		searchRegex = opts.Regex
	}
	if !changed("ignore-case") && opts.CaseInsensitive {
		searchCaseInsensitive = opts.CaseInsensitive
	}
	if !changed("encoding") && opts.Encoding != "" {
		searchEncoding = opts.Encoding
	}
	if !changed("incremental") && opts.Incremental {
		searchIncremental = opts.Incremental
	}
	if !changed("cache-path") && opts.CachePath != "" {
		searchCachePath = opts.CachePath
	}
	if !changed("cache-strategy") && opts.CacheStrategy != "" {
		searchCacheStrategy = opts.CacheStrategy
	}
	if !changed("stats-only") && opts.StatsOnly {
		searchStatsOnly = opts.StatsOnly
	}
	if !changed("fail-on-match") && opts.FailOnMatch {
		searchFailOnMatch = opts.FailOnMatch
	}
}
