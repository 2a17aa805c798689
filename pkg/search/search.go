// Package search implements the SearchEngine (§4.9): it orchestrates
// walking, optional incremental change detection, parallel dispatch to
// the FileProcessor, ordered aggregation, and cache persistence. The
// worker-pool fan-out is grounded on titus's FilesystemEnumerator,
// which feeds a bounded path channel to a fixed number of errgroup
// goroutines (pkg/enum/filesystem.go), generalized here to also read
// back cached results so the pool only touches files that changed.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/rustscout/pkg/cache"
	"github.com/praetorian-inc/rustscout/pkg/changedetect"
	"github.com/praetorian-inc/rustscout/pkg/fileproc"
	"github.com/praetorian-inc/rustscout/pkg/matcher"
	"github.com/praetorian-inc/rustscout/pkg/metrics"
	"github.com/praetorian-inc/rustscout/pkg/types"
	"github.com/praetorian-inc/rustscout/pkg/walker"
)

// ChangeStrategy selects which ChangeDetector backs an incremental run.
type ChangeStrategy int

const (
	ChangeAuto ChangeStrategy = iota
	ChangeSignature
	ChangeSourceControl
)

// Config controls one Search call.
type Config struct {
	Root           string
	Patterns       []types.PatternDefinition
	Extensions     []string
	IgnorePatterns []string
	Threads        int
	Encoding       fileproc.EncodingMode
	Incremental    bool
	CachePath      string
	ChangeStrategy ChangeStrategy
	Metrics        *metrics.Metrics
	OnWarning      func(path, message string)
}

// Engine runs one configured search pipeline.
type Engine struct {
	cfg Config
}

// New builds an Engine, defaulting Metrics and OnWarning so callers
// outside the CLI need not special-case them.
func New(cfg Config) *Engine {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.OnWarning == nil {
		cfg.OnWarning = func(string, string) {}
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	return &Engine{cfg: cfg}
}

// Fingerprint returns the pattern_set_fingerprint this engine's
// configured patterns produce, usable to decide whether a previously
// saved cache is reusable for a different Config.
func (e *Engine) Fingerprint() string {
	return fingerprint(e.cfg.Patterns)
}

func fingerprint(defs []types.PatternDefinition) string {
	h := sha256.New()
	for _, d := range defs {
		fmt.Fprintf(h, "%s\x00%t\x00%d\x00%d\x00", d.Text, d.IsRegex, d.BoundaryMode, d.HyphenHandling)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Search runs the full pipeline and returns the aggregated result.
func (e *Engine) Search(ctx context.Context) (types.SearchResult, error) {
	set, err := buildMatcherSet(e.cfg.Patterns)
	if err != nil {
		return types.SearchResult{}, err
	}

	paths := walker.New(walker.Config{
		Root:           e.cfg.Root,
		IgnorePatterns: e.cfg.IgnorePatterns,
		Extensions:     e.cfg.Extensions,
	}, func(werr *types.WalkError) {
		e.cfg.OnWarning(werr.Path, werr.Error())
	}).Walk()

	fp := fingerprint(e.cfg.Patterns)

	var (
		fileCache *cache.IncrementalCache
		reuse     map[string]types.FileResult
	)
	if e.cfg.Incremental && e.cfg.CachePath != "" {
		fileCache, err = cache.Open(e.cfg.CachePath, fp)
		if err != nil {
			e.cfg.OnWarning(e.cfg.CachePath, fmt.Sprintf("cache load degraded to non-incremental: %v", err))
			fileCache = nil
		}
	}

	rescan := paths
	if fileCache != nil {
		reuse, rescan = partition(fileCache, paths, e.cfg.Root, e.cfg.ChangeStrategy)
	}

	fresh, err := e.processAll(ctx, rescan, set)
	if err != nil {
		return types.SearchResult{}, err
	}

	results := make([]types.FileResult, 0, len(paths))
	var totalMatches, filesMatched int
	live := make(map[string]bool, len(paths))
	for _, p := range paths {
		live[p] = true
		var fr types.FileResult
		if cached, ok := reuse[p]; ok {
			fr = cached
			fr.WasCached = true
		} else if f, ok := fresh[p]; ok {
			fr = f
		} else {
			continue
		}
		results = append(results, fr)
		totalMatches += len(fr.Matches)
		if len(fr.Matches) > 0 {
			filesMatched++
		}
		if fileCache != nil {
			sig := types.FileSignature{SizeBytes: fr.BytesScanned}
			if info, statErr := os.Stat(p); statErr == nil {
				sig.ModifiedTime = info.ModTime()
			}
			fileCache.Record(types.CacheEntry{
				Path:      p,
				Signature: sig,
				Matches:   fr.Matches,
			})
			fileCache.MarkChanged(p, !fr.WasCached)
			if fr.WasCached {
				e.cfg.Metrics.RecordCacheHit()
			} else {
				e.cfg.Metrics.RecordCacheMiss()
			}
		}
	}

	if fileCache != nil {
		fileCache.Prune(live)
		if err := fileCache.Save(); err != nil {
			e.cfg.OnWarning(e.cfg.CachePath, fmt.Sprintf("cache save failed: %v", err))
		}
	}

	return types.SearchResult{
		Files:             results,
		TotalMatches:      totalMatches,
		TotalFilesScanned: len(paths),
		TotalFilesMatched: filesMatched,
		Metrics:           e.cfg.Metrics.Snapshot(),
	}, nil
}

func buildMatcherSet(defs []types.PatternDefinition) (*matcher.Set, error) {
	matchers := make([]*matcher.Matcher, 0, len(defs))
	for _, d := range defs {
		m, err := matcher.Compile(d)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	return matcher.NewSet(matchers), nil
}

// partition splits paths into those whose cache entry is still usable
// (ChangeStatus Unchanged) and those that must be rescanned, using the
// ChangeDetector strategy selected for this run (§4.7).
func partition(fileCache *cache.IncrementalCache, paths []string, root string, strategy ChangeStrategy) (map[string]types.FileResult, []string) {
	previous := make(map[string]types.FileSignature, len(paths))
	for _, p := range paths {
		if entry, ok := fileCache.Lookup(p); ok {
			previous[p] = entry.Signature
		}
	}

	detector := selectDetector(strategy, root, previous)
	statuses := detector.Detect(paths)

	reuse := make(map[string]types.FileResult)
	var rescan []string
	for _, p := range paths {
		if statuses[p].Status == types.Unchanged {
			if entry, ok := fileCache.Lookup(p); ok {
				reuse[p] = types.FileResult{Path: p, Matches: entry.Matches, BytesScanned: entry.Signature.SizeBytes}
				continue
			}
		}
		rescan = append(rescan, p)
	}
	return reuse, rescan
}

// selectDetector builds the ChangeDetector named by strategy. Source-
// control detection degrades to signature comparison when root is not
// inside a recognized version-control tree (§4.7), the same degradation
// changedetect.NewAuto already implements for ChangeAuto.
func selectDetector(strategy ChangeStrategy, root string, previous map[string]types.FileSignature) changedetect.Detector {
	switch strategy {
	case ChangeSourceControl:
		if sc, err := changedetect.NewSourceControlDetector(root); err == nil {
			return sc
		}
		return changedetect.NewSignatureDetector(previous)
	case ChangeAuto:
		return changedetect.NewAuto(root, previous)
	default:
		return changedetect.NewSignatureDetector(previous)
	}
}

func (e *Engine) processAll(ctx context.Context, paths []string, set *matcher.Set) (map[string]types.FileResult, error) {
	proc := fileproc.New(fileproc.Config{
		Encoding:  e.cfg.Encoding,
		Metrics:   e.cfg.Metrics,
		OnWarning: e.cfg.OnWarning,
	})

	type indexed struct {
		index int
		path  string
	}
	work := make(chan indexed, e.cfg.Threads*2)
	out := make([]types.FileResult, len(paths))
	done := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(work)
		for i, p := range paths {
			select {
			case work <- indexed{i, p}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < e.cfg.Threads; i++ {
		g.Go(func() error {
			for item := range work {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				result, err := proc.ProcessFile(item.path, set)
				if err != nil {
					e.cfg.OnWarning(item.path, err.Error())
					continue
				}
				out[item.index] = result
				done[item.index] = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	byPath := make(map[string]types.FileResult, len(paths))
	for i, p := range paths {
		if done[i] {
			byPath[p] = out[i]
		}
	}
	return byPath, nil
}
