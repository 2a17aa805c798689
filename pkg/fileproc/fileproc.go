// Package fileproc implements the adaptive per-file read pipeline: small
// files are loaded whole, medium files are scanned with a reusable
// growable line buffer, and large files are memory-mapped read-only
// (§4.6). Line numbering is 1-based and strictly monotonic across all
// three strategies; CR/LF and LF are both recognized as terminators, and
// a trailing partial line is still scanned.
package fileproc

import (
	"errors"
	"os"

	"github.com/praetorian-inc/rustscout/pkg/matcher"
	"github.com/praetorian-inc/rustscout/pkg/metrics"
	"github.com/praetorian-inc/rustscout/pkg/types"
)

// EncodingMode controls how invalid UTF-8 is handled.
type EncodingMode int

const (
	// FailFast aborts this file on the first invalid sequence.
	FailFast EncodingMode = iota
	// Lossy decodes with invalid sequences replaced by U+FFFD.
	Lossy
)

const (
	smallThreshold = metrics.SmallThreshold
	largeThreshold = metrics.LargeThreshold
)

// Config controls one ProcessFile call.
type Config struct {
	Encoding EncodingMode
	Metrics  *metrics.Metrics
	// OnWarning is invoked with a one-line message for non-fatal
	// conditions (e.g. a Lossy-mode replacement).
	OnWarning func(path, message string)
}

// Processor reads one file with the strategy its size selects and scans
// every produced line through a matcher.Set.
type Processor struct {
	cfg Config
}

// New builds a Processor. A nil Metrics is replaced with a throwaway
// instance so callers need not special-case metrics-free use (e.g. unit
// tests of the replace pipeline).
func New(cfg Config) *Processor {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.OnWarning == nil {
		cfg.OnWarning = func(string, string) {}
	}
	return &Processor{cfg: cfg}
}

// ProcessFile reads path and scans every line through set, returning a
// FileResult with accurate line numbers. I/O failures are classified and
// returned as *types.FileError; callers skip the file on error rather
// than aborting the whole search.
func (p *Processor) ProcessFile(path string, set *matcher.Set) (types.FileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		// Metadata failure downgrades the strategy to buffered; a file
		// that cannot be opened either reports the open error.
		matches, binary, bufErr := p.scanBuffered(path, set)
		if bufErr != nil {
			return types.FileResult{}, bufErr
		}
		return types.FileResult{Path: path, Matches: matches, WasBinary: binary}, nil
	}

	size := info.Size()
	p.cfg.Metrics.RecordFileProcessing(size)

	var (
		matches []types.Match
		binary  bool
	)
	switch {
	case size < smallThreshold:
		matches, binary, err = p.scanSmall(path, set)
	case size < largeThreshold:
		matches, binary, err = p.scanBuffered(path, set)
	default:
		matches, binary, err = p.scanMmap(path, set)
	}
	if err != nil {
		// A failed memory-mapped read is retried once with the buffered
		// strategy before the error is returned; a failure of the small
		// or buffered strategy is returned as is.
		if size >= largeThreshold {
			matches, binary, err = p.scanBuffered(path, set)
		}
		if err != nil {
			return types.FileResult{}, err
		}
	}

	return types.FileResult{
		Path:         path,
		Matches:      matches,
		BytesScanned: size,
		WasBinary:    binary,
	}, nil
}

func classifyStatError(path string, err error) *types.FileError {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &types.FileError{Kind: types.FileNotFound, Path: path, Cause: err}
	case errors.Is(err, os.ErrPermission):
		return &types.FileError{Kind: types.FilePermissionDenied, Path: path, Cause: err}
	default:
		return &types.FileError{Kind: types.FileIO, Path: path, Cause: err}
	}
}

func classifyOpenError(path string, err error) *types.FileError {
	return classifyStatError(path, err)
}
