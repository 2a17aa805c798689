// Package changedetect implements the ChangeDetector (§4.7): it
// classifies each candidate path as Unchanged/Added/Modified/Renamed/
// Deleted relative to a prior run, using either a cheap (size, mtime)
// signature comparison or the surrounding version-control status.
package changedetect

import (
	"os"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// Detector classifies paths. Unknown paths default to Added; detector
// errors degrade to classifying every path Modified rather than
// aborting the search.
type Detector interface {
	Detect(paths []string) map[string]types.ChangeResult
}

// SignatureDetector compares each path's current (size, mtime) against
// the signature recorded for it in a prior run.
type SignatureDetector struct {
	previous map[string]types.FileSignature
}

// NewSignatureDetector builds a detector scoped to one run's prior
// signatures, typically sourced from the IncrementalCache.
func NewSignatureDetector(previous map[string]types.FileSignature) *SignatureDetector {
	return &SignatureDetector{previous: previous}
}

func (d *SignatureDetector) Detect(paths []string) map[string]types.ChangeResult {
	out := make(map[string]types.ChangeResult, len(paths))
	for _, p := range paths {
		out[p] = d.detectOne(p)
	}
	return out
}

func (d *SignatureDetector) detectOne(path string) types.ChangeResult {
	info, err := os.Stat(path)
	if err != nil {
		return types.ChangeResult{Status: types.Modified}
	}
	prev, ok := d.previous[path]
	if !ok {
		return types.ChangeResult{Status: types.Added}
	}
	current := types.FileSignature{SizeBytes: info.Size(), ModifiedTime: info.ModTime()}
	if prev.Equal(current) {
		return types.ChangeResult{Status: types.Unchanged}
	}
	return types.ChangeResult{Status: types.Modified}
}

// NewAuto picks SourceControl when root is under a recognized
// version-control tree, otherwise Signature.
func NewAuto(root string, previous map[string]types.FileSignature) Detector {
	if sc, err := NewSourceControlDetector(root); err == nil {
		return sc
	}
	return NewSignatureDetector(previous)
}
