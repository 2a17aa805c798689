package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// styles holds color formatters for human-readable search/replace/undo
// output, the same enabled/disabled formatter-set shape
// cmd/titus/report.go builds for its finding reports.
type styles struct {
	path     *color.Color
	line     *color.Color
	match    *color.Color
	heading  *color.Color
	metadata *color.Color
}

// newStyles builds formatters honoring --no-color and the NO_COLOR
// convention via color.NoColor, which fatih/color already wires up.
func newStyles(enabled bool) *styles {
	s := &styles{
		path:     color.New(color.Bold, color.FgHiCyan),
		line:     color.New(color.FgHiGreen),
		match:    color.New(color.Bold, color.FgYellow),
		heading:  color.New(color.Bold),
		metadata: color.New(color.FgHiBlack),
	}
	if !enabled {
		s.path.DisableColor()
		s.line.DisableColor()
		s.match.DisableColor()
		s.heading.DisableColor()
		s.metadata.DisableColor()
	}
	return s
}

// printFileResult writes one file's matches in a `grep -n`-adjacent
// style: the path on its own line, then one `line:col: highlighted-line`
// per match.
func printFileResult(w io.Writer, s *styles, fr types.FileResult) {
	if len(fr.Matches) == 0 {
		return
	}
	s.path.Fprintln(w, fr.Path)
	for _, m := range fr.Matches {
		prefix := fmt.Sprintf("%d:%d: ", m.LineNumber, m.ByteStart+1)
		s.line.Fprint(w, prefix)
		highlightLine(w, s, m)
		fmt.Fprintln(w)
	}
}

func highlightLine(w io.Writer, s *styles, m types.Match) {
	fmt.Fprint(w, m.LineText[:m.ByteStart])
	s.match.Fprint(w, m.LineText[m.ByteStart:m.ByteEnd])
	fmt.Fprint(w, m.LineText[m.ByteEnd:])
}

// printSummary writes the SearchResult's aggregate counters.
func printSummary(w io.Writer, s *styles, result types.SearchResult) {
	s.heading.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  matches:        %d\n", result.TotalMatches)
	fmt.Fprintf(w, "  files scanned:  %d\n", result.TotalFilesScanned)
	fmt.Fprintf(w, "  files matched:  %d\n", result.TotalFilesMatched)
	s.metadata.Fprintf(w, "  cache hits/misses: %d/%d | small/buffered/mmap files: %d/%d/%d\n",
		result.Metrics.CacheHits, result.Metrics.CacheMisses,
		result.Metrics.SmallFiles, result.Metrics.BufferedFiles, result.Metrics.MmapFiles)
}
