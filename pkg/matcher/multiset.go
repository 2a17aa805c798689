package matcher

import (
	"sort"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// Set holds an ordered list of Matchers and scans a line once, returning
// ordered matches tagged with their pattern index; hits of one pattern
// never overlap each other.
//
// Merge policy (§4.4): sort by (start, pattern_index) ascending. Hits
// from two different patterns that overlap are both emitted — callers
// distinguish them by PatternID. Hits from the *same* pattern that
// overlap (only reachable via regex look-around) keep the earlier hit
// and suppress the later one.
type Set struct {
	matchers []*Matcher
	pre      *Prefilter
}

// NewSet builds a Set from matchers in the given order and, when at
// least one is literal, attaches an Aho-Corasick Prefilter so Scan can skip
// per-pattern substring scans on lines that contain none of the literal
// needles.
func NewSet(matchers []*Matcher) *Set {
	return &Set{matchers: matchers, pre: newPrefilter(matchers)}
}

// ScanLine scans one line's text (already known to be line lineNumber of
// its file) and returns ordered matches, merged by the policy above.
func (s *Set) ScanLine(lineNumber int, line string) []types.Match {
	candidates := s.pre.candidateIndices(line, len(s.matchers))

	type hit struct {
		span      Span
		patternID int
	}
	var hits []hit
	for _, idx := range candidates {
		for _, span := range s.matchers[idx].FindMatches(line) {
			hits = append(hits, hit{span: span, patternID: idx})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].span.Start != hits[j].span.Start {
			return hits[i].span.Start < hits[j].span.Start
		}
		return hits[i].patternID < hits[j].patternID
	})

	var out []types.Match
	lastEndByPattern := make(map[int]int)
	for _, h := range hits {
		if lastEnd, ok := lastEndByPattern[h.patternID]; ok && h.span.Start < lastEnd {
			continue // same-pattern overlap: suppress the later hit
		}
		lastEndByPattern[h.patternID] = h.span.End
		out = append(out, types.Match{
			LineNumber: lineNumber,
			ByteStart:  h.span.Start,
			ByteEnd:    h.span.End,
			PatternID:  h.patternID,
			LineText:   line,
		})
	}
	return out
}

// Len reports the number of patterns in the set.
func (s *Set) Len() int { return len(s.matchers) }

// At returns the Matcher at index i.
func (s *Set) At(i int) *Matcher { return s.matchers[i] }
