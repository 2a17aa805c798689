package matcher

import (
	"sort"

	"github.com/cloudflare/ahocorasick"
)

// Prefilter accelerates Set.ScanLine by skipping literal matchers whose
// needle provably cannot occur in a line, the same keyword-gate idea
// titus's pkg/prefilter applies to rules before running their full
// pattern. Regex matchers and literal matchers with an empty needle are
// never filtered; they are always considered candidates.
type Prefilter struct {
	ac             *ahocorasick.Matcher
	literalIndices []int // index into the owning Set.matchers for each AC keyword, in keyword order
	alwaysIndices  []int // regex matchers and anything the AC can't gate
}

func newPrefilter(matchers []*Matcher) *Prefilter {
	pf := &Prefilter{}
	var keywords []string
	for i, m := range matchers {
		if m.IsRegex() {
			pf.alwaysIndices = append(pf.alwaysIndices, i)
			continue
		}
		ls, ok := m.strategy.(*literalStrategy)
		if !ok || ls.text == "" {
			pf.alwaysIndices = append(pf.alwaysIndices, i)
			continue
		}
		keywords = append(keywords, ls.text)
		pf.literalIndices = append(pf.literalIndices, i)
	}
	if len(keywords) > 0 {
		pf.ac = ahocorasick.NewStringMatcher(keywords)
	}
	return pf
}

// candidateIndices returns the indices of matchers that might match line,
// in ascending order. nMatchers is the total matcher count, used as a
// fast path when there is nothing to gate.
func (pf *Prefilter) candidateIndices(line string, nMatchers int) []int {
	if pf.ac == nil {
		all := make([]int, nMatchers)
		for i := range all {
			all[i] = i
		}
		return all
	}

	out := append([]int(nil), pf.alwaysIndices...)
	for _, hitIdx := range pf.ac.Match([]byte(line)) {
		out = append(out, pf.literalIndices[hitIdx])
	}
	sort.Ints(out)
	return dedupSorted(out)
}

func dedupSorted(s []int) []int {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
