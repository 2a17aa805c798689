// Package matcher compiles PatternDefinitions into matching strategies
// (literal substring scan or regexp2-backed regex), enforces whole-word
// matching (the Unicode-aware word-boundary predicate for literals, a
// `\b` wrap for regexes), and merges multiple patterns' hits into one
// ordered match stream that is non-overlapping per pattern, per §4.2-4.4
// of the search engine's specification.
package matcher

import (
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/rustscout/pkg/types"
)

// Span is a byte range [Start, End) within a scanned line.
type Span struct {
	Start, End int
}

// strategy is the compiled, shareable form of a PatternDefinition.
type strategy interface {
	// findAll returns ordered, non-overlapping matches in text.
	findAll(text string) []Span
}

// Matcher wraps one compiled strategy. Matchers are safe for concurrent
// use by multiple goroutines; they hold no mutable state after
// construction.
type Matcher struct {
	def      types.PatternDefinition
	strategy strategy
}

// Compile builds a Matcher for def, consulting the process-wide pattern
// cache (see cache.go) so repeated construction of the same pattern is
// O(1) after the first compile.
func Compile(def types.PatternDefinition) (*Matcher, error) {
	text := strings.TrimSpace(def.Text)
	if text == "" {
		return nil, &types.InvalidPatternError{Pattern: def.Text, Reason: "empty after trim"}
	}

	key := cacheKey{text: def.Text, boundary: def.BoundaryMode, hyphen: def.HyphenHandling, isRegex: def.IsRegex}
	s, err := compiledStrategy(key, func() (strategy, error) {
		if def.IsRegex {
			return compileRegexStrategy(def)
		}
		if containsRegexMeta(def.Text) {
			return compileRegexStrategy(types.PatternDefinition{
				Text:           regexp2Escape(def.Text),
				BoundaryMode:   def.BoundaryMode,
				HyphenHandling: def.HyphenHandling,
			})
		}
		return &literalStrategy{text: def.Text, boundary: def.BoundaryMode, hyphen: def.HyphenHandling}, nil
	})
	if err != nil {
		return nil, err
	}
	return &Matcher{def: def, strategy: s}, nil
}

// FindMatches returns ordered, non-overlapping byte-offset spans.
func (m *Matcher) FindMatches(text string) []Span {
	return m.strategy.findAll(text)
}

// containsRegexMeta reports whether s contains a byte that would need
// escaping to be treated as a regex metacharacter.
func containsRegexMeta(s string) bool {
	return strings.ContainsAny(s, `\.+*?()|[]{}^$`)
}

func regexp2Escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// literalStrategy finds every occurrence of text via substring scan,
// filtering candidates by the word-boundary predicate when configured.
type literalStrategy struct {
	text     string
	boundary types.BoundaryMode
	hyphen   types.HyphenHandling
}

func (l *literalStrategy) findAll(text string) []Span {
	if l.text == "" {
		return nil
	}
	var spans []Span
	offset := 0
	for {
		idx := strings.Index(text[offset:], l.text)
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start + len(l.text)
		if l.boundary == types.BoundaryWholeWords && !isWordBoundaryMatch(text, start, end, l.hyphen) {
			offset = start + 1
			continue
		}
		spans = append(spans, Span{Start: start, End: end})
		offset = end // advance past end: non-overlapping by construction
	}
	return spans
}

// regexStrategy compiles def.Text with regexp2, wrapping it in `\b(?:
// ...)\b` at compile time when BoundaryWholeWords is requested and the
// pattern does not already contain `\b`. Matches are found leftmost-first
// and are never post-filtered by the literal strategy's predicate: a
// pattern the user anchored with `\b` is taken verbatim, and a wrapped
// pattern relies on regexp2's `\b` alone, so the hyphen handling setting
// has no effect on regex matches.
type regexStrategy struct {
	re       *regexp2.Regexp
	boundary types.BoundaryMode
	hyphen   types.HyphenHandling
}

func compileRegexStrategy(def types.PatternDefinition) (*regexStrategy, error) {
	pattern := def.Text
	if def.BoundaryMode == types.BoundaryWholeWords && !strings.Contains(pattern, `\b`) {
		pattern = `\b(?:` + pattern + `)\b`
	}

	re, err := regexp2.Compile(pattern, regexp2.RE2)
	if err != nil {
		re, err = regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return nil, &types.InvalidPatternError{Pattern: def.Text, Reason: err.Error()}
		}
	}
	return &regexStrategy{re: re, boundary: def.BoundaryMode, hyphen: def.HyphenHandling}, nil
}

func (r *regexStrategy) findAll(text string) []Span {
	offsets := runeByteOffsets(text)
	var spans []Span
	m, err := r.re.FindStringMatch(text)
	for err == nil && m != nil {
		spans = append(spans, Span{Start: offsets[m.Index], End: offsets[m.Index+m.Length]})
		m, err = r.re.FindNextMatch(m)
	}
	return spans
}

// runeByteOffsets maps each rune index in text (0..rune count, inclusive)
// to its byte offset. regexp2 operates on a []rune view of the subject,
// so Match.Index/Match.Length are rune counts; every Span this package
// hands out is a byte range, so regex-backed strategies must translate
// through this table before constructing one.
func runeByteOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))
	return offsets
}

// GroupCount reports the number of capture groups in a compiled regex
// Matcher, used by the replacement planner to validate `$k` references.
// Group 0 (the whole match) is always valid and is not counted here.
func (m *Matcher) GroupCount() int {
	rs, ok := m.strategy.(*regexStrategy)
	if !ok {
		return 0
	}
	return len(rs.re.GetGroupNumbers()) - 1
}

// IsRegex reports whether the matcher's strategy is regex-backed.
func (m *Matcher) IsRegex() bool {
	_, ok := m.strategy.(*regexStrategy)
	return ok
}
