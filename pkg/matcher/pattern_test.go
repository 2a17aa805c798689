package matcher

import (
	"testing"

	"github.com/praetorian-inc/rustscout/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestLiteralWholeWordsJoiningHyphen(t *testing.T) {
	// S1 / testable property 3: Joining mode means "test-case" contains
	// no match of "test".
	m, err := Compile(types.PatternDefinition{
		Text:           "test",
		BoundaryMode:   types.BoundaryWholeWords,
		HyphenHandling: types.HyphenJoining,
	})
	require.NoError(t, err)
	require.Empty(t, m.FindMatches("test-case"))

	m2, err := Compile(types.PatternDefinition{
		Text:           "test",
		BoundaryMode:   types.BoundaryWholeWords,
		HyphenHandling: types.HyphenBoundary,
	})
	require.NoError(t, err)
	require.Len(t, m2.FindMatches("test-case"), 1)
}

func TestUnderscoreNeverBoundary(t *testing.T) {
	for _, hh := range []types.HyphenHandling{types.HyphenBoundary, types.HyphenJoining} {
		m, err := Compile(types.PatternDefinition{
			Text:           "todo",
			BoundaryMode:   types.BoundaryWholeWords,
			HyphenHandling: hh,
		})
		require.NoError(t, err)
		require.Empty(t, m.FindMatches("my_todo_here"))
	}
}

func TestLiteralAndRegexAgreeOnWordBoundaries(t *testing.T) {
	// Testable property 2: word-boundary identity between strategies.
	text := "a fn foobar fn(x) fnord"
	lit, err := Compile(types.PatternDefinition{
		Text:         "fn",
		BoundaryMode: types.BoundaryWholeWords,
	})
	require.NoError(t, err)

	re, err := Compile(types.PatternDefinition{
		Text:         "fn",
		IsRegex:      true,
		BoundaryMode: types.BoundaryWholeWords,
	})
	require.NoError(t, err)

	require.Equal(t, lit.FindMatches(text), re.FindMatches(text))
}

func TestS1TodoScenario(t *testing.T) {
	m, err := Compile(types.PatternDefinition{
		Text:           "TODO",
		BoundaryMode:   types.BoundaryWholeWords,
		HyphenHandling: types.HyphenJoining,
	})
	require.NoError(t, err)

	lines := []string{"// TODO: fix", "let todos = 1", "TODO-later"}
	var all []Span
	for _, l := range lines {
		all = append(all, m.FindMatches(l)...)
	}
	require.Len(t, all, 1)
	require.Equal(t, Span{Start: 3, End: 7}, all[0])
}

func TestRegexBackreferenceGroupCount(t *testing.T) {
	m, err := Compile(types.PatternDefinition{
		Text:    `\bfn\s+(\w+)`,
		IsRegex: true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.GroupCount())
}

func TestEmptyPatternRejected(t *testing.T) {
	_, err := Compile(types.PatternDefinition{Text: "   "})
	require.Error(t, err)
	var ipe *types.InvalidPatternError
	require.ErrorAs(t, err, &ipe)
}

func TestLiteralWithRegexMetacharactersIsEscaped(t *testing.T) {
	m, err := Compile(types.PatternDefinition{Text: "a.b"})
	require.NoError(t, err)
	require.Empty(t, m.FindMatches("aXb"))
	require.Len(t, m.FindMatches("a.b"), 1)
}

func TestNonOverlappingOrdering(t *testing.T) {
	m, err := Compile(types.PatternDefinition{Text: "aa"})
	require.NoError(t, err)
	spans := m.FindMatches("aaaa")
	require.Equal(t, []Span{{0, 2}, {2, 4}}, spans)
}
