package matcher

import (
	"testing"

	"github.com/praetorian-inc/rustscout/pkg/types"
	"github.com/stretchr/testify/require"
)

func buildSet(t *testing.T, defs ...types.PatternDefinition) *Set {
	t.Helper()
	var matchers []*Matcher
	for _, d := range defs {
		m, err := Compile(d)
		require.NoError(t, err)
		matchers = append(matchers, m)
	}
	return NewSet(matchers)
}

func TestScanLineOrdersByStartThenPatternID(t *testing.T) {
	set := buildSet(t,
		types.PatternDefinition{Text: "foo"},
		types.PatternDefinition{Text: "bar"},
	)
	matches := set.ScanLine(1, "foobar")
	require.Len(t, matches, 2)
	require.Equal(t, 0, matches[0].PatternID)
	require.Equal(t, 1, matches[1].PatternID)
}

func TestScanLineEmitsBothOverlappingDifferentPatterns(t *testing.T) {
	set := buildSet(t,
		types.PatternDefinition{Text: "foobar"},
		types.PatternDefinition{Text: "bar"},
	)
	matches := set.ScanLine(1, "foobar")
	require.Len(t, matches, 2)
}

func TestScanLineSamePatternHitsDoNotOverlap(t *testing.T) {
	// A real engine does not hand back overlapping hits for one pattern,
	// so this checks the observable result on adjacent candidates: the
	// hits of a single pattern come out ordered and non-overlapping.
	set := buildSet(t, types.PatternDefinition{Text: "aa"})
	matches := set.ScanLine(1, "aaaa")
	require.Len(t, matches, 2)
	require.Less(t, matches[0].ByteEnd, matches[1].ByteEnd+1)
	require.LessOrEqual(t, matches[0].ByteEnd, matches[1].ByteStart)
}

func TestPrefilterSkipsNonMatchingLiterals(t *testing.T) {
	set := buildSet(t,
		types.PatternDefinition{Text: "needle"},
		types.PatternDefinition{Text: "absent"},
	)
	matches := set.ScanLine(1, "a needle in a haystack")
	require.Len(t, matches, 1)
	require.Equal(t, 0, matches[0].PatternID)
}
