package replace

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/rustscout/pkg/matcher"
	"github.com/praetorian-inc/rustscout/pkg/types"
)

func scanFile(t *testing.T, content string, defs []types.PatternDefinition) types.FileResult {
	t.Helper()
	matchers := make([]*matcher.Matcher, len(defs))
	for i, d := range defs {
		m, err := matcher.Compile(d)
		require.NoError(t, err)
		matchers[i] = m
	}
	set := matcher.NewSet(matchers)

	var all []types.Match
	lineNumber := 1
	start := 0
	for i := 0; i <= len(content); i++ {
		if i == len(content) || content[i] == '\n' {
			all = append(all, set.ScanLine(lineNumber, content[start:i])...)
			lineNumber++
			start = i + 1
		}
	}
	return types.FileResult{Matches: all}
}

func TestBuildPlanProducesNonOverlappingSortedTasks(t *testing.T) {
	defs := []types.PatternDefinition{{Text: "old_api"}}
	templates := []string{"new_api"}
	p, err := NewPlanner(defs, templates)
	require.NoError(t, err)

	content := "use old_api here\ncall old_api again\n"
	result := scanFile(t, content, defs)

	plan, err := p.BuildPlan("f.go", []byte(content), result)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 2)
	require.Less(t, plan.Tasks[0].Start, plan.Tasks[1].Start)
	require.Equal(t, "new_api", string(plan.Tasks[0].ReplacementText))
}

func TestBuildPlanConflictOnOverlap(t *testing.T) {
	defs := []types.PatternDefinition{{Text: "foobar"}, {Text: "bar"}}
	templates := []string{"X", "Y"}
	p, err := NewPlanner(defs, templates)
	require.NoError(t, err)

	content := "foobar\n"
	result := scanFile(t, content, defs)

	_, err = p.BuildPlan("f.go", []byte(content), result)
	require.Error(t, err)
	var conflict *types.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestNewPlannerRejectsUnresolvableBackref(t *testing.T) {
	defs := []types.PatternDefinition{{Text: `fn (\w+)`, IsRegex: true}}
	templates := []string{"fn $2"}
	_, err := NewPlanner(defs, templates)
	require.Error(t, err)
	var ipe *types.InvalidPatternError
	require.ErrorAs(t, err, &ipe)
}

func TestNewPlannerAcceptsGroupZero(t *testing.T) {
	defs := []types.PatternDefinition{{Text: "foo"}}
	templates := []string{"[$0]"}
	_, err := NewPlanner(defs, templates)
	require.NoError(t, err)
}

func TestBuildPlanResolvesCaptureGroups(t *testing.T) {
	// S2: `fn new_$1` on `fn foo() {}` -> `fn new_foo() {}`.
	defs := []types.PatternDefinition{{Text: `\bfn\s+(\w+)`, IsRegex: true}}
	templates := []string{"fn new_$1"}
	p, err := NewPlanner(defs, templates)
	require.NoError(t, err)

	content := "fn foo() {}\nfn bar() {}\n"
	result := scanFile(t, content, defs)

	plan, err := p.BuildPlan("f.rs", []byte(content), result)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 2)
	require.Equal(t, "fn new_foo", string(plan.Tasks[0].ReplacementText))
	require.Equal(t, "fn new_bar", string(plan.Tasks[1].ReplacementText))
}

func TestBuildPlanEmptyResultProducesEmptyPlan(t *testing.T) {
	defs := []types.PatternDefinition{{Text: "old"}}
	templates := []string{"new"}
	p, err := NewPlanner(defs, templates)
	require.NoError(t, err)

	plan, err := p.BuildPlan("f.go", []byte("nothing here\n"), types.FileResult{})
	require.NoError(t, err)
	require.Empty(t, plan.Tasks)
}
