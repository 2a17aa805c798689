// Package replace implements the ReplacementPlanner and
// ReplacementExecutor (§4.10-4.11): it turns a SearchResult and a
// per-pattern replacement template into ordered, non-overlapping
// FileReplacementPlans, validates `$k` capture references statically
// against the compiled regex's group count, and applies a plan
// atomically via temp-file-then-rename, writing a backup and an
// UndoRecord along the way. The planner never touches the filesystem;
// only the executor does.
package replace

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/praetorian-inc/rustscout/pkg/matcher"
	"github.com/praetorian-inc/rustscout/pkg/types"
)

// backrefPattern matches a `$k` capture reference in a replacement
// template, or `$$`, an escaped literal dollar sign that resolves to `$`.
var backrefPattern = regexp.MustCompile(`\$(\$|\d+)`)

// Planner builds FileReplacementPlans for one ordered pattern set, each
// paired with its own replacement template (templates[i] replaces
// matches of Patterns[i]).
type Planner struct {
	matchers  []*matcher.Matcher
	templates []string
}

// NewPlanner compiles defs and validates each paired template's capture
// references against the compiled pattern's group count. Group 0 (the
// whole match) is always a valid reference.
func NewPlanner(defs []types.PatternDefinition, templates []string) (*Planner, error) {
	if len(defs) != len(templates) {
		return nil, &types.InvalidPatternError{Reason: "pattern count and replacement template count must match"}
	}

	matchers := make([]*matcher.Matcher, len(defs))
	for i, d := range defs {
		m, err := matcher.Compile(d)
		if err != nil {
			return nil, err
		}
		if err := validateBackrefs(m, templates[i]); err != nil {
			return nil, err
		}
		matchers[i] = m
	}

	return &Planner{matchers: matchers, templates: templates}, nil
}

func validateBackrefs(m *matcher.Matcher, template string) error {
	groupCount := m.GroupCount()
	for _, ref := range backrefPattern.FindAllStringSubmatch(template, -1) {
		k, err := strconv.Atoi(ref[1])
		if err != nil {
			continue
		}
		if k == 0 {
			continue // group 0, the whole match, is always valid
		}
		if k > groupCount {
			return &types.InvalidPatternError{
				Pattern: template,
				Reason:  "replacement references capture group $" + ref[1] + " but the pattern has only " + strconv.Itoa(groupCount),
			}
		}
	}
	return nil
}

// BuildPlan builds the FileReplacementPlan for one file from its already
// computed FileResult and the original file content (needed to translate
// each Match's line-relative offsets into absolute file byte offsets).
func (p *Planner) BuildPlan(path string, content []byte, result types.FileResult) (types.FileReplacementPlan, error) {
	lineOffsets := computeLineOffsets(content)

	tasks := make([]types.ReplacementTask, 0, len(result.Matches))
	for _, match := range result.Matches {
		if match.PatternID < 0 || match.PatternID >= len(p.matchers) {
			continue
		}
		base, ok := lineOffsets[match.LineNumber]
		if !ok {
			continue
		}

		replacement := p.resolveReplacement(match)
		tasks = append(tasks, types.ReplacementTask{
			Start:           base + int64(match.ByteStart),
			End:             base + int64(match.ByteEnd),
			ReplacementText: []byte(replacement),
		})
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Start < tasks[j].Start })

	for i := 1; i < len(tasks); i++ {
		if tasks[i-1].End > tasks[i].Start {
			return types.FileReplacementPlan{}, &types.ConflictError{File: path, Line: lineForOffset(lineOffsets, tasks[i].Start)}
		}
	}

	return types.FileReplacementPlan{Path: path, Tasks: tasks}, nil
}

// resolveReplacement substitutes `$k` references in the template paired
// with match.PatternID against the capture groups of the specific match
// occurrence, recomputed from the line text the Match snapshot carries.
func (p *Planner) resolveReplacement(match types.Match) string {
	template := p.templates[match.PatternID]
	if !backrefPattern.MatchString(template) {
		return template
	}

	m := p.matchers[match.PatternID]
	whole := match.LineText[match.ByteStart:match.ByteEnd]

	var groups []string
	for _, c := range m.FindCaptures(match.LineText) {
		if c.Span.Start == match.ByteStart && c.Span.End == match.ByteEnd {
			groups = c.Groups
			break
		}
	}

	return backrefPattern.ReplaceAllStringFunc(template, func(ref string) string {
		if ref == "$$" {
			return "$"
		}
		k, _ := strconv.Atoi(ref[1:])
		if k == 0 {
			return whole
		}
		if k-1 < len(groups) {
			return groups[k-1]
		}
		return ""
	})
}

// computeLineOffsets maps each 1-based line number in content to its
// absolute starting byte offset, using the same CR/LF-or-LF terminator
// rule fileproc.splitLines uses so offsets agree with the line numbers
// FileProcessor assigned.
func computeLineOffsets(content []byte) map[int]int64 {
	offsets := map[int]int64{1: 0}
	line := 1
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			line++
			offsets[line] = int64(i + 1)
		}
	}
	return offsets
}

func lineForOffset(lineOffsets map[int]int64, offset int64) int {
	best := 0
	bestOffset := int64(-1)
	for ln, off := range lineOffsets {
		if off <= offset && off > bestOffset {
			best = ln
			bestOffset = off
		}
	}
	return best
}
