package main

import (
	"regexp"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// buildPatternDefinitions turns the CLI's flat pattern/regex/case
// options into the PatternDefinitions pkg/matcher compiles. Case
// insensitivity is expressed as a regex `(?i)` prefix (regexp2 supports
// it as an inline flag group) rather than as a first-class
// PatternDefinition field, since §3 only specifies is_regex/boundary/
// hyphen on PatternDefinition.
func buildPatternDefinitions(patterns []string, isRegex, caseInsensitive bool, boundaryFlag, hyphenFlag string) ([]types.PatternDefinition, error) {
	boundary, err := parseBoundaryMode(boundaryFlag)
	if err != nil {
		return nil, err
	}
	hyphen, err := parseHyphenHandling(hyphenFlag)
	if err != nil {
		return nil, err
	}

	defs := make([]types.PatternDefinition, len(patterns))
	for i, p := range patterns {
		text := p
		regex := isRegex
		if caseInsensitive {
			if !regex {
				text = regexp.QuoteMeta(text)
				regex = true
			}
			text = "(?i)" + text
		}
		defs[i] = types.PatternDefinition{
			Text:           text,
			IsRegex:        regex,
			BoundaryMode:   boundary,
			HyphenHandling: hyphen,
		}
	}
	return defs, nil
}

func parseBoundaryMode(s string) (types.BoundaryMode, error) {
	switch s {
	case "", "none":
		return types.BoundaryNone, nil
	case "words":
		return types.BoundaryWholeWords, nil
	default:
		return 0, invalidArgs("unknown boundary mode %q (want \"none\" or \"words\")", s)
	}
}

func parseHyphenHandling(s string) (types.HyphenHandling, error) {
	switch s {
	case "", "boundary":
		return types.HyphenBoundary, nil
	case "joining":
		return types.HyphenJoining, nil
	default:
		return 0, invalidArgs("unknown hyphen handling %q (want \"boundary\" or \"joining\")", s)
	}
}
