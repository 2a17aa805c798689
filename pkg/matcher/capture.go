package matcher

// Capture pairs one match span with its capture groups, in group-number
// order starting at group 1 (group 0, the whole match, is available via
// Span directly and is not repeated here). Groups is nil for a literal
// strategy or for a regex match with no capturing groups, used by the
// replacement planner (§4.10) to validate and resolve `$k` references in
// a replacement template.
type Capture struct {
	Span   Span
	Groups []string
}

// FindCaptures returns every match in text along with its capture
// groups, in the same order FindMatches would return spans.
func (m *Matcher) FindCaptures(text string) []Capture {
	rs, ok := m.strategy.(*regexStrategy)
	if !ok {
		spans := m.strategy.findAll(text)
		out := make([]Capture, len(spans))
		for i, s := range spans {
			out[i] = Capture{Span: s}
		}
		return out
	}

	offsets := runeByteOffsets(text)
	var out []Capture
	match, err := rs.re.FindStringMatch(text)
	for err == nil && match != nil {
		groups := match.Groups()
		var captured []string
		if len(groups) > 1 {
			captured = make([]string, len(groups)-1)
			for i := 1; i < len(groups); i++ {
				if caps := groups[i].Captures; len(caps) > 0 {
					captured[i-1] = caps[len(caps)-1].String()
				}
			}
		}
		out = append(out, Capture{
			Span:   Span{Start: offsets[match.Index], End: offsets[match.Index+match.Length]},
			Groups: captured,
		})
		match, err = rs.re.FindNextMatch(match)
	}
	return out
}
