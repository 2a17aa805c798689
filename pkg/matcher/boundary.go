package matcher

import (
	"unicode"
	"unicode/utf8"

	"github.com/praetorian-inc/rustscout/pkg/types"
)

// isWordRune classifies r as a word character per §4.3: letters of any
// script, marks, and decimal digits are always word characters; ASCII '_'
// is always a word character; ASCII '-' and the Unicode hyphen/dash block
// U+2010-U+2015 are word characters only under HyphenJoining.
func isWordRune(r rune, hyphens types.HyphenHandling) bool {
	if r == '_' {
		return true
	}
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.M, r) {
		return true
	}
	if isHyphenRune(r) {
		return hyphens == types.HyphenJoining
	}
	return false
}

func isHyphenRune(r rune) bool {
	return r == '-' || (r >= '‐' && r <= '―')
}

// isBoundaryAt reports whether byte offset pos in text is a word boundary:
// the rune immediately before and the rune immediately after differ in
// wordness. Start-of-text and end-of-text count as non-word.
func isBoundaryAt(text string, pos int, hyphens types.HyphenHandling) bool {
	before := runeBefore(text, pos)
	after := runeAfter(text, pos)

	var beforeWord, afterWord bool
	if before >= 0 {
		beforeWord = isWordRune(before, hyphens)
	}
	if after >= 0 {
		afterWord = isWordRune(after, hyphens)
	}
	return beforeWord != afterWord
}

// isWordBoundaryMatch reports whether the candidate range [start, end) in
// text satisfies the word-boundary predicate at both edges.
func isWordBoundaryMatch(text string, start, end int, hyphens types.HyphenHandling) bool {
	return isBoundaryAt(text, start, hyphens) && isBoundaryAt(text, end, hyphens)
}

// runeBefore returns the rune ending at byte offset pos, or -1 at start
// of text.
func runeBefore(text string, pos int) rune {
	if pos <= 0 {
		return -1
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	if r == utf8.RuneError {
		return -1
	}
	return r
}

// runeAfter returns the rune starting at byte offset pos, or -1 at end of
// text.
func runeAfter(text string, pos int) rune {
	if pos >= len(text) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	if r == utf8.RuneError {
		return -1
	}
	return r
}
