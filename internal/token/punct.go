package token

import (
	"strings"
	"unicode"
)

const (
	terminators = ".!?…。！？．"
	openers     = "([{«¿¡「『【（“‘"
	closers     = ")]}»」』】）”’,;:、，；："
)

// IsTerminatorRune reports whether r closes a sentence.
func IsTerminatorRune(r rune) bool {
	return strings.ContainsRune(terminators, r)
}

// IsPunctRune reports whether r forms a standalone punctuation token.
func IsPunctRune(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// Classify returns the kind of a surface text.
func Classify(text string) Kind {
	if text == "" {
		return Punct
	}
	allTerm, allPunct := true, true
	for _, r := range text {
		if !IsTerminatorRune(r) {
			allTerm = false
		}
		if !IsPunctRune(r) {
			allPunct = false
		}
	}
	switch {
	case allTerm:
		return Terminator
	case allPunct:
		return Punct
	default:
		return Word
	}
}

// IsOpening reports whether the token opens a bracketed or quoted span.
// Straight quotes are ambiguous and are not reported here.
func IsOpening(t Token) bool {
	return t.Kind == Punct && isSingle(t.Text, openers)
}

// IsClosing reports whether the token binds to the text before it.
func IsClosing(t Token) bool {
	return t.Kind == Punct && isSingle(t.Text, closers)
}

// IsClosingBracket reports whether the token closes a bracket or a typographic
// quote, as opposed to a comma-like separator.
func IsClosingBracket(t Token) bool {
	return t.Kind == Punct && isSingle(t.Text, ")]}»」』】）”’")
}

// IsStraightQuote reports whether the token is an ASCII quote.
func IsStraightQuote(t Token) bool {
	return t.Text == `"` || t.Text == "'"
}

func isSingle(text, set string) bool {
	rs := []rune(text)
	return len(rs) == 1 && strings.ContainsRune(set, rs[0])
}
