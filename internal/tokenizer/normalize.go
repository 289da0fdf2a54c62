package tokenizer

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares raw text for tokenization: NFC composition, line breaks
// and tabs become spaces, whitespace runs collapse to one space.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	return strings.Join(strings.Fields(text), " ")
}
