// Package vocab reports words of a story that are missing from a
// per-language dictionary.
package vocab

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/daikw/tapread/internal/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Dictionary is the set of case-folded headwords of a dictionary file.
type Dictionary map[string]struct{}

// Fold returns the lookup form of a word.
func Fold(word string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(word)))
}

// NewDictionary builds a dictionary from headwords.
func NewDictionary(words ...string) Dictionary {
	d := make(Dictionary, len(words))
	for _, w := range words {
		if f := Fold(w); f != "" {
			d[f] = struct{}{}
		}
	}
	return d
}

// Has reports whether word, folded, is a headword.
func (d Dictionary) Has(word string) bool {
	_, ok := d[Fold(word)]
	return ok
}

// LoadDictionary reads a JSON object whose keys are headwords. Entry values
// are not inspected.
func LoadDictionary(path string) (Dictionary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary: %w", err)
	}

	d := make(Dictionary, len(entries))
	for w := range entries {
		if f := Fold(w); f != "" {
			d[f] = struct{}{}
		}
	}
	log.Debug().Str("path", path).Int("entries", len(d)).Msg("Loaded dictionary")
	return d, nil
}

// Report is the outcome of a dictionary check.
type Report struct {
	TotalWords  int      `json:"totalWords"`
	UniqueWords int      `json:"uniqueWords"`
	Found       int      `json:"found"`
	Missing     []string `json:"missing"`
}

// Coverage is the share of unique words found, in percent.
func (r Report) Coverage() float64 {
	if r.UniqueWords == 0 {
		return 100
	}
	return float64(r.Found) / float64(r.UniqueWords) * 100
}

// Check looks up every word of the lookup-mode streams. Missing words are
// listed once, in order of first occurrence. Tokens without letters, such as
// numbers, are not counted.
func Check(streams []token.Stream, dict Dictionary) (Report, error) {
	var r Report
	seen := make(map[string]bool)
	for _, s := range streams {
		if !s.Lookup {
			return Report{}, fmt.Errorf("stream for %s is not in lookup mode", s.Language)
		}
		for _, t := range s.Tokens {
			if !hasLetter(t.Text) {
				continue
			}
			r.TotalWords++
			if seen[t.Text] {
				continue
			}
			seen[t.Text] = true
			r.UniqueWords++
			if _, ok := dict[t.Text]; ok {
				r.Found++
				continue
			}
			r.Missing = append(r.Missing, t.Text)
		}
	}
	return r, nil
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// WriteMissing writes one missing word per line.
func (r Report) WriteMissing(w io.Writer) error {
	for _, word := range r.Missing {
		if _, err := fmt.Fprintln(w, word); err != nil {
			return fmt.Errorf("failed to write missing words: %w", err)
		}
	}
	return nil
}
