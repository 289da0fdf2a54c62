// Package token defines the token stream exchanged between the tokenizer,
// the sentence reconstructor and the story files.
package token

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Delimiter separates tokens in the persisted form of a stream. It may never
// appear inside a token.
const Delimiter = "|"

var (
	// ErrReservedDelimiter is returned when a token contains Delimiter.
	ErrReservedDelimiter = errors.New("token contains reserved delimiter")
	// ErrEmptyToken is returned for an empty token inside a stream.
	ErrEmptyToken = errors.New("empty token in stream")
	// ErrRoundTrip is returned when a stream does not reproduce its source text.
	ErrRoundTrip = errors.New("token stream does not round-trip to source text")
	// ErrLookupStream is returned when a lookup-mode stream is about to be persisted.
	ErrLookupStream = errors.New("lookup-mode stream cannot be persisted")
)

// Kind classifies a token.
type Kind int

const (
	Word Kind = iota
	Terminator
	Punct
)

func (k Kind) String() string {
	switch k {
	case Terminator:
		return "terminator"
	case Punct:
		return "punct"
	default:
		return "word"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "word":
		*k = Word
	case "terminator":
		*k = Terminator
	case "punct":
		*k = Punct
	default:
		return fmt.Errorf("unknown token kind %q", b)
	}
	return nil
}

// Token is a word or a punctuation mark.
type Token struct {
	Text   string `json:"text"`
	Kind   Kind   `json:"kind"`
	Offset int    `json:"offset"` // byte offset into the normalized source, -1 if unknown
}

// Stream is the ordered token sequence of one chapter or page.
type Stream struct {
	Language string  `json:"language"`
	Tokens   []Token `json:"tokens"`
	Lookup   bool    `json:"lookup,omitempty"`
}

// Len returns the number of tokens.
func (s Stream) Len() int {
	return len(s.Tokens)
}

// Texts returns the surface texts in order.
func (s Stream) Texts() []string {
	out := make([]string, len(s.Tokens))
	for i, t := range s.Tokens {
		out[i] = t.Text
	}
	return out
}

// Concat joins all surfaces without separator.
func (s Stream) Concat() string {
	var b strings.Builder
	for _, t := range s.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Validate checks the structural invariants of the stream.
func (s Stream) Validate() error {
	for i, t := range s.Tokens {
		if t.Text == "" {
			return fmt.Errorf("token %d: %w", i, ErrEmptyToken)
		}
		if strings.Contains(t.Text, Delimiter) {
			return fmt.Errorf("token %d %q: %w", i, t.Text, ErrReservedDelimiter)
		}
	}
	return nil
}

// Serialize renders the persisted form: surfaces joined by Delimiter.
func (s Stream) Serialize() (string, error) {
	if s.Lookup {
		return "", ErrLookupStream
	}
	if err := s.Validate(); err != nil {
		return "", err
	}
	return strings.Join(s.Texts(), Delimiter), nil
}

// VerifyRoundTrip reports whether the stream reproduces normalized, ignoring
// whitespace.
func (s Stream) VerifyRoundTrip(normalized string) error {
	got := StripSpace(s.Concat())
	want := StripSpace(normalized)
	if got == want {
		return nil
	}

	// locate the first diverging rune for the error message
	gr, wr := []rune(got), []rune(want)
	i := 0
	for i < len(gr) && i < len(wr) && gr[i] == wr[i] {
		i++
	}
	return fmt.Errorf("%w: diverges at rune %d", ErrRoundTrip, i)
}

// Parse reads a persisted stream. A single leading or trailing delimiter is
// tolerated; an empty token between two delimiters is corruption.
func Parse(content, language string) (Stream, error) {
	s := Stream{Language: language}
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, Delimiter)
	content = strings.TrimSuffix(content, Delimiter)
	if content == "" {
		return s, nil
	}

	parts := strings.Split(content, Delimiter)
	s.Tokens = make([]Token, 0, len(parts))
	for i, p := range parts {
		if strings.TrimSpace(p) == "" {
			return Stream{Language: language}, fmt.Errorf("token %d: %w", i, ErrEmptyToken)
		}
		s.Tokens = append(s.Tokens, Token{Text: p, Kind: Classify(p), Offset: -1})
	}
	return s, nil
}

// StripSpace removes every whitespace rune.
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
