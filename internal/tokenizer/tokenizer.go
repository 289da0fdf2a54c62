// Package tokenizer turns raw prose into token streams using one language rule
// table. Dense scripts are delegated to dictionary segmenters when available
// and fall back to a deterministic script-transition heuristic otherwise.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/daikw/tapread/internal/lang"
	"github.com/daikw/tapread/internal/token"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
)

// Mode selects the output shape of Tokenize.
type Mode int

const (
	// ModePreserve keeps case and punctuation; its streams are persisted.
	ModePreserve Mode = iota
	// ModeLookup drops punctuation and case-folds words for dictionary lookups.
	ModeLookup
)

func (m Mode) String() string {
	if m == ModeLookup {
		return "lookup"
	}
	return "preserve"
}

// ParseMode parses "preserve" or "lookup".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "preserve":
		return ModePreserve, nil
	case "lookup":
		return ModeLookup, nil
	default:
		return ModePreserve, fmt.Errorf("unknown tokenize mode: %s (supported: preserve, lookup)", s)
	}
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithSegmenter replaces the segmenter used for a language.
func WithSegmenter(code string, factory SegmenterFactory) Option {
	return func(t *Tokenizer) {
		t.factories[code] = factory
	}
}

// WithoutBackend disables the segmenter for a language so the rule-based
// fallback is always used.
func WithoutBackend(code string) Option {
	return func(t *Tokenizer) {
		delete(t.factories, code)
	}
}

// Tokenizer is safe for concurrent use.
type Tokenizer struct {
	factories map[string]SegmenterFactory
	backends  map[string]*backend
	warned    sync.Map
}

// New creates a Tokenizer. Segmenters are built on first use.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{
		factories: make(map[string]SegmenterFactory),
		backends:  make(map[string]*backend),
	}
	for _, code := range lang.Supported() {
		l, _ := lang.Lookup(code)
		if f, ok := segmenters[l.Segmenter]; ok {
			t.factories[code] = f
		}
	}
	for _, opt := range opts {
		opt(t)
	}
	for code, f := range t.factories {
		t.backends[code] = &backend{code: code, factory: f}
	}
	return t
}

var defaultTokenizer = sync.OnceValue(func() *Tokenizer { return New() })

// Tokenize runs the shared default Tokenizer.
func Tokenize(text, code string, mode Mode) token.Stream {
	return defaultTokenizer().Tokenize(text, code, mode)
}

// Tokenize converts text into a stream. It never fails: unknown languages use
// Latin rules and unavailable segmenters use the fallback heuristic.
func (t *Tokenizer) Tokenize(text, code string, mode Mode) token.Stream {
	l, ok := lang.Resolve(code)
	if !ok {
		t.warnOnce(code, l)
	}

	normalized := Normalize(text)
	stream := token.Stream{Language: l.Code}
	if normalized != "" {
		stream.Tokens = t.split(normalized, l)
	}

	if mode == ModeLookup {
		return ToLookup(stream)
	}
	return stream
}

func (t *Tokenizer) split(text string, l lang.Language) []token.Token {
	switch l.Family {
	case lang.CJK:
		if b, ok := t.backends[l.Code]; ok {
			if toks, ok := b.segment(text); ok {
				if err := (token.Stream{Tokens: toks}).VerifyRoundTrip(text); err == nil {
					return toks
				}
				log.Debug().Str("lang", l.Code).Msg("Segmenter output does not cover source, using fallback tokenizer")
			}
		}
		return scanScript(text, 0)
	default:
		return scanLatin(text, 0)
	}
}

func (t *Tokenizer) warnOnce(code string, l lang.Language) {
	if _, loaded := t.warned.LoadOrStore(code, struct{}{}); loaded {
		return
	}
	log.Warn().Str("lang", code).Str("rules", l.Family.String()).Msg("Unsupported language, using default rules")
}

// ToLookup drops punctuation and case-folds every word. The result is marked
// so it cannot be serialized.
func ToLookup(s token.Stream) token.Stream {
	fold := cases.Fold()
	out := token.Stream{Language: s.Language, Lookup: true}
	for _, tok := range s.Tokens {
		if tok.Kind != token.Word {
			continue
		}
		tok.Text = fold.String(tok.Text)
		out.Tokens = append(out.Tokens, tok)
	}
	return out
}
