package sentence

import (
	"fmt"
	"sync"

	"github.com/daikw/tapread/internal/lang"
	"github.com/daikw/tapread/internal/token"
	"github.com/daikw/tapread/internal/tokenizer"
	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/rs/zerolog/log"
)

// Splitter splits raw prose into sentences whose texts are guaranteed to be
// renderings of token runs of the same prose, so they can seed translation
// map keys.
type Splitter struct {
	tok *tokenizer.Tokenizer

	once  sync.Once
	punkt *sentences.DefaultSentenceTokenizer
}

// NewSplitter creates a Splitter on top of tok.
func NewSplitter(tok *tokenizer.Tokenizer) *Splitter {
	return &Splitter{tok: tok}
}

func (s *Splitter) model() *sentences.DefaultSentenceTokenizer {
	s.once.Do(func() {
		punkt, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			log.Warn().Err(err).Msg("Punkt model unavailable, splitting on terminators")
			return
		}
		s.punkt = punkt
	})
	return s.punkt
}

// Split tokenizes text and groups the tokens into sentences. Spaced scripts
// use the Punkt model so abbreviations do not end a sentence; dense scripts
// and Korean split on terminators.
func (s *Splitter) Split(text, code string) []Candidate {
	stream := s.tok.Tokenize(text, code, tokenizer.ModePreserve)
	if lang.FamilyOf(code) != lang.Latin {
		return Reconstruct(stream, Options{})
	}

	punkt := s.model()
	if punkt == nil {
		return Reconstruct(stream, Options{})
	}

	var bounds []int
	for _, sent := range punkt.Tokenize(tokenizer.Normalize(text)) {
		if n := len(token.StripSpace(sent.Text)); n > 0 {
			bounds = append(bounds, n)
		}
	}

	cands, err := alignBounds(stream, bounds)
	if err != nil {
		log.Debug().Err(err).Str("lang", code).Msg("Punkt boundaries do not align with tokens")
		return Reconstruct(stream, Options{})
	}
	return cands
}

// alignBounds maps sentence lengths (in bytes, whitespace excluded) onto
// token runs.
func alignBounds(stream token.Stream, bounds []int) ([]Candidate, error) {
	family := lang.FamilyOf(stream.Language)
	quotes := quoteStates(stream.Tokens)
	var out []Candidate

	i := 0
	for _, want := range bounds {
		if i >= len(stream.Tokens) {
			return nil, fmt.Errorf("sentence of %d bytes past end of stream", want)
		}
		start, got := i, 0
		j := newJoiner(family, quotes[start])
		for got < want && i < len(stream.Tokens) {
			j.add(stream.Tokens[i])
			got += len(stream.Tokens[i].Text)
			i++
		}
		if got != want {
			return nil, fmt.Errorf("sentence boundary inside token %d", i-1)
		}
		out = append(out, Candidate{Text: j.String(), Start: start, End: i - 1})
	}
	if i != len(stream.Tokens) {
		return nil, fmt.Errorf("%d tokens left after last sentence", len(stream.Tokens)-i)
	}
	return out, nil
}
