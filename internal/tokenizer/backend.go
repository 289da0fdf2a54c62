package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/daikw/tapread/internal/lang"
	"github.com/daikw/tapread/internal/token"
	"github.com/go-ego/gse"
	"github.com/ikawaha/kagome-dict/ipa"
	kagome "github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/rs/zerolog/log"
)

// Segmenter splits dense-script text into word surfaces.
type Segmenter interface {
	Segment(text string) []string
}

// SegmenterFactory builds a Segmenter. It is called at most once per
// Tokenizer and language.
type SegmenterFactory func() (Segmenter, error)

type kagomeSegmenter struct {
	t *kagome.Tokenizer
}

// NewKagomeSegmenter creates a Japanese segmenter backed by the IPA dictionary.
func NewKagomeSegmenter() (Segmenter, error) {
	t, err := kagome.New(ipa.Dict(), kagome.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to create kagome tokenizer: %w", err)
	}
	return &kagomeSegmenter{t: t}, nil
}

func (k *kagomeSegmenter) Segment(text string) []string {
	toks := k.t.Tokenize(text)
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Surface)
	}
	return out
}

type gseSegmenter struct {
	mu  sync.Mutex
	seg gse.Segmenter
}

// NewGseSegmenter creates a Chinese segmenter with the embedded dictionary.
// gse's own progress lines go to the standard logger, so they are turned off.
func NewGseSegmenter() (Segmenter, error) {
	g := &gseSegmenter{}
	g.seg.SkipLog = true
	if err := g.seg.LoadDict(); err != nil {
		return nil, fmt.Errorf("failed to load gse dictionary: %w", err)
	}
	log.Debug().Msg("Loaded gse dictionary")
	return g, nil
}

func (g *gseSegmenter) Segment(text string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seg.Cut(text, true)
}

// segmenters maps the backend names of the language table to constructors.
var segmenters = map[string]SegmenterFactory{
	lang.SegmenterKagome: NewKagomeSegmenter,
	lang.SegmenterGse:    NewGseSegmenter,
}

// backend holds one lazily constructed segmenter.
type backend struct {
	code    string
	factory SegmenterFactory

	once sync.Once
	seg  Segmenter
}

// get returns the segmenter, or nil when construction failed. A failure is
// logged once.
func (b *backend) get() Segmenter {
	b.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				b.seg = nil
				log.Warn().Str("lang", b.code).Interface("panic", r).Msg("Segmenter panicked during setup, using fallback tokenizer")
			}
		}()

		seg, err := b.factory()
		if err != nil {
			log.Warn().Err(err).Str("lang", b.code).Msg("Segmenter unavailable, using fallback tokenizer")
			return
		}
		b.seg = seg
		log.Debug().Str("lang", b.code).Msg("Segmenter ready")
	})
	return b.seg
}

// segment runs the backend and re-splits its output so punctuation is always
// standalone. ok is false when the backend failed or its output does not
// cover the input.
func (b *backend) segment(text string) (toks []token.Token, ok bool) {
	seg := b.get()
	if seg == nil {
		return nil, false
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Str("lang", b.code).Interface("panic", r).Msg("Segmenter panicked, using fallback tokenizer")
			toks, ok = nil, false
		}
	}()

	cursor := 0
	for _, piece := range seg.Segment(text) {
		if piece == "" {
			continue
		}
		idx := indexFrom(text, piece, cursor)
		if idx < 0 {
			log.Debug().Str("lang", b.code).Str("piece", piece).Msg("Segment not found in source")
			return nil, false
		}
		toks = append(toks, scanLatin(piece, idx)...)
		cursor = idx + len(piece)
	}
	return toks, true
}

func indexFrom(text, piece string, from int) int {
	if from > len(text) {
		return -1
	}
	i := strings.Index(text[from:], piece)
	if i < 0 {
		return -1
	}
	return from + i
}
