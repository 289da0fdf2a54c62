package batch

import (
	"context"
	"errors"
	"io/fs"

	"github.com/daikw/tapread/internal/story"
	"github.com/daikw/tapread/internal/tokenizer"
	"github.com/rs/zerolog/log"
)

// EpisodeReader returns the raw text of the nth chapter, counted from 1.
type EpisodeReader func(n int) (string, error)

// TokenizeResult is the rebuilt content of one chapter.
type TokenizeResult struct {
	Index   int    `json:"index"`
	ID      string `json:"id"`
	Content string `json:"content"`
	Tokens  int    `json:"tokens"`
	Changed bool   `json:"changed"`
	// Skipped is set when the chapter has no episode file.
	Skipped bool  `json:"skipped"`
	Err     error `json:"-"`
}

// TokenizeOutcome collects the chapters of a retokenized story.
type TokenizeOutcome struct {
	Source   string           `json:"source"`
	Chapters []TokenizeResult `json:"chapters"`
}

// Failed returns the chapters whose new stream was rejected.
func (o *TokenizeOutcome) Failed() []*ChapterError {
	var out []*ChapterError
	for _, ch := range o.Chapters {
		var ce *ChapterError
		if errors.As(ch.Err, &ce) {
			out = append(out, ce)
		}
	}
	return out
}

// Changed reports whether any chapter got new content.
func (o *TokenizeOutcome) Changed() bool {
	for _, ch := range o.Chapters {
		if ch.Changed {
			return true
		}
	}
	return false
}

// Apply returns a copy of structure with the new chapter contents.
func (o *TokenizeOutcome) Apply(structure *story.Document) (*story.Document, error) {
	out, err := structure.Clone()
	if err != nil {
		return nil, err
	}
	for _, ch := range o.Chapters {
		if !ch.Changed {
			continue
		}
		out.Units[ch.Index].Content = ch.Content
	}
	return out, nil
}

// Retokenize rebuilds the content of every chapter from its episode text.
// A chapter whose stream does not reproduce the source, or would not survive
// serialization, keeps its old content.
func (r *Runner) Retokenize(ctx context.Context, structure *story.Document, source string, read EpisodeReader) (*TokenizeOutcome, error) {
	out := &TokenizeOutcome{
		Source:   source,
		Chapters: make([]TokenizeResult, len(structure.Units)),
	}

	err := r.each(ctx, len(structure.Units), func(i int) {
		u := structure.Units[i]
		res := TokenizeResult{Index: i, ID: u.ID}
		defer func() { out.Chapters[i] = res }()

		text, err := read(i + 1)
		if errors.Is(err, fs.ErrNotExist) {
			res.Skipped = true
			log.Debug().Int("chapter", i+1).Msg("No episode file, keeping content")
			return
		}
		if err != nil {
			res.Err = &ChapterError{Index: i, ID: u.ID, Err: err}
			return
		}

		stream := r.tok.Tokenize(text, source, tokenizer.ModePreserve)
		if err := stream.VerifyRoundTrip(tokenizer.Normalize(text)); err != nil {
			res.Err = &ChapterError{Index: i, ID: u.ID, Err: err}
			log.Warn().Int("chapter", i+1).Err(err).Msg("Token stream does not reproduce the episode")
			return
		}
		content, err := stream.Serialize()
		if err != nil {
			res.Err = &ChapterError{Index: i, ID: u.ID, Err: err}
			log.Warn().Int("chapter", i+1).Err(err).Msg("Token stream cannot be stored")
			return
		}

		res.Content = content
		res.Tokens = stream.Len()
		res.Changed = content != u.Content
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
