package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/daikw/tapread/internal/reconcile"
	"github.com/daikw/tapread/internal/sentence"
	"github.com/daikw/tapread/internal/story"
	"github.com/daikw/tapread/internal/token"
	"github.com/rs/zerolog/log"
)

// ErrNoTranslations marks a chapter whose language file has no sentence map.
var ErrNoTranslations = errors.New("no sentence map in language file")

// ChapterResult is the reconciliation of one chapter.
type ChapterResult struct {
	Index  int              `json:"index"`
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	Result reconcile.Result `json:"result"`
	Err    error            `json:"-"`
}

// Outcome collects the chapters of one story and language in chapter order.
type Outcome struct {
	Source   string          `json:"source"`
	Chapters []ChapterResult `json:"chapters"`
}

// Counts sums matched, repaired and unresolved keys over all chapters.
func (o *Outcome) Counts() (matched, repaired, unresolved int) {
	for _, ch := range o.Chapters {
		matched += len(ch.Result.Matched)
		repaired += len(ch.Result.Repaired)
		unresolved += len(ch.Result.Unresolved)
	}
	return matched, repaired, unresolved
}

// Failed returns the chapters that could not be processed.
func (o *Outcome) Failed() []*ChapterError {
	var out []*ChapterError
	for _, ch := range o.Chapters {
		var ce *ChapterError
		if errors.As(ch.Err, &ce) {
			out = append(out, ce)
		}
	}
	return out
}

// HasIssues reports unresolved keys or failed chapters.
func (o *Outcome) HasIssues() bool {
	_, _, unresolved := o.Counts()
	return unresolved > 0 || len(o.Failed()) > 0
}

// Changed reports whether any chapter has repaired keys to write.
func (o *Outcome) Changed() bool {
	for _, ch := range o.Chapters {
		if ch.Err == nil && ch.Result.Changed() {
			return true
		}
	}
	return false
}

// Apply returns a copy of target with the repaired sentence maps. Failed
// chapters keep their original maps.
func (o *Outcome) Apply(target *story.Document) (*story.Document, error) {
	out, err := target.Clone()
	if err != nil {
		return nil, err
	}
	for _, ch := range o.Chapters {
		if ch.Err != nil || !ch.Result.Changed() {
			continue
		}
		u := out.FindUnit(ch.ID, ch.Index)
		if u == nil {
			return nil, fmt.Errorf("failed to apply chapter %d: not in language file", ch.Index+1)
		}
		u.Sentences = ch.Result.Translations
	}
	return out, nil
}

// Reconcile aligns the sentence keys of every chapter in target with the
// token stream of the matching chapter in structure. Chapters are matched by
// id, falling back to position. source is the language of the content.
func (r *Runner) Reconcile(ctx context.Context, structure, target *story.Document, source string) (*Outcome, error) {
	out := &Outcome{
		Source:   source,
		Chapters: make([]ChapterResult, len(structure.Units)),
	}

	err := r.each(ctx, len(structure.Units), func(i int) {
		src := structure.Units[i]
		out.Chapters[i] = r.reconcileUnit(i, src, target.FindUnit(src.ID, i), source)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Runner) reconcileUnit(i int, src, dst *story.Unit, source string) ChapterResult {
	res := ChapterResult{Index: i, ID: src.ID, Title: src.Title}
	fail := func(err error) ChapterResult {
		res.Err = &ChapterError{Index: i, ID: src.ID, Err: err}
		log.Warn().Int("chapter", i+1).Str("id", src.ID).Err(err).Msg("Skipping chapter")
		return res
	}

	if dst == nil || dst.Sentences == nil {
		return fail(ErrNoTranslations)
	}
	stream, err := token.Parse(src.Content, source)
	if err != nil {
		return fail(err)
	}
	if err := stream.Validate(); err != nil {
		return fail(err)
	}

	cands := sentence.Reconstruct(stream, r.sentences)
	res.Result = r.rec.ReconcileMap(cands, dst.Sentences)
	log.Debug().
		Int("chapter", i+1).
		Int("tokens", stream.Len()).
		Int("candidates", len(cands)).
		Int("matched", len(res.Result.Matched)).
		Int("repaired", len(res.Result.Repaired)).
		Int("unresolved", len(res.Result.Unresolved)).
		Msg("Reconciled chapter")
	return res
}
