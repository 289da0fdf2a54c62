package batch

import (
	"context"
	"fmt"

	"github.com/daikw/tapread/internal/reconcile"
	"github.com/daikw/tapread/internal/story"
	"github.com/daikw/tapread/internal/token"
)

// UnitCoverage is the reading-UI walk of one chapter against one language.
type UnitCoverage struct {
	Index    int                `json:"index"`
	ID       string             `json:"id"`
	Coverage reconcile.Coverage `json:"coverage"`
	Err      error              `json:"-"`
}

// LanguageCoverage covers every chapter of one language file.
type LanguageCoverage struct {
	Language string         `json:"language"`
	Units    []UnitCoverage `json:"units"`
	Err      error          `json:"-"`
}

// Totals sums expected and found keys.
func (l LanguageCoverage) Totals() (expected, found int) {
	for _, u := range l.Units {
		expected += u.Coverage.Expected
		found += len(u.Coverage.Found)
	}
	return expected, found
}

// StoryCoverage is the check of one story.
type StoryCoverage struct {
	Story     string             `json:"story"`
	Languages []LanguageCoverage `json:"languages"`
	Err       error              `json:"-"`
}

// Complete reports whether every key of every language was located.
func (s StoryCoverage) Complete() bool {
	if s.Err != nil {
		return false
	}
	for _, l := range s.Languages {
		if l.Err != nil {
			return false
		}
		for _, u := range l.Units {
			if u.Err != nil || !u.Coverage.Complete() {
				return false
			}
		}
	}
	return true
}

// CheckUnits walks every chapter of structure against target. source is the
// language of the chapter content.
func CheckUnits(structure, target *story.Document, source string) []UnitCoverage {
	out := make([]UnitCoverage, 0, len(structure.Units))
	for i, src := range structure.Units {
		uc := UnitCoverage{Index: i, ID: src.ID}
		dst := target.FindUnit(src.ID, i)
		stream, err := token.Parse(src.Content, source)
		switch {
		case err != nil:
			uc.Err = &ChapterError{Index: i, ID: src.ID, Err: err}
		case dst == nil || dst.Sentences == nil:
			uc.Err = &ChapterError{Index: i, ID: src.ID, Err: ErrNoTranslations}
		default:
			uc.Coverage = reconcile.Verify(stream, dst.Sentences)
		}
		out = append(out, uc)
	}
	return out
}

// Check runs the coverage walk for every language of every listed story.
// Stories are checked concurrently. fallback is the content language of
// stories whose structure file does not name one.
func (r *Runner) Check(ctx context.Context, store *story.Store, ids []string, fallback string) ([]StoryCoverage, error) {
	out := make([]StoryCoverage, len(ids))
	err := r.each(ctx, len(ids), func(i int) {
		out[i] = checkStory(store, ids[i], fallback)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func checkStory(store *story.Store, id, fallback string) StoryCoverage {
	sc := StoryCoverage{Story: id}
	structure, err := store.LoadStructure(id)
	if err != nil {
		sc.Err = fmt.Errorf("failed to load structure: %w", err)
		return sc
	}
	codes, err := store.ListLanguages(id)
	if err != nil {
		sc.Err = err
		return sc
	}

	source := structure.SourceLanguage(fallback)
	for _, code := range codes {
		lc := LanguageCoverage{Language: code}
		target, err := store.LoadLanguage(id, code)
		if err != nil {
			lc.Err = err
		} else {
			lc.Units = CheckUnits(structure, target, source)
		}
		sc.Languages = append(sc.Languages, lc)
	}
	return sc
}
