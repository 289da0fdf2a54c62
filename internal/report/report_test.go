package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/daikw/tapread/internal/batch"
	"github.com/daikw/tapread/internal/reconcile"
	"github.com/daikw/tapread/internal/story"
	"github.com/daikw/tapread/internal/token"
	"github.com/daikw/tapread/internal/vocab"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func TestPrinter_Reconcile(t *testing.T) {
	out := &batch.Outcome{
		Source: "en",
		Chapters: []batch.ChapterResult{
			{
				Index: 0,
				Title: "One",
				Result: reconcile.Result{
					Matched:    []string{"How are you?"},
					Repaired:   []reconcile.Repair{{Old: "Hello,world!", New: "Hello, world!", Rule: reconcile.RuleWhitespace}},
					Unresolved: []string{"a", "b", "c"},
				},
			},
			{
				Index: 1,
				Err:   &batch.ChapterError{Index: 1, ID: "2", Err: token.ErrEmptyToken},
			},
		},
	}

	var buf bytes.Buffer
	NewPrinter(&buf, 2).Reconcile("greetings", "es", out)
	s := buf.String()

	assert.Contains(t, s, "📖 greetings (es)")
	assert.Contains(t, s, "Chapter 1: One")
	assert.Contains(t, s, "✅ matched: 1")
	assert.Contains(t, s, "🔧 repaired: 1")
	assert.Contains(t, s, "❌ unresolved: 3")
	assert.Contains(t, s, `"Hello,world!" → "Hello, world!" (whitespace)`)
	assert.Contains(t, s, `1. "a"`)
	assert.Contains(t, s, `2. "b"`)
	assert.NotContains(t, s, `3. "c"`)
	assert.Contains(t, s, "... and 1 more")
	assert.Contains(t, s, "chapter 2 (id 2): empty token in stream")
	assert.Contains(t, s, "1 matched, 1 repaired, 3 unresolved, 1 failed chapters")
}

func TestPrinter_Retokenize(t *testing.T) {
	out := &batch.TokenizeOutcome{
		Source: "ja",
		Chapters: []batch.TokenizeResult{
			{Index: 0, Changed: true, Tokens: 12},
			{Index: 1, Skipped: true},
			{Index: 2},
			{Index: 3, Err: &batch.ChapterError{Index: 3, Err: token.ErrReservedDelimiter}},
		},
	}

	var buf bytes.Buffer
	NewPrinter(&buf, 0).Retokenize("cats", out)
	s := buf.String()

	assert.Contains(t, s, "Chapter 1: 12 tokens")
	assert.Contains(t, s, "Chapter 2: no episode file")
	assert.Contains(t, s, "Chapter 3: unchanged")
	assert.Contains(t, s, "chapter 4:")
	assert.Contains(t, s, "1 changed, 1 failed")
}

func TestPrinter_Coverage(t *testing.T) {
	results := []batch.StoryCoverage{
		{
			Story: "good",
			Languages: []batch.LanguageCoverage{{
				Language: "es",
				Units:    []batch.UnitCoverage{{Coverage: reconcile.Coverage{Expected: 2, Found: []string{"a", "b"}}}},
			}},
		},
		{
			Story: "drifted",
			Languages: []batch.LanguageCoverage{{
				Language: "en",
				Units: []batch.UnitCoverage{{
					Index:    0,
					Coverage: reconcile.Coverage{Expected: 4, Found: []string{"a"}, Missing: []string{"b", "c", "d"}},
				}},
			}},
		},
		{Story: "gone", Err: errors.New("failed to load structure")},
	}

	var buf bytes.Buffer
	NewPrinter(&buf, 10).Coverage(results)
	s := buf.String()

	assert.Contains(t, s, "es: all sentences found (2/2 = 100.0%)")
	assert.Contains(t, s, "en: issues found (1/4 = 25.0%)")
	assert.Contains(t, s, "Chapter 1: 3/4 sentences not found")
	assert.Contains(t, s, "✅ Working stories: 1")
	assert.Contains(t, s, "⚠️  Problematic stories: 1")
	assert.Contains(t, s, "❌ Error stories: 1")
	assert.Contains(t, s, `1. "drifted"`)
	assert.Contains(t, s, `1. "gone"`)
}

func TestPrinter_Missing(t *testing.T) {
	r := vocab.Report{TotalWords: 10, UniqueWords: 4, Found: 3, Missing: []string{"cat"}}

	var buf bytes.Buffer
	NewPrinter(&buf, 5).Missing("cats", "en", r)
	s := buf.String()

	assert.Contains(t, s, "Words found in dictionary: 3")
	assert.Contains(t, s, "Words missing from dictionary: 1")
	assert.Contains(t, s, "Dictionary coverage: 75.0%")
	assert.Contains(t, s, `1. "cat"`)
}

func TestPrinter_Status(t *testing.T) {
	units := []story.UnitStatus{
		{Index: 0, Title: "One", Status: story.StatusUpToDate},
		{Index: 1, Title: "Tokyo", Status: story.StatusReview, Reasons: []string{"title possibly untranslated"}},
		{Index: 2, Title: "Three", Status: story.StatusStale, Reasons: []string{"missing sentence translations"}, Missing: []string{"x"}},
	}

	var buf bytes.Buffer
	NewPrinter(&buf, 5).Status("cats", "ja", "en", units)
	s := buf.String()

	assert.Contains(t, s, "🌐 cats: ja → en")
	assert.Contains(t, s, "1. One ✅ up-to-date")
	assert.Contains(t, s, "2. Tokyo ⚠️  review")
	assert.Contains(t, s, "- title possibly untranslated")
	assert.Contains(t, s, "3. Three ❌ stale")
	assert.Contains(t, s, `1. "x"`)
	assert.Contains(t, s, "1 up to date, 1 to review, 1 stale")
}

func TestNewPrinter_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NewPrinter(&bytes.Buffer{}, -1).limit)
}
