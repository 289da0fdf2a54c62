// Package report renders batch results for the terminal.
package report

import (
	"fmt"
	"io"

	"github.com/daikw/tapread/internal/batch"
	"github.com/daikw/tapread/internal/story"
	"github.com/daikw/tapread/internal/vocab"
	"github.com/fatih/color"
)

// DefaultLimit caps listed keys and words when no limit is configured.
const DefaultLimit = 20

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

// Printer writes human-readable reports. Colors follow fatih/color, which
// turns itself off when the output is not a terminal.
type Printer struct {
	w     io.Writer
	limit int
}

// NewPrinter creates a printer that lists at most limit items per list.
// A limit of zero or less uses DefaultLimit.
func NewPrinter(w io.Writer, limit int) *Printer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Printer{w: w, limit: limit}
}

func (p *Printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

// list prints up to p.limit items and a line for the rest.
func (p *Printer) list(c *color.Color, items []string) {
	for i, item := range items {
		if i == p.limit {
			p.printf("     ... and %d more\n", len(items)-p.limit)
			return
		}
		_, _ = c.Fprintf(p.w, "     %d. %q\n", i+1, item)
	}
}

func percent(found, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(found) / float64(total) * 100
}

// Reconcile prints per-chapter counts, repairs and unresolved keys.
func (p *Printer) Reconcile(storyID, code string, out *batch.Outcome) {
	_, _ = bold.Fprintf(p.w, "📖 %s (%s)\n", storyID, code)
	for _, ch := range out.Chapters {
		p.printf("\n  Chapter %d", ch.Index+1)
		if ch.Title != "" {
			p.printf(": %s", ch.Title)
		}
		p.printf("\n")

		if ch.Err != nil {
			_, _ = red.Fprintf(p.w, "  ❌ %v\n", ch.Err)
			continue
		}
		r := ch.Result
		_, _ = green.Fprintf(p.w, "  ✅ matched: %d", len(r.Matched))
		p.printf("  ")
		_, _ = yellow.Fprintf(p.w, "🔧 repaired: %d", len(r.Repaired))
		p.printf("  ")
		_, _ = red.Fprintf(p.w, "❌ unresolved: %d\n", len(r.Unresolved))

		for i, rep := range r.Repaired {
			if i == p.limit {
				p.printf("     ... and %d more\n", len(r.Repaired)-p.limit)
				break
			}
			_, _ = yellow.Fprintf(p.w, "     %q → %q (%s", rep.Old, rep.New, rep.Rule)
			if rep.Distance > 0 {
				_, _ = yellow.Fprintf(p.w, ", distance %d", rep.Distance)
			}
			_, _ = yellow.Fprintf(p.w, ")\n")
		}
		if len(r.Unresolved) > 0 {
			p.printf("  🔍 unresolved keys:\n")
			p.list(red, r.Unresolved)
		}
	}

	matched, repaired, unresolved := out.Counts()
	p.printf("\n📊 Summary: %d matched, %d repaired, %d unresolved, %d failed chapters\n",
		matched, repaired, unresolved, len(out.Failed()))
}

// Retokenize prints which chapters got new content.
func (p *Printer) Retokenize(storyID string, out *batch.TokenizeOutcome) {
	_, _ = bold.Fprintf(p.w, "📖 %s (%s)\n", storyID, out.Source)
	changed := 0
	for _, ch := range out.Chapters {
		switch {
		case ch.Err != nil:
			_, _ = red.Fprintf(p.w, "  ❌ %v\n", ch.Err)
		case ch.Skipped:
			p.printf("  ⏭️  Chapter %d: no episode file\n", ch.Index+1)
		case ch.Changed:
			changed++
			_, _ = green.Fprintf(p.w, "  ✅ Chapter %d: %d tokens\n", ch.Index+1, ch.Tokens)
		default:
			p.printf("  ✓  Chapter %d: unchanged\n", ch.Index+1)
		}
	}
	p.printf("\n📊 Summary: %d changed, %d failed\n", changed, len(out.Failed()))
}

// Coverage prints the reading-UI walk of each story and a summary.
func (p *Printer) Coverage(results []batch.StoryCoverage) {
	var working, problematic, failed []string
	for _, sc := range results {
		_, _ = bold.Fprintf(p.w, "\n--- %s ---\n", sc.Story)
		if sc.Err != nil {
			_, _ = red.Fprintf(p.w, "❌ %v\n", sc.Err)
			failed = append(failed, sc.Story)
			continue
		}
		for _, lc := range sc.Languages {
			if lc.Err != nil {
				_, _ = red.Fprintf(p.w, "  ❌ %s: %v\n", lc.Language, lc.Err)
				continue
			}
			expected, found := lc.Totals()
			rate := percent(found, expected)
			if found == expected {
				_, _ = green.Fprintf(p.w, "  ✅ %s: all sentences found (%d/%d = %.1f%%)\n", lc.Language, found, expected, rate)
			} else {
				_, _ = red.Fprintf(p.w, "  ❌ %s: issues found (%d/%d = %.1f%%)\n", lc.Language, found, expected, rate)
			}
			for _, u := range lc.Units {
				switch {
				case u.Err != nil:
					_, _ = red.Fprintf(p.w, "     %v\n", u.Err)
				case !u.Coverage.Complete():
					p.printf("     Chapter %d: %d/%d sentences not found\n", u.Index+1, len(u.Coverage.Missing), u.Coverage.Expected)
				}
			}
		}
		if sc.Complete() {
			working = append(working, sc.Story)
		} else {
			problematic = append(problematic, sc.Story)
		}
	}

	p.printf("\n=== Summary ===\n")
	_, _ = green.Fprintf(p.w, "✅ Working stories: %d\n", len(working))
	_, _ = yellow.Fprintf(p.w, "⚠️  Problematic stories: %d\n", len(problematic))
	_, _ = red.Fprintf(p.w, "❌ Error stories: %d\n", len(failed))
	if len(problematic) > 0 {
		p.printf("\nProblematic stories:\n")
		p.list(yellow, problematic)
	}
	if len(failed) > 0 {
		p.printf("\nStories with errors:\n")
		p.list(red, failed)
	}
}

// Missing prints a dictionary check.
func (p *Printer) Missing(storyID, code string, r vocab.Report) {
	_, _ = bold.Fprintf(p.w, "📚 %s (%s)\n", storyID, code)
	p.printf("Total words processed: %d\n", r.TotalWords)
	p.printf("Unique words found: %d\n", r.UniqueWords)
	_, _ = green.Fprintf(p.w, "✅ Words found in dictionary: %d\n", r.Found)
	_, _ = red.Fprintf(p.w, "❌ Words missing from dictionary: %d\n", len(r.Missing))
	p.printf("📈 Dictionary coverage: %.1f%%\n", r.Coverage())
	if len(r.Missing) > 0 {
		p.printf("\n🔍 Missing words:\n")
		p.list(red, r.Missing)
	}
}

// Status prints the translation state of every unit.
func (p *Printer) Status(storyID, source, target string, units []story.UnitStatus) {
	_, _ = bold.Fprintf(p.w, "🌐 %s: %s → %s\n", storyID, source, target)
	counts := map[story.Status]int{}
	for _, u := range units {
		counts[u.Status]++
		label := fmt.Sprintf("  %d. %s", u.Index+1, u.Title)
		switch u.Status {
		case story.StatusUpToDate:
			_, _ = green.Fprintf(p.w, "%s ✅ %s\n", label, u.Status)
		case story.StatusReview:
			_, _ = yellow.Fprintf(p.w, "%s ⚠️  %s\n", label, u.Status)
		default:
			_, _ = red.Fprintf(p.w, "%s ❌ %s\n", label, u.Status)
		}
		for _, reason := range u.Reasons {
			p.printf("     - %s\n", reason)
		}
		if len(u.Missing) > 0 {
			p.list(red, u.Missing)
		}
	}
	p.printf("\n📊 Summary: %d up to date, %d to review, %d stale\n",
		counts[story.StatusUpToDate], counts[story.StatusReview], counts[story.StatusStale])
}
