package story

import "strings"

// Status is the translation state of one unit.
type Status string

const (
	StatusUpToDate Status = "up-to-date"
	StatusStale    Status = "stale"
	// StatusReview means every sentence is translated but the title or
	// description equals the source text, which may be a copy.
	StatusReview Status = "review"
)

// UnitStatus describes how far a target unit lags behind its source.
type UnitStatus struct {
	Index   int      `json:"index"`
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Status  Status   `json:"status"`
	Reasons []string `json:"reasons,omitempty"`

	Missing      []string `json:"missing,omitempty"`      // source keys without a translation
	Untranslated []string `json:"untranslated,omitempty"` // translations equal to their key
}

// CompareTranslations checks every source unit against the matching target
// unit. A unit is up to date only when every source sentence has a non-empty
// translation that differs from the sentence, and the title and description
// are present. Title or description identical to the source is flagged for
// review rather than counted as translated.
func CompareTranslations(source, target *Document) []UnitStatus {
	out := make([]UnitStatus, 0, len(source.Units))
	for i, src := range source.Units {
		st := UnitStatus{Index: i, ID: src.ID, Title: src.Title}
		dst := target.FindUnit(src.ID, i)
		if dst == nil {
			st.Status = StatusStale
			st.Reasons = append(st.Reasons, "missing in target")
			out = append(out, st)
			continue
		}

		if src.Sentences != nil {
			for p := src.Sentences.Oldest(); p != nil; p = p.Next() {
				value, ok := "", false
				if dst.Sentences != nil {
					value, ok = dst.Sentences.Get(p.Key)
				}
				switch {
				case !ok || strings.TrimSpace(value) == "":
					st.Missing = append(st.Missing, p.Key)
				case value == p.Key:
					st.Untranslated = append(st.Untranslated, p.Key)
				}
			}
		}
		if dst.Sentences != nil {
			for p := dst.Sentences.Oldest(); p != nil; p = p.Next() {
				if src.Sentences == nil && strings.TrimSpace(p.Value) == "" {
					st.Missing = append(st.Missing, p.Key)
				}
			}
		}

		if len(st.Missing) > 0 {
			st.Reasons = append(st.Reasons, "missing sentence translations")
		}
		if len(st.Untranslated) > 0 {
			st.Reasons = append(st.Reasons, "sentences identical to source")
		}
		if strings.TrimSpace(dst.Title) == "" {
			st.Reasons = append(st.Reasons, "missing title")
		}
		if strings.TrimSpace(dst.Description) == "" && strings.TrimSpace(src.Description) != "" {
			st.Reasons = append(st.Reasons, "missing description")
		}

		if len(st.Reasons) > 0 {
			st.Status = StatusStale
			out = append(out, st)
			continue
		}

		st.Status = StatusUpToDate
		if dst.Title == src.Title {
			st.Reasons = append(st.Reasons, "title possibly untranslated")
		}
		if src.Description != "" && dst.Description == src.Description {
			st.Reasons = append(st.Reasons, "description possibly untranslated")
		}
		if len(st.Reasons) > 0 {
			st.Status = StatusReview
		}
		out = append(out, st)
	}
	return out
}
