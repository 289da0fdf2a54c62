// Package reconcile aligns translation map keys with the sentences that can be
// rebuilt from a token stream and re-keys the map where a key drifted.
package reconcile

import (
	"github.com/agnivade/levenshtein"
	"github.com/daikw/tapread/internal/sentence"
	"github.com/daikw/tapread/internal/token"
	"github.com/rs/zerolog/log"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultThreshold is the fuzzy similarity a candidate must exceed.
const DefaultThreshold = 0.8

// Rule names the matching rule that resolved a key.
type Rule string

const (
	RuleExact        Rule = "exact"
	RuleWhitespace   Rule = "whitespace"
	RuleQuoteSpacing Rule = "quote-spacing"
	RuleFuzzy        Rule = "fuzzy"
)

// Translations is a translation map in file order.
type Translations = orderedmap.OrderedMap[string, string]

// NewTranslations returns an empty map.
func NewTranslations() *Translations {
	return orderedmap.New[string, string]()
}

// Repair records a key rewritten to a candidate's exact text.
type Repair struct {
	Old        string  `json:"old"`
	New        string  `json:"new"`
	Rule       Rule    `json:"rule"`
	Distance   int     `json:"distance"`
	Similarity float64 `json:"similarity"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// Result partitions the expected keys and carries the rewritten map.
type Result struct {
	Matched      []string      `json:"matched"`
	Repaired     []Repair      `json:"repaired"`
	Unresolved   []string      `json:"unresolved"`
	Translations *Translations `json:"translations"`
}

// Total is the number of classified keys.
func (r Result) Total() int {
	return len(r.Matched) + len(r.Repaired) + len(r.Unresolved)
}

// Issues is the number of keys that need human review.
func (r Result) Issues() int {
	return len(r.Unresolved)
}

// Changed reports whether the rewritten map differs from the input.
func (r Result) Changed() bool {
	return len(r.Repaired) > 0
}

// Reconciler applies the matching policy. It holds no mutable state.
type Reconciler struct {
	threshold float64
}

// NewReconciler creates a Reconciler. A threshold outside (0, 1] falls back
// to DefaultThreshold.
func NewReconciler(threshold float64) *Reconciler {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Reconciler{threshold: threshold}
}

// Threshold returns the fuzzy similarity threshold in use.
func (r *Reconciler) Threshold() float64 {
	return r.threshold
}

// index looks candidates up by text. The whitespace and punctuation maps
// are only built once a key misses the exact map.
type index struct {
	exact    map[string]sentence.Candidate
	stripped map[string]sentence.Candidate
	punct    map[string]sentence.Candidate
	cands    []sentence.Candidate
}

func newIndex(cands []sentence.Candidate) *index {
	ix := &index{
		exact: make(map[string]sentence.Candidate, len(cands)),
		cands: cands,
	}
	// first occurrence wins so ties resolve to the earliest position
	for _, c := range cands {
		if _, ok := ix.exact[c.Text]; !ok {
			ix.exact[c.Text] = c
		}
	}
	return ix
}

func (ix *index) loose() {
	if ix.stripped != nil {
		return
	}
	ix.stripped = make(map[string]sentence.Candidate, len(ix.exact))
	ix.punct = make(map[string]sentence.Candidate, len(ix.exact))
	for _, c := range ix.cands {
		if k := token.StripSpace(c.Text); k != "" {
			if _, ok := ix.stripped[k]; !ok {
				ix.stripped[k] = c
			}
		}
		if k := punctKey(c.Text); k != "" {
			if _, ok := ix.punct[k]; !ok {
				ix.punct[k] = c
			}
		}
	}
}

// match runs the policy for one key. ok is false when the key is unresolved.
func (r *Reconciler) match(ix *index, key string) (rep Repair, ok bool) {
	if c, ok := ix.exact[key]; ok {
		return Repair{Old: key, New: c.Text, Rule: RuleExact, Similarity: 1, Start: c.Start, End: c.End}, true
	}
	ix.loose()
	if c, ok := ix.stripped[token.StripSpace(key)]; ok {
		return Repair{Old: key, New: c.Text, Rule: RuleWhitespace, Similarity: 1, Start: c.Start, End: c.End}, true
	}
	if c, ok := ix.exact[fixQuotes(key)]; ok {
		return Repair{Old: key, New: c.Text, Rule: RuleQuoteSpacing, Similarity: 1, Start: c.Start, End: c.End}, true
	}
	if c, ok := ix.punct[punctKey(key)]; ok {
		return Repair{Old: key, New: c.Text, Rule: RuleQuoteSpacing, Similarity: 1, Start: c.Start, End: c.End}, true
	}
	return r.fuzzy(ix, key)
}

// fuzzy returns the candidate with the highest similarity above the
// threshold. Equal similarities keep the earliest candidate.
func (r *Reconciler) fuzzy(ix *index, key string) (Repair, bool) {
	keyLen := len([]rune(key))
	best := Repair{Old: key, Rule: RuleFuzzy, Similarity: -1}
	seen := make(map[string]bool)

	for _, c := range ix.cands {
		if seen[c.Text] {
			continue
		}
		seen[c.Text] = true

		candLen := len([]rune(c.Text))
		longer, diff := keyLen, keyLen-candLen
		if candLen > longer {
			longer = candLen
		}
		if diff < 0 {
			diff = -diff
		}
		if longer == 0 {
			continue
		}
		// distance is at least the length difference
		if float64(longer-diff)/float64(longer) <= r.threshold {
			continue
		}

		dist := levenshtein.ComputeDistance(key, c.Text)
		sim := float64(longer-dist) / float64(longer)
		if sim > r.threshold && sim > best.Similarity {
			best.New, best.Distance, best.Similarity = c.Text, dist, sim
			best.Start, best.End = c.Start, c.End
		}
	}
	return best, best.Similarity > r.threshold
}

// Similarity is (longer - distance) / longer over runes. Two empty strings
// are identical.
func Similarity(a, b string) float64 {
	longer := len([]rune(a))
	if n := len([]rune(b)); n > longer {
		longer = n
	}
	if longer == 0 {
		return 1
	}
	return float64(longer-levenshtein.ComputeDistance(a, b)) / float64(longer)
}

// Reconcile classifies every expected key against the candidates and returns
// a rewritten copy of translations. The input map is never modified. A repair
// whose new key is already a key of the map, or was claimed by an earlier
// key, is reported unresolved so no translation is overwritten.
func (r *Reconciler) Reconcile(keys []string, cands []sentence.Candidate, translations *Translations) Result {
	if translations == nil {
		translations = NewTranslations()
	}
	ix := newIndex(cands)
	res := Result{}
	claimed := make(map[string]string)
	renames := make(map[string]string)

	for _, key := range keys {
		rep, ok := r.match(ix, key)
		switch {
		case !ok:
			res.Unresolved = append(res.Unresolved, key)
			log.Debug().Str("key", key).Msg("No candidate sentence for key")
			continue
		case rep.Rule == RuleExact:
			res.Matched = append(res.Matched, key)
			claimed[key] = key
			continue
		}

		_, exists := translations.Get(rep.New)
		prev, taken := claimed[rep.New]
		if taken && prev == key {
			// duplicate expected key, already moved
			res.Repaired = append(res.Repaired, rep)
			continue
		}
		if exists || taken {
			if !taken {
				prev = rep.New
			}
			log.Warn().Str("key", key).Str("candidate", rep.New).Str("held_by", prev).Msg("Repair would overwrite an existing key, leaving it unresolved")
			res.Unresolved = append(res.Unresolved, key)
			continue
		}

		if rep.Rule == RuleFuzzy {
			log.Info().Str("old", key).Str("new", rep.New).Int("distance", rep.Distance).Float64("similarity", rep.Similarity).Msg("Fuzzy sentence repair")
		}
		claimed[rep.New] = key
		renames[key] = rep.New
		res.Repaired = append(res.Repaired, rep)
	}

	out := NewTranslations()
	for pair := translations.Oldest(); pair != nil; pair = pair.Next() {
		if to, ok := renames[pair.Key]; ok {
			out.Set(to, pair.Value)
			continue
		}
		out.Set(pair.Key, pair.Value)
	}
	res.Translations = out
	return res
}

// ReconcileMap reconciles every key of translations.
func (r *Reconciler) ReconcileMap(cands []sentence.Candidate, translations *Translations) Result {
	return r.Reconcile(Keys(translations), cands, translations)
}

// Keys returns the keys of m in order.
func Keys(m *Translations) []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
