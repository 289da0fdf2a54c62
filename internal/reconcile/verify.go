package reconcile

import (
	"github.com/daikw/tapread/internal/lang"
	"github.com/daikw/tapread/internal/sentence"
	"github.com/daikw/tapread/internal/token"
)

// Coverage is the outcome of walking a stream the way the reading UI does.
type Coverage struct {
	Expected int      `json:"expected"`
	Found    []string `json:"found"`
	Missing  []string `json:"missing"`
}

// Rate is the share of expected keys the walk located, in percent.
func (c Coverage) Rate() float64 {
	if c.Expected == 0 {
		return 100
	}
	return float64(len(c.Found)) / float64(c.Expected) * 100
}

// Complete reports whether every key was located.
func (c Coverage) Complete() bool {
	return len(c.Missing) == 0
}

// Verify simulates the reader: tokens are appended to a buffer, a token
// followed by a terminator takes the terminator with it, and the buffer is
// closed as soon as it equals a translation key. A key that never closes the
// buffer is missing, and so is everything the unclosed buffer swallowed.
func Verify(stream token.Stream, translations *Translations) Coverage {
	cov := Coverage{}
	if translations == nil {
		return cov
	}
	cov.Expected = translations.Len()

	found := make(map[string]bool)
	buf := sentence.NewBuffer(lang.FamilyOf(stream.Language))
	toks := stream.Tokens
	for i := 0; i < len(toks); i++ {
		if toks[i].Kind == token.Terminator {
			continue
		}
		buf.Add(toks[i])
		for i+1 < len(toks) && toks[i+1].Kind == token.Terminator {
			i++
			buf.Add(toks[i])
		}

		text := buf.String()
		if _, ok := translations.Get(text); ok {
			if !found[text] {
				found[text] = true
				cov.Found = append(cov.Found, text)
			}
			buf.Reset()
		}
	}

	for _, key := range Keys(translations) {
		if !found[key] {
			cov.Missing = append(cov.Missing, key)
		}
	}
	return cov
}
