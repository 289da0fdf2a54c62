// Package sentence rebuilds sentence strings from token streams.
package sentence

import (
	"github.com/daikw/tapread/internal/lang"
	"github.com/daikw/tapread/internal/token"
)

// Candidate is a contiguous run of tokens rendered as one sentence
// hypothesis. Start and End are inclusive token indexes.
type Candidate struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// DefaultWindow is the exhaustive window used by the CLI and the MCP server
// unless configured otherwise. An unbounded window yields a quadratic number
// of candidates, each as long as the rest of the stream.
const DefaultWindow = 100

// Options controls candidate enumeration.
type Options struct {
	// Exhaustive enumerates every start index instead of buffer-reset points.
	Exhaustive bool
	// Window caps the tokens per exhaustive candidate. Zero means unbounded.
	Window int
}

// Reconstruct returns the candidate sentences of a stream in stream order.
func Reconstruct(stream token.Stream, opts Options) []Candidate {
	if len(stream.Tokens) == 0 {
		return nil
	}
	family := lang.FamilyOf(stream.Language)
	if opts.Exhaustive {
		return exhaustive(stream.Tokens, family, opts.Window)
	}
	return segments(stream.Tokens, family)
}

// segments walks the stream once. A sentence closes at the token before a
// terminator; the terminator run and any closing bracket or open quote that
// follows it are attached to that sentence.
func segments(tokens []token.Token, family lang.Family) []Candidate {
	quotes := quoteStates(tokens)
	var out []Candidate
	start := -1

	emit := func(from, to int) {
		j := newJoiner(family, quotes[from])
		for _, t := range tokens[from : to+1] {
			j.add(t)
		}
		out = append(out, Candidate{Text: j.String(), Start: from, End: to})
	}

	for i := 0; i < len(tokens); i++ {
		if start < 0 {
			if tokens[i].Kind == token.Terminator {
				continue
			}
			start = i
		}
		if i+1 < len(tokens) && tokens[i+1].Kind == token.Terminator {
			end := closeAt(tokens, quotes, i+1)
			emit(start, end)
			start = -1
			i = end
		}
	}
	if start >= 0 {
		emit(start, len(tokens)-1)
	}
	return out
}

// closeAt returns the last index of the sentence whose terminator run starts
// at i.
func closeAt(tokens []token.Token, quotes []quoteState, i int) int {
	end := i
	for end+1 < len(tokens) && tokens[end+1].Kind == token.Terminator {
		end++
	}
	for end+1 < len(tokens) {
		next := tokens[end+1]
		q := quotes[end+1]
		switch {
		case token.IsClosingBracket(next):
		case next.Text == `"` && q.dq:
		case next.Text == "'" && q.sq:
		default:
			return end
		}
		end++
	}
	return end
}

// exhaustive emits every prefix from every non-terminator start. A prefix
// followed by a terminator is only emitted with the terminator attached.
func exhaustive(tokens []token.Token, family lang.Family, window int) []Candidate {
	quotes := quoteStates(tokens)
	var out []Candidate

	for start := range tokens {
		if tokens[start].Kind == token.Terminator {
			continue
		}
		limit := len(tokens)
		if window > 0 && start+window < limit {
			limit = start + window
		}

		j := newJoiner(family, quotes[start])
		for i := start; i < limit; i++ {
			j.add(tokens[i])
			if tokens[i].Kind == token.Terminator {
				continue
			}
			end := i
			for end+1 < len(tokens) && tokens[end+1].Kind == token.Terminator {
				end++
				j.add(tokens[end])
			}
			out = append(out, Candidate{Text: j.String(), Start: start, End: end})
			i = end
		}
	}
	return out
}

// Texts returns the candidate texts in order.
func Texts(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Text
	}
	return out
}
