package sentence

import (
	"strings"

	"github.com/daikw/tapread/internal/lang"
	"github.com/daikw/tapread/internal/token"
)

// joiner renders tokens incrementally so a growing candidate can be
// snapshotted after every token.
type joiner struct {
	dense bool
	b     strings.Builder
	glue  bool // suppress the space before the next token
	dq    bool // a straight double quote is open
	sq    bool // a straight single quote is open
}

func newJoiner(family lang.Family, q quoteState) *joiner {
	return &joiner{dense: family == lang.CJK, glue: true, dq: q.dq, sq: q.sq}
}

func (j *joiner) add(t token.Token) {
	if j.dense {
		j.b.WriteString(t.Text)
		return
	}

	space := !j.glue
	glueAfter := token.IsOpening(t)
	switch {
	case t.Kind == token.Terminator, token.IsClosing(t):
		space = false
	case t.Text == `"`:
		if j.dq {
			space = false
		} else {
			glueAfter = true
		}
		j.dq = !j.dq
	case t.Text == "'":
		if j.sq {
			space = false
		} else {
			glueAfter = true
		}
		j.sq = !j.sq
	}

	if space {
		j.b.WriteByte(' ')
	}
	j.b.WriteString(t.Text)
	j.glue = glueAfter
}

func (j *joiner) String() string {
	return j.b.String()
}

// Render joins tokens the way the reading UI displays a sentence: dense
// scripts concatenate, spaced scripts put one space between words and none
// before closing punctuation or after opening brackets and quotes.
func Render(tokens []token.Token, code string) string {
	j := newJoiner(lang.FamilyOf(code), quoteState{})
	for _, t := range tokens {
		j.add(t)
	}
	return j.String()
}

type quoteState struct {
	dq, sq bool
}

// quoteStates returns, for every index, which straight quotes are open
// before that token.
func quoteStates(tokens []token.Token) []quoteState {
	states := make([]quoteState, len(tokens)+1)
	var q quoteState
	for i, t := range tokens {
		states[i] = q
		switch t.Text {
		case `"`:
			q.dq = !q.dq
		case "'":
			q.sq = !q.sq
		}
	}
	states[len(tokens)] = q
	return states
}

// Buffer accumulates a sentence token by token. Reset starts a new sentence
// but keeps track of straight quotes left open.
type Buffer struct {
	family lang.Family
	j      *joiner
}

// NewBuffer creates an empty buffer for a script family.
func NewBuffer(family lang.Family) *Buffer {
	return &Buffer{family: family, j: newJoiner(family, quoteState{})}
}

// Add appends a token.
func (b *Buffer) Add(t token.Token) {
	b.j.add(t)
}

// String returns the rendered sentence so far.
func (b *Buffer) String() string {
	return b.j.String()
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.j = newJoiner(b.family, quoteState{dq: b.j.dq, sq: b.j.sq})
}
