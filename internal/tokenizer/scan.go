package tokenizer

import (
	"unicode"

	"github.com/daikw/tapread/internal/token"
)

// scanner walks normalized text rune by rune and emits tokens with byte
// offsets relative to base.
type scanner struct {
	runes   []rune
	offsets []int
	base    int
	out     []token.Token

	wordStart int // rune index, -1 when no word is open
}

func newScanner(text string, base int) *scanner {
	s := &scanner{base: base, wordStart: -1}
	for i, r := range text {
		s.runes = append(s.runes, r)
		s.offsets = append(s.offsets, i)
	}
	s.offsets = append(s.offsets, len(text))
	return s
}

func (s *scanner) text(from, to int) string {
	return string(s.runes[from:to])
}

func (s *scanner) emit(from, to int) {
	if from >= to {
		return
	}
	text := s.text(from, to)
	s.out = append(s.out, token.Token{
		Text:   text,
		Kind:   token.Classify(text),
		Offset: s.base + s.offsets[from],
	})
}

func (s *scanner) flush(at int) {
	if s.wordStart >= 0 {
		s.emit(s.wordStart, at)
		s.wordStart = -1
	}
}

func (s *scanner) open(at int) {
	if s.wordStart < 0 {
		s.wordStart = at
	}
}

// punct emits the punctuation rune at i as its own token and returns the
// index of the next rune. Adjacent terminators merge into one token.
func (s *scanner) punct(i int) int {
	s.flush(i)
	j := i + 1
	if token.IsTerminatorRune(s.runes[i]) {
		for j < len(s.runes) && token.IsTerminatorRune(s.runes[j]) {
			j++
		}
	}
	s.emit(i, j)
	return j
}

func (s *scanner) at(i int) rune {
	if i < 0 || i >= len(s.runes) {
		return 0
	}
	return s.runes[i]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func isJoiner(r rune) bool {
	switch r {
	case '\'', '’', '-', '‐':
		return true
	}
	return false
}

// scanLatin splits space-delimited text. Apostrophes and hyphens between
// letters stay inside the word, as do decimal and thousands separators
// between digits.
func scanLatin(text string, base int) []token.Token {
	s := newScanner(text, base)
	for i := 0; i < len(s.runes); {
		r := s.runes[i]
		switch {
		case unicode.IsSpace(r):
			s.flush(i)
			i++
		case isWordRune(r):
			s.open(i)
			i++
		case s.wordStart >= 0 && isJoiner(r) && unicode.IsLetter(s.at(i-1)) && unicode.IsLetter(s.at(i+1)):
			i++
		case s.wordStart >= 0 && (r == '.' || r == ',') && unicode.IsDigit(s.at(i-1)) && unicode.IsDigit(s.at(i+1)):
			i++
		default:
			i = s.punct(i)
		}
	}
	s.flush(len(s.runes))
	return s.out
}

type scriptClass int

const (
	classNone scriptClass = iota
	classHiragana
	classKatakana
	classHan
	classHangul
	classLatin
	classDigit
	classOther
)

func classOf(r rune) scriptClass {
	switch {
	case unicode.Is(unicode.Hiragana, r):
		return classHiragana
	case unicode.Is(unicode.Katakana, r):
		return classKatakana
	case unicode.Is(unicode.Han, r):
		return classHan
	case unicode.Is(unicode.Hangul, r):
		return classHangul
	case unicode.IsDigit(r):
		return classDigit
	case unicode.Is(unicode.Latin, r):
		return classLatin
	case isWordRune(r):
		return classOther
	}
	return classNone
}

// scanScript is the dense-script fallback: a new token starts at every
// transition between hiragana, katakana, ideographs, latin letters and
// digits. The prolonged sound mark continues the current run.
func scanScript(text string, base int) []token.Token {
	s := newScanner(text, base)
	current := classNone
	for i := 0; i < len(s.runes); {
		r := s.runes[i]
		if unicode.IsSpace(r) {
			s.flush(i)
			current = classNone
			i++
			continue
		}
		if r == 'ー' && s.wordStart >= 0 {
			i++
			continue
		}
		class := classOf(r)
		if class == classNone {
			i = s.punct(i)
			current = classNone
			continue
		}
		if class != current {
			s.flush(i)
			current = class
		}
		s.open(i)
		i++
	}
	s.flush(len(s.runes))
	return s.out
}
