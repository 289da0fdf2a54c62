// Package lang holds the language rule table shared by the tokenizer and the
// sentence reconstructor.
package lang

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Family groups languages that share word-boundary and rendering rules.
type Family int

const (
	// Latin is a space-delimited Latin-script language.
	Latin Family = iota
	// CJK is a dense script without spaces between words (ja, zh).
	CJK
	// Hangul is space-delimited but non-Latin (ko).
	Hangul
)

func (f Family) String() string {
	switch f {
	case CJK:
		return "cjk"
	case Hangul:
		return "hangul"
	default:
		return "latin"
	}
}

// Segmenter names of the dictionary-based backends.
const (
	SegmenterKagome = "kagome"
	SegmenterGse    = "gse"
)

// Default is the language whose rules are used when a code cannot be resolved.
const Default = "en"

// Language is one row of the rule table.
type Language struct {
	Code      string
	Name      string
	Family    Family
	Segmenter string // empty when only rule-based tokenization exists
}

var table = map[string]Language{
	"en": {Code: "en", Name: "English", Family: Latin},
	"es": {Code: "es", Name: "Spanish", Family: Latin},
	"vi": {Code: "vi", Name: "Vietnamese", Family: Latin},
	"de": {Code: "de", Name: "German", Family: Latin},
	"fr": {Code: "fr", Name: "French", Family: Latin},
	"it": {Code: "it", Name: "Italian", Family: Latin},
	"pt": {Code: "pt", Name: "Portuguese", Family: Latin},
	"ja": {Code: "ja", Name: "Japanese", Family: CJK, Segmenter: SegmenterKagome},
	"zh": {Code: "zh", Name: "Chinese", Family: CJK, Segmenter: SegmenterGse},
	"ko": {Code: "ko", Name: "Korean", Family: Hangul},
}

// Lookup returns the table entry for an exact base code.
func Lookup(code string) (Language, bool) {
	l, ok := table[code]
	return l, ok
}

// Resolve maps a BCP 47 tag such as "ja", "zh-Hant" or "pt_BR" to its rule
// table entry. ok is false when the code is malformed or its base language
// is not in the table; the returned Language then carries Latin rules.
func Resolve(code string) (l Language, ok bool) {
	code = strings.TrimSpace(strings.ReplaceAll(code, "_", "-"))
	tag, err := language.Parse(code)
	if err != nil {
		return table[Default], false
	}

	base, _ := tag.Base()
	if l, ok := table[base.String()]; ok {
		return l, true
	}

	name := display.English.Languages().Name(tag)
	if name == "" {
		name = base.String()
	}
	return Language{Code: base.String(), Name: name, Family: Latin}, false
}

// FamilyOf returns the rule family for a code, defaulting to Latin.
func FamilyOf(code string) Family {
	l, _ := Resolve(code)
	return l.Family
}

// Supported returns the codes of the rule table in sorted order.
func Supported() []string {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
