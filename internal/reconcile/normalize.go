package reconcile

import (
	"regexp"
	"strings"

	"github.com/daikw/tapread/internal/token"
	"golang.org/x/text/unicode/norm"
)

// spacingFixes are punctuation-adjacency repairs seen in hand-authored keys.
var spacingFixes = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`([」』】）])\s+`), "$1"},
	{regexp.MustCompile(`\s+([「『【（])`), "$1"},
	{regexp.MustCompile(`([「『【（])\s+`), "$1"},
	{regexp.MustCompile(`\s+"`), `"`},
	{regexp.MustCompile(`\s+([,.!?;:])`), "$1"},
	{regexp.MustCompile(`([(\[])\s+`), "$1"},
	{regexp.MustCompile(`\s+([)\]])`), "$1"},
}

var quoteForms = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"‘", "'", "’", "'", "‚", "'",
	"…", "...",
)

// fixQuotes applies the spacing repairs, composes to NFC and folds
// typographic quotes and ellipses to their ASCII forms.
func fixQuotes(s string) string {
	s = norm.NFC.String(s)
	for _, f := range spacingFixes {
		s = f.re.ReplaceAllString(s, f.repl)
	}
	return quoteForms.Replace(s)
}

// punctKey is the comparison form of the quote-spacing rule.
func punctKey(s string) string {
	return token.StripSpace(fixQuotes(s))
}
