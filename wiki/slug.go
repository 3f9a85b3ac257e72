package wiki

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugStrip matches characters not allowed in a slug before hyphenation.
	slugStrip = regexp.MustCompile(`[^a-z0-9 -]+`)
	// slugSpaces matches runs of spaces left after stripping, to collapse
	// into one hyphen.
	slugSpaces = regexp.MustCompile(` +`)
	// slugHyphens matches runs of hyphens left by stripping.
	slugHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify derives the URL slug for a title: accents are folded to ASCII,
// the result is lowercased, anything outside [a-z0-9 -] is stripped,
// whitespace runs collapse to single hyphens, and leading/trailing hyphens
// are trimmed. An empty result means the title cannot name an article.
func Slugify(title string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	s := strings.ToLower(folded)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
