package attendance

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var titleCaser = cases.Title(language.Und)

var diacriticsRemover = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeName trims and collapses whitespace in a display name.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// TitleName normalizes a name and title-cases each word, for names recovered
// from file name tokens like "alice_smith".
func TitleName(name string) string {
	return titleCaser.String(NormalizeName(name))
}

// SafeFileName converts a person's name into an ASCII token usable in
// photo file names. "Jiří Novák" becomes "jiri_novak".
func SafeFileName(name string) string {
	folded, _, err := transform.String(diacriticsRemover, NormalizeName(name))
	if err != nil {
		folded = NormalizeName(name)
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
