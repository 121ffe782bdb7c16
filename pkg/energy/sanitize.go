// CLAUDE:SUMMARY Economy name sanitizer: accent, case and punctuation-insensitive canonical keys for lookup and dedup.
package energy

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripped reports whether r is dropped from canonical names.
func stripped(r rune) bool {
	switch r {
	case '-', '\'', '’', '(', ')':
		return true
	}
	return unicode.IsSpace(r)
}

// SanitizeName canonicalizes an economy display name: "Côte d'Ivoire" and
// "COTE DIVOIRE" both become "cotedivoire". The result is stable across
// calls and SanitizeName(SanitizeName(x)) == SanitizeName(x).
func SanitizeName(name string) string {
	// transform.Chain and cases.Caser keep state; build them per call.
	folded := cases.Fold().String(strings.TrimSpace(name))
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(stripped)),
		norm.NFC,
	)
	s, _, err := transform.String(t, folded)
	if err != nil {
		return folded
	}
	return s
}
