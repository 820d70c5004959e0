// Package slug derives URL-safe path segments from entry titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fallback is returned for titles that contain no ASCII letters or digits.
const Fallback = "untitled"

// Make converts a title to a lowercase ASCII slug made of [a-z0-9-] with no
// leading or trailing hyphen. It never returns an empty string.
func Make(title string) string {
	folded := fold(title)
	var b strings.Builder
	b.Grow(len(folded))
	pending := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pending = false
		default:
			pending = true
		}
	}
	if b.Len() == 0 {
		return Fallback
	}
	return b.String()
}

// fold decomposes s and drops combining marks and any rune left outside
// ASCII, so "Canción" becomes "Cancion" and "東京" becomes "".
func fold(s string) string {
	t := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return ""
	}
	return out
}
