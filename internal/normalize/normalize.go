// Package normalize folds and slugifies display text.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	whitespace      = regexp.MustCompile(`\s+`)
)

// Fold lowercases s, strips diacritics and collapses whitespace.
// "Pokémon  Légendes" -> "pokemon legendes".
func Fold(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Slugify converts a string to a URL-safe slug.
// "The Witcher 3: Wild Hunt" -> "the-witcher-3-wild-hunt".
// "Pokémon Red" -> "pokemon-red".
func Slugify(s string) string {
	s = norm.NFKD.String(s)

	// Remove non-ASCII characters left after decomposition.
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Text trims s and collapses internal whitespace, keeping case and accents.
func Text(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
