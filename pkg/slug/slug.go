// Package slug derives URL slugs from display names.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes characters and removes combining marks, so
// "Bürolandschaft" becomes "burolandschaft".
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make lowercases name, strips accents, and collapses every run of
// non-alphanumeric characters into a single hyphen.
func Make(name string) string {
	s, _, err := transform.String(stripAccents, name)
	if err != nil {
		s = name
	}
	s = strings.ToLower(s)

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// WithSuffix appends the numeric collision suffix used when a slug is
// already taken: "acme", "acme-2", "acme-3", ...
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
