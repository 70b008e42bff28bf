// Package text canonicalizes and sanitizes untrusted post content before it
// reaches validation and delivery. All transformations here are pure and
// total: adversarial input degrades to a short or empty safe string, never
// to an error.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies Unicode canonical-compatibility normalization (NFKC) and
// strips invisible codepoints: zero-width characters, BOM, bidirectional
// controls, and other format characters that survive NFKC. Ordinary
// whitespace is left alone; later sanitization owns whitespace policy.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isInvisible(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isInvisible(r rune) bool {
	switch r {
	case '\u200B', // zero-width space
		'\u200C', // zero-width non-joiner
		'\u200D', // zero-width joiner
		'\u2060', // word joiner
		'\uFEFF', // BOM / zero-width no-break space
		'\u00AD', // soft hyphen
		'\u180E': // mongolian vowel separator
		return true
	case '\u200E', '\u200F', '\u061C': // bidi marks
		return true
	}
	if r >= '\u202A' && r <= '\u202E' { // bidi embeddings and overrides
		return true
	}
	if r >= '\u2066' && r <= '\u2069' { // bidi isolates
		return true
	}
	// Remaining format characters (tag characters, interlinear annotation...).
	return unicode.Is(unicode.Cf, r)
}
