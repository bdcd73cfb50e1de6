// Package normalize provides utilities for normalizing and sanitizing book text.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Text trims surrounding space and drops null bytes and other control
// characters. Imported CSV cells and model output both pass through it.
func Text(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\t' || r == ' ' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Title returns the comparison form of a book title: compatibility-normalized,
// case-folded, with punctuation dropped and runs of space collapsed.
// "The Left Hand of Darkness" and "the left-hand of  DARKNESS" compare equal.
func Title(s string) string {
	s = norm.NFKC.String(Text(s))
	s = cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// SameTitle reports whether two titles normalize to the same form.
func SameTitle(a, b string) bool {
	return Title(a) == Title(b)
}

// Date rewrites a slash-separated date ("2023/01/15") to the dash form used
// for storage. Empty input stays empty.
func Date(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "/", "-")
}
