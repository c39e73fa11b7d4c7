// Package token implements fuzzy matching of free-text column titles against
// the names of method parameters and their nested members.
//
// Titles and names are normalized into space-separated lower-case words by
// [Tokenize]. A [Vocabulary] maps such tokens to the parameter (or return
// setter) chains they stand for, and [Matcher.BestMatches] ranks vocabulary
// entries by word overlap with a query.
package token

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenize normalizes text into lower-case words separated by single spaces.
// Diacritics and punctuation are removed, and camelCase as well as
// letter/digit boundaries start new words: "Driver Åge" and "driverAge"
// both become "driver age".
func Tokenize(s string) string {
	return strings.Join(Words(s), " ")
}

// Words returns the normalized words of s.
func Words(s string) []string {
	// Transformers and casers keep state, so they are created per call.
	plain, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		plain = s
	}

	fold := cases.Fold()

	words := splitWords(plain)
	for i, w := range words {
		words[i] = fold.String(w)
	}

	return words
}

func splitWords(s string) []string {
	var (
		words []string
		cur   []rune
	)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	rs := []rune(s)
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}

		if len(cur) > 0 && isBoundary(rs, i) {
			flush()
		}

		cur = append(cur, r)
	}

	flush()

	return words
}

func isBoundary(rs []rune, i int) bool {
	prev, r := rs[i-1], rs[i]

	switch {
	case unicode.IsDigit(prev) != unicode.IsDigit(r):
		return true
	case unicode.IsLower(prev) && unicode.IsUpper(r):
		return true
	case unicode.IsUpper(prev) && unicode.IsUpper(r):
		// "URLPath": the "P" starts a new word.
		return i+1 < len(rs) && unicode.IsLower(rs[i+1])
	}

	return false
}
