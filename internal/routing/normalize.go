package routing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a raw question into the form used as the cache
// key: trimmed, lower-cased, internal whitespace runs collapsed to a single
// space, and trailing punctuation runs ("???", "...") stripped.  Two raw
// questions that normalize identically share a cache entry and an analysis.
func Normalize(question string) string {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return ""
	}
	q = strings.Join(strings.Fields(q), " ")
	q = strings.TrimRightFunc(q, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.TrimSpace(q)
}

// foldTransformer strips combining marks so accented and unaccented
// spellings match ("farmácia" and "farmacia" score the same keyword).
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold removes diacritics from an already-normalized string.  Folding is a
// matching concern only; cache keys keep their accents.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return folded
}

// tokenize splits folded text on anything that is not a letter or digit.
// It is a single linear pass; pathological inputs stay cheap.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
