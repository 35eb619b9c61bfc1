package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText composes the string to NFC and collapses runs of whitespace.
//
// Titles read from one catalog may use decomposed accents that the other catalog's search treats differently.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// NormalizeQueryKey returns the case-folded form of a search query, used as the cache key.
//
// A [cases.Caser] holds state, so each call builds its own.
func NormalizeQueryKey(query string) string {
	return cases.Fold().String(NormalizeText(query))
}
