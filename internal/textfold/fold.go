// Package textfold normalizes text for case- and diacritic-insensitive matching.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s with diacritics stripped and case folded, so that two
// strings compare equal under Fold when they differ only in case or accents.
//
//	Fold("Café Ünïcode") == "cafe unicode"
//
// Transformers carry state, so a fresh chain is built per call and Fold is
// safe for concurrent use.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return cases.Fold().String(stripped)
}

// Contains reports whether needle occurs in haystack after folding both.
// An empty needle is contained in every string.
func Contains(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
