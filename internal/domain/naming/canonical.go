// Package naming turns free-text student names into comparable identities.
//
// Names on class rosters are typed by hand: accents come and go, parts are
// reordered or truncated, list cells leak brackets and quotes from spreadsheet
// serialization. This package provides the canonical form used as identity key,
// the token view used for approximate matching, the resolver that maps a
// reference back to a known name and the parser for relationship cells.
//
// Everything here is pure and safe for concurrent use.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// edgeCutset lists characters stripped from both ends of a raw name.
// They leak from list serialization artifacts like "['Maria', 'Nikos']".
const edgeCutset = "[]'\" "

// Canonicalize normalizes a raw name into its canonical form:
// trimmed, edge brackets and quotes removed, whitespace collapsed,
// diacritical marks dropped and upper-cased.
//
// The function never fails; empty input yields an empty string.
func Canonicalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, edgeCutset)
	s = collapseSpaces(s)
	s = stripDiacritics(s)
	s = strings.ToUpper(s)

	// A trailing accent can shield a quote or bracket from the first trim.
	return tidy(s)
}

// stripDiacritics decomposes s (NFD) and removes nonspacing marks,
// so "Ελένη" and "Ελενη" compare equal.
func stripDiacritics(s string) string {
	// transform chains keep state, build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// collapseSpaces replaces every run of whitespace with a single space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tidy repeats edge trimming until the string is stable.
func tidy(s string) string {
	for {
		t := collapseSpaces(strings.Trim(s, edgeCutset))
		if t == s {
			return t
		}
		s = t
	}
}

// TokenSet is a set of alphanumeric name parts.
type TokenSet map[string]struct{}

// Tokenize splits a canonical name on every run of characters that are not
// ASCII letters or digits. Empty fragments are discarded and duplicates collapse.
func Tokenize(canonical string) TokenSet {
	parts := strings.FieldsFunc(canonical, func(r rune) bool {
		return !isASCIIAlnum(r)
	})

	set := make(TokenSet, len(parts))
	for _, p := range parts {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether tok is in the set.
func (s TokenSet) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Intersect returns the tokens present in both sets.
func (s TokenSet) Intersect(other TokenSet) TokenSet {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}

	out := make(TokenSet)
	for tok := range small {
		if large.Has(tok) {
			out[tok] = struct{}{}
		}
	}
	return out
}

// UnionSize returns |s ∪ other| without materializing the union.
func (s TokenSet) UnionSize(other TokenSet) int {
	return len(s) + len(other) - len(s.Intersect(other))
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
