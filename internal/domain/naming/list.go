package naming

import "strings"

// DefaultDelimiters separate names inside a friends or conflicts cell.
const DefaultDelimiters = ";,/|\n"

// ParseList splits a relationship cell on the default delimiters.
func ParseList(cell string) []string {
	return SplitList(cell, DefaultDelimiters)
}

// SplitList splits cell on any rune in delimiters, trims every fragment and
// drops empty ones. Order is preserved. Fragments are raw, not canonical.
func SplitList(cell, delimiters string) []string {
	if delimiters == "" {
		delimiters = DefaultDelimiters
	}

	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return strings.ContainsRune(delimiters, r)
	})

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
