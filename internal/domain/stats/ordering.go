package stats

import (
	"sort"
	"strings"
)

// classNumber returns the first run of ASCII digits in label without leading
// zeros ("0" stays "0").
func classNumber(label string) (string, bool) {
	start := strings.IndexFunc(label, isDigit)
	if start < 0 {
		return "", false
	}
	end := start
	for end < len(label) && isDigit(rune(label[end])) {
		end++
	}

	num := strings.TrimLeft(label[start:end], "0")
	if num == "" {
		num = "0"
	}
	return num, true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// LessClassLabel orders class labels by their embedded number, so "Α2" comes
// before "Α10". Equal numbers fall back to the whole label. Labels without a
// number sort after numbered ones, lexicographically.
func LessClassLabel(a, b string) bool {
	na, oka := classNumber(a)
	nb, okb := classNumber(b)

	switch {
	case oka && okb:
		if len(na) != len(nb) {
			return len(na) < len(nb)
		}
		if na != nb {
			return na < nb
		}
		return a < b
	case oka != okb:
		return oka
	default:
		return a < b
	}
}

// SortClassLabels sorts labels in place with LessClassLabel.
func SortClassLabels(labels []string) {
	sort.SliceStable(labels, func(i, j int) bool {
		return LessClassLabel(labels[i], labels[j])
	})
}
