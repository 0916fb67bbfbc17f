package stats

import (
	"sort"
	"strconv"

	"github.com/alem-hub/roster-insights/internal/domain/relations"
	"github.com/alem-hub/roster-insights/internal/domain/roster"
)

// Headers of the detail tables.
const (
	ColumnName          = "ΟΝΟΜΑ"
	ColumnConflictCount = "ΣΥΓΚΡΟΥΣΗ_ΠΛΗΘΟΣ"
	ColumnConflictNames = "ΣΥΓΚΡΟΥΣΗ_ΟΝΟΜΑ"
	ColumnPairA         = "A"
	ColumnPairAClass    = "A_ΤΜΗΜΑ"
	ColumnPairB         = "B"
	ColumnPairBClass    = "B_ΤΜΗΜΑ"
)

// ConflictingStudent is a row with at least one realized same-class conflict.
type ConflictingStudent struct {
	Name       string `json:"name"`
	ClassLabel string `json:"class_label"`
	Count      int    `json:"count"`
	Names      string `json:"names"`
}

// ConflictingStudents lists rows with a positive conflict count, ordered by
// class then name.
func ConflictingStudents(r *roster.Roster, records []relations.ConflictRecord) []ConflictingStudent {
	out := []ConflictingStudent{}
	for _, rec := range records {
		if rec.Count == 0 {
			continue
		}
		s := r.Student(rec.Row)
		out = append(out, ConflictingStudent{
			Name:       s.Name,
			ClassLabel: s.ClassLabel,
			Count:      rec.Count,
			Names:      rec.Joined(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ClassLabel != out[j].ClassLabel {
			return LessClassLabel(out[i].ClassLabel, out[j].ClassLabel)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ClassCount is one line of a per-class summary.
type ClassCount struct {
	ClassLabel string `json:"class_label"`
	Count      int    `json:"count"`
}

// BrokenSummary counts broken pair sides per class, in class order. Only
// classes touched by a pair appear.
func BrokenSummary(pairs []relations.BrokenPair) []ClassCount {
	counts := relations.BrokenByClass(pairs)

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	SortClassLabels(labels)

	out := make([]ClassCount, 0, len(labels))
	for _, label := range labels {
		out = append(out, ClassCount{ClassLabel: label, Count: counts[label]})
	}
	return out
}

// FlatConflictingStudents renders the conflicting-student list as
// (ΟΝΟΜΑ, ΤΜΗΜΑ, ΣΥΓΚΡΟΥΣΗ_ΠΛΗΘΟΣ, ΣΥΓΚΡΟΥΣΗ_ΟΝΟΜΑ) rows, keeping its order.
func FlatConflictingStudents(list []ConflictingStudent) *roster.Table {
	rows := make([][]string, 0, len(list))
	for _, cs := range list {
		rows = append(rows, []string{cs.Name, cs.ClassLabel, strconv.Itoa(cs.Count), cs.Names})
	}
	return roster.NewTable([]string{ColumnName, ColumnClass, ColumnConflictCount, ColumnConflictNames}, rows)
}

// FlatBrokenPairs renders broken pairs as (A, A_ΤΜΗΜΑ, B, B_ΤΜΗΜΑ) rows.
func FlatBrokenPairs(pairs []relations.BrokenPair) *roster.Table {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p.A, p.AClass, p.B, p.BClass})
	}
	return roster.NewTable([]string{ColumnPairA, ColumnPairAClass, ColumnPairB, ColumnPairBClass}, rows)
}
