// Package stats aggregates per-class demographic and relationship counts and
// renders the detail tables of a roster analysis.
package stats

import (
	"strconv"

	"github.com/alem-hub/roster-insights/internal/domain/relations"
	"github.com/alem-hub/roster-insights/internal/domain/roster"
)

// Headers of the flat statistics table besides the attribute keys.
const (
	ColumnClass     = "ΤΜΗΜΑ"
	ColumnConflicts = "ΣΥΓΚΡΟΥΣΗ"
	ColumnBroken    = "ΣΠΑΣΜΕΝΗ ΦΙΛΙΑ"
	ColumnTotal     = "ΣΥΝΟΛΟ ΜΑΘΗΤΩΝ"
)

// ClassStatistics holds the counts of one class.
type ClassStatistics struct {
	ClassLabel        string         `json:"class_label"`
	Attributes        map[string]int `json:"attributes"`
	Conflicts         int            `json:"conflicts"`
	BrokenFriendships int            `json:"broken_friendships"`
	Total             int            `json:"total"`
}

// Table is the statistics table, one entry per class in class order.
type Table struct {
	AttributeKeys []string          `json:"attribute_keys"`
	Classes       []ClassStatistics `json:"classes"`
}

// Aggregate runs both detectors over r and merges their results.
func Aggregate(r *roster.Roster) *Table {
	return Merge(r, relations.DetectConflicts(r), relations.FindBrokenPairs(r))
}

// Merge builds the statistics table from the roster and detector outputs.
// Every class present in the roster gets an entry, with zero counts where
// nothing applies. Attributes whose column is absent read as zero. Without
// a class column the table has no entries.
func Merge(r *roster.Roster, conflicts []relations.ConflictRecord, pairs []relations.BrokenPair) *Table {
	keys := r.Schema().AttributeKeys()
	t := &Table{AttributeKeys: keys, Classes: []ClassStatistics{}}
	if !r.HasClasses() {
		return t
	}

	byLabel := make(map[string]*ClassStatistics)
	var labels []string
	group := func(label string) *ClassStatistics {
		cs, ok := byLabel[label]
		if !ok {
			cs = &ClassStatistics{ClassLabel: label, Attributes: make(map[string]int, len(keys))}
			for _, k := range keys {
				cs.Attributes[k] = 0
			}
			byLabel[label] = cs
			labels = append(labels, label)
		}
		return cs
	}

	for _, s := range r.Students() {
		cs := group(s.ClassLabel)
		cs.Total++
		for _, k := range keys {
			if v, ok := r.Attribute(s.Row, k); ok && v {
				cs.Attributes[k]++
			}
		}
	}

	for label, n := range relations.ConflictsByClass(r, conflicts) {
		group(label).Conflicts += n
	}
	for label, n := range relations.BrokenByClass(pairs) {
		group(label).BrokenFriendships += n
	}

	SortClassLabels(labels)
	t.Classes = make([]ClassStatistics, 0, len(labels))
	for _, label := range labels {
		t.Classes = append(t.Classes, *byLabel[label])
	}
	return t
}

// Class returns the entry for label.
func (t *Table) Class(label string) (ClassStatistics, bool) {
	for _, cs := range t.Classes {
		if cs.ClassLabel == label {
			return cs, true
		}
	}
	return ClassStatistics{}, false
}

// Headers returns the header row of the flat export.
func (t *Table) Headers() []string {
	h := make([]string, 0, len(t.AttributeKeys)+4)
	h = append(h, ColumnClass)
	h = append(h, t.AttributeKeys...)
	return append(h, ColumnConflicts, ColumnBroken, ColumnTotal)
}

// Flat renders the table as string cells under Headers, one row per class.
func (t *Table) Flat() *roster.Table {
	rows := make([][]string, 0, len(t.Classes))
	for _, cs := range t.Classes {
		row := make([]string, 0, len(t.AttributeKeys)+4)
		row = append(row, cs.ClassLabel)
		for _, k := range t.AttributeKeys {
			row = append(row, strconv.Itoa(cs.Attributes[k]))
		}
		row = append(row,
			strconv.Itoa(cs.Conflicts),
			strconv.Itoa(cs.BrokenFriendships),
			strconv.Itoa(cs.Total),
		)
		rows = append(rows, row)
	}
	return roster.NewTable(t.Headers(), rows)
}
