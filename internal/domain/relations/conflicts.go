package relations

import (
	"strings"

	"github.com/alem-hub/roster-insights/internal/domain/roster"
)

// ConflictRecord holds the realized conflicts declared by one row.
type ConflictRecord struct {
	Row   int      `json:"row"`
	Count int      `json:"count"`
	Names []string `json:"names,omitempty"`
}

// Joined returns the colliding display names for human reading.
func (c ConflictRecord) Joined() string {
	return strings.Join(c.Names, ", ")
}

// DetectConflicts returns one record per roster row. A row's count is the
// number of its conflict fragments that resolve to another row of the same
// class. Every resolved fragment counts, so a student named twice (or once in
// full and once by surname) counts twice and appears twice in Names.
// Conflicts are one-directional: the named row does not need to name the
// declaring row back.
//
// Without name, class or conflicts columns every record is zero.
func DetectConflicts(r *roster.Roster) []ConflictRecord {
	records := make([]ConflictRecord, r.Len())
	for i := range records {
		records[i].Row = i
	}

	if !r.HasNames() || !r.HasClasses() || !r.HasConflicts() {
		return records
	}

	idx := NewNameIndex(r)
	students := r.Students()

	for i, s := range students {
		for _, frag := range r.ConflictFragments(i) {
			j, ok := idx.Resolve(frag, i)
			if !ok || students[j].ClassLabel != s.ClassLabel {
				continue
			}
			records[i].Count++
			records[i].Names = append(records[i].Names, students[j].Name)
		}
	}

	return records
}

// ConflictsByClass sums the per-row counts by the class of the declaring row.
// A conflict named from both sides counts twice.
func ConflictsByClass(r *roster.Roster, records []ConflictRecord) map[string]int {
	out := make(map[string]int)
	if !r.HasClasses() {
		return out
	}
	for _, rec := range records {
		out[r.Student(rec.Row).ClassLabel] += rec.Count
	}
	return out
}
