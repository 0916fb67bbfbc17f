package roster

import (
	"strings"

	"github.com/alem-hub/roster-insights/internal/domain/naming"
)

// Student is one roster row as the engine sees it.
type Student struct {
	// Row is the zero-based position in the table; it is the identity used
	// for self-reference checks.
	Row int `json:"row"`

	Name          string `json:"name"`
	CanonicalName string `json:"canonical_name"`
	ClassLabel    string `json:"class_label"`
	FriendsRaw    string `json:"friends_raw,omitempty"`
	ConflictsRaw  string `json:"conflicts_raw,omitempty"`
}

// Roster is a read-only, schema-aware view over a Table.
// Column absence is recorded once; per-row accessors report it as a
// separate state from an empty or false value.
type Roster struct {
	schema   Schema
	table    *Table
	students []Student

	nameCol     int
	classCol    int
	friendCol   int
	conflictCol int

	friendColumn   string
	conflictColumn string
	attrs          map[string]attributeColumn
}

type attributeColumn struct {
	col    int
	marker string
}

// FromTable builds a roster over t. The table is not copied; callers must
// not mutate it while the roster is in use.
func FromTable(t *Table, schema Schema) *Roster {
	schema = schema.WithDefaults()

	r := &Roster{
		schema:      schema,
		table:       t,
		nameCol:     -1,
		classCol:    -1,
		friendCol:   -1,
		conflictCol: -1,
		attrs:       make(map[string]attributeColumn, len(schema.Attributes)),
	}

	if i, ok := t.Column(schema.NameColumn); ok {
		r.nameCol = i
	}
	if i, ok := t.Column(schema.ClassColumn); ok {
		r.classCol = i
	}
	if name, i, ok := t.FirstColumn(schema.FriendColumns...); ok {
		r.friendColumn, r.friendCol = name, i
	}
	if name, i, ok := t.FirstColumn(schema.ConflictColumns...); ok {
		r.conflictColumn, r.conflictCol = name, i
	}
	for _, a := range schema.Attributes {
		if i, ok := t.Column(a.Column); ok {
			r.attrs[a.Key] = attributeColumn{col: i, marker: strings.TrimSpace(a.Marker)}
		}
	}

	r.students = make([]Student, t.Len())
	for row := range r.students {
		s := Student{Row: row}
		s.Name = r.cell(row, r.nameCol)
		s.CanonicalName = naming.Canonicalize(s.Name)
		s.ClassLabel = strings.TrimSpace(r.cell(row, r.classCol))
		s.FriendsRaw = r.cell(row, r.friendCol)
		s.ConflictsRaw = r.cell(row, r.conflictCol)
		r.students[row] = s
	}

	return r
}

func (r *Roster) cell(row, col int) string {
	if col < 0 {
		return ""
	}
	v, _ := r.table.Cell(row, col)
	return v
}

// Schema returns the effective schema.
func (r *Roster) Schema() Schema { return r.schema }

// Len returns the number of students.
func (r *Roster) Len() int { return len(r.students) }

// Students returns all rows in table order. The slice must not be modified.
func (r *Roster) Students() []Student { return r.students }

// Student returns the row at index i.
func (r *Roster) Student(i int) Student { return r.students[i] }

// HasNames reports whether the name column exists.
func (r *Roster) HasNames() bool { return r.nameCol >= 0 }

// HasClasses reports whether the class-label column exists.
func (r *Roster) HasClasses() bool { return r.classCol >= 0 }

// HasFriends reports whether any friends-column alias exists.
func (r *Roster) HasFriends() bool { return r.friendCol >= 0 }

// HasConflicts reports whether a conflicts column exists.
func (r *Roster) HasConflicts() bool { return r.conflictCol >= 0 }

// FriendColumn returns the header of the friends column in use.
func (r *Roster) FriendColumn() string { return r.friendColumn }

// ConflictColumn returns the header of the conflicts column in use.
func (r *Roster) ConflictColumn() string { return r.conflictColumn }

// HasAttribute reports whether the column backing attribute key exists.
func (r *Roster) HasAttribute(key string) bool {
	_, ok := r.attrs[key]
	return ok
}

// Attribute returns whether row carries attribute key. present is false when
// the key is unknown or its column is absent from the table; value is then
// meaningless. Markers compare case-insensitively.
func (r *Roster) Attribute(row int, key string) (value, present bool) {
	a, ok := r.attrs[key]
	if !ok {
		return false, false
	}
	cell, ok := r.table.Cell(row, a.col)
	if !ok {
		return false, false
	}
	return strings.EqualFold(strings.TrimSpace(cell), a.marker), true
}

// Delimiters returns the list delimiters of the schema.
func (r *Roster) Delimiters() string { return r.schema.Delimiters }

// FriendFragments parses the friends cell of row.
func (r *Roster) FriendFragments(row int) []string {
	return naming.SplitList(r.students[row].FriendsRaw, r.schema.Delimiters)
}

// ConflictFragments parses the conflicts cell of row.
func (r *Roster) ConflictFragments(row int) []string {
	return naming.SplitList(r.students[row].ConflictsRaw, r.schema.Delimiters)
}
