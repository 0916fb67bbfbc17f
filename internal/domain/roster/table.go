// Package roster models the class-assignment table handed over by the
// allocation pipeline and gives schema-aware, optional access to its columns.
//
// A column that does not exist is a distinct state from a cell that is empty
// or false: every accessor reports presence separately from the value.
package roster

import (
	"strings"

	"github.com/alem-hub/roster-insights/internal/domain/shared"
)

// Table is a loosely typed spreadsheet: a header row and string cells.
// Rows may be shorter than the header; missing trailing cells read as empty.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// NewTable creates a table from headers and rows.
func NewTable(headers []string, rows [][]string) *Table {
	return &Table{Headers: headers, Rows: rows}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the index of the column named name. Headers are compared
// after trimming surrounding whitespace.
func (t *Table) Column(name string) (int, bool) {
	if t == nil {
		return -1, false
	}
	name = strings.TrimSpace(name)
	for i, h := range t.Headers {
		if strings.TrimSpace(h) == name {
			return i, true
		}
	}
	return -1, false
}

// HasColumn reports whether a column named name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// FirstColumn returns the first of names that exists, in the order given.
func (t *Table) FirstColumn(names ...string) (string, int, bool) {
	for _, n := range names {
		if i, ok := t.Column(n); ok {
			return n, i, true
		}
	}
	return "", -1, false
}

// Cell returns the value at (row, col). ok is false when the column index is
// out of range for the header; a short row yields "" with ok true.
func (t *Table) Cell(row, col int) (string, bool) {
	if t == nil || row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Headers) {
		return "", false
	}
	r := t.Rows[row]
	if col >= len(r) {
		return "", true
	}
	return r[col], true
}

// Value returns the cell in the named column.
func (t *Table) Value(row int, column string) (string, bool) {
	col, ok := t.Column(column)
	if !ok {
		return "", false
	}
	return t.Cell(row, col)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Headers: append([]string(nil), t.Headers...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]string(nil), r...)
	}
	return out
}

// RenameColumn renames the column from to to. It returns false if from is absent.
func (t *Table) RenameColumn(from, to string) bool {
	i, ok := t.Column(from)
	if !ok {
		return false
	}
	t.Headers[i] = to
	return true
}

// SetColumn replaces the values of column name, appending it when absent.
// values must have one entry per row.
func (t *Table) SetColumn(name string, values []string) {
	col, ok := t.Column(name)
	if !ok {
		t.Headers = append(t.Headers, name)
		col = len(t.Headers) - 1
	}
	for i := range t.Rows {
		for len(t.Rows[i]) <= col {
			t.Rows[i] = append(t.Rows[i], "")
		}
		if i < len(values) {
			t.Rows[i][col] = values[i]
		}
	}
}

// ColumnValues returns all cells of the column at index col.
func (t *Table) ColumnValues(col int) []string {
	out := make([]string, t.Len())
	for i := range out {
		out[i], _ = t.Cell(i, col)
	}
	return out
}

// Validate checks the structural minimum: at least one header, no blank or
// duplicate headers.
func (t *Table) Validate() error {
	if t == nil || len(t.Headers) == 0 {
		return shared.ErrEmptyTable
	}

	seen := make(map[string]struct{}, len(t.Headers))
	for _, h := range t.Headers {
		h = strings.TrimSpace(h)
		if h == "" {
			return shared.ErrInvalidHeader
		}
		if _, dup := seen[h]; dup {
			return shared.NewDomainError("roster", "Validate", shared.ErrInvalidFormat, "duplicate column header "+h)
		}
		seen[h] = struct{}{}
	}
	return nil
}
