package roster

import (
	"regexp"
	"strings"

	"github.com/alem-hub/roster-insights/internal/domain/shared"
)

const (
	friendStem            = "ΦΙΛ"
	conflictsPluralColumn = "ΣΥΓΚΡΟΥΣΕΙΣ"
)

// NormalizeHeaders returns a copy of t with the relationship columns renamed
// to the schema's canonical headers, and the renames applied (old -> new).
//
// When the canonical friends column is missing, the first column whose
// upper-cased header contains "ΦΙΛ" takes its name. The plural conflicts
// header is renamed to the singular one when the latter is missing.
func NormalizeHeaders(t *Table, schema Schema) (*Table, map[string]string) {
	schema = schema.WithDefaults()
	out := t.Clone()
	renames := make(map[string]string)

	friends := schema.FriendColumns[0]
	if !out.HasColumn(friends) {
		for _, h := range out.Headers {
			if strings.Contains(strings.ToUpper(h), friendStem) {
				old := h
				out.RenameColumn(old, friends)
				renames[strings.TrimSpace(old)] = friends
				break
			}
		}
	}

	conflicts := schema.ConflictColumns[0]
	if !out.HasColumn(conflicts) && out.HasColumn(conflictsPluralColumn) {
		out.RenameColumn(conflictsPluralColumn, conflicts)
		renames[conflictsPluralColumn] = conflicts
	}

	return out, renames
}

// ScenarioColumns returns the headers matching the scenario pattern, in
// table order.
func ScenarioColumns(t *Table, pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, shared.WrapError("roster", "ScenarioColumns", shared.ErrInvalidFormat, "bad scenario pattern", err)
	}

	var cols []string
	for _, h := range t.Headers {
		if re.MatchString(strings.TrimSpace(h)) {
			cols = append(cols, strings.TrimSpace(h))
		}
	}
	return cols, nil
}

// ResolveScenarioColumn copies the single scenario column of t into the
// class column. It returns the scenario column used, or "" when the table
// has none and is returned unchanged. More than one scenario column is
// ErrAmbiguousScenario.
func ResolveScenarioColumn(t *Table, schema Schema) (*Table, string, error) {
	schema = schema.WithDefaults()

	cols, err := ScenarioColumns(t, schema.ScenarioPattern)
	if err != nil {
		return nil, "", err
	}

	switch len(cols) {
	case 0:
		return t, "", nil
	case 1:
	default:
		return nil, "", shared.WrapError("roster", "ResolveScenario", shared.ErrInvalidInput,
			"found columns "+strings.Join(cols, ", "), shared.ErrAmbiguousScenario)
	}

	out := t.Clone()
	col, _ := out.Column(cols[0])
	values := out.ColumnValues(col)
	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}
	out.SetColumn(schema.ClassColumn, values)
	return out, cols[0], nil
}
