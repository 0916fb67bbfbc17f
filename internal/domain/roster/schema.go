package roster

import "github.com/alem-hub/roster-insights/internal/domain/naming"

// Canonical column headers of the allocation pipeline output.
const (
	ColumnName      = "ΟΝΟΜΑ"
	ColumnClass     = "ΤΜΗΜΑ"
	ColumnFriends   = "ΦΙΛΟΙ"
	ColumnConflicts = "ΣΥΓΚΡΟΥΣΗ"

	ColumnGender       = "ΦΥΛΟ"
	ColumnStaffChild   = "ΠΑΙΔΙ_ΕΚΠΑΙΔΕΥΤΙΚΟΥ"
	ColumnLively       = "ΖΩΗΡΟΣ"
	ColumnSpecialNeeds = "ΙΔΙΑΙΤΕΡΟΤΗΤΑ"
	ColumnGreekFluency = "ΚΑΛΗ_ΓΝΩΣΗ_ΕΛΛΗΝΙΚΩΝ"
)

// Statistic keys, in report order.
const (
	StatBoys         = "ΑΓΟΡΙΑ"
	StatGirls        = "ΚΟΡΙΤΣΙΑ"
	StatStaffChild   = "ΠΑΙΔΙ_ΕΚΠΑΙΔΕΥΤΙΚΟΥ"
	StatLively       = "ΖΩΗΡΟΙ"
	StatSpecialNeeds = "ΙΔΙΑΙΤΕΡΟΤΗΤΑ"
	StatGreekFluency = "ΓΝΩΣΗ ΕΛΛΗΝΙΚΩΝ"
)

// Markers used by the pipeline for boolean-like columns.
const (
	MarkerYes  = "Ν"
	MarkerBoy  = "Α"
	MarkerGirl = "Κ"
)

// DefaultScenarioPattern matches the per-scenario class columns of step 6.
const DefaultScenarioPattern = `^ΒΗΜΑ6_ΣΕΝΑΡΙΟ_\d+$`

// AttributeSpec declares one countable demographic attribute: rows whose
// Column equals Marker (case-insensitive) count toward Key.
type AttributeSpec struct {
	Key    string `json:"key" yaml:"key"`
	Column string `json:"column" yaml:"column"`
	Marker string `json:"marker" yaml:"marker"`
}

// Schema names the columns the engine reads. It is an explicit input so
// nothing depends on ambient globals.
type Schema struct {
	NameColumn      string          `json:"name_column" yaml:"name_column"`
	ClassColumn     string          `json:"class_column" yaml:"class_column"`
	FriendColumns   []string        `json:"friend_columns" yaml:"friend_columns"`
	ConflictColumns []string        `json:"conflict_columns" yaml:"conflict_columns"`
	Attributes      []AttributeSpec `json:"attributes" yaml:"attributes"`
	Delimiters      string          `json:"delimiters" yaml:"delimiters"`
	ScenarioPattern string          `json:"scenario_pattern" yaml:"scenario_pattern"`
}

// DefaultSchema returns the schema of the step 7 output.
func DefaultSchema() Schema {
	return Schema{
		NameColumn:      ColumnName,
		ClassColumn:     ColumnClass,
		FriendColumns:   []string{ColumnFriends, "ΦΙΛΟΣ", "ΦΙΛΙΑ"},
		ConflictColumns: []string{ColumnConflicts},
		Attributes: []AttributeSpec{
			{Key: StatBoys, Column: ColumnGender, Marker: MarkerBoy},
			{Key: StatGirls, Column: ColumnGender, Marker: MarkerGirl},
			{Key: StatStaffChild, Column: ColumnStaffChild, Marker: MarkerYes},
			{Key: StatLively, Column: ColumnLively, Marker: MarkerYes},
			{Key: StatSpecialNeeds, Column: ColumnSpecialNeeds, Marker: MarkerYes},
			{Key: StatGreekFluency, Column: ColumnGreekFluency, Marker: MarkerYes},
		},
		Delimiters:      naming.DefaultDelimiters,
		ScenarioPattern: DefaultScenarioPattern,
	}
}

// AttributeKeys returns the attribute keys in declaration order.
func (s Schema) AttributeKeys() []string {
	keys := make([]string, len(s.Attributes))
	for i, a := range s.Attributes {
		keys[i] = a.Key
	}
	return keys
}

// ExpectedColumns lists the columns a complete roster carries. Used for
// missing-column diagnostics only.
func (s Schema) ExpectedColumns() []string {
	cols := []string{s.NameColumn}
	seen := map[string]bool{s.NameColumn: true}
	for _, a := range s.Attributes {
		if !seen[a.Column] {
			seen[a.Column] = true
			cols = append(cols, a.Column)
		}
	}
	if len(s.FriendColumns) > 0 {
		cols = append(cols, s.FriendColumns[0])
	}
	if len(s.ConflictColumns) > 0 {
		cols = append(cols, s.ConflictColumns[0])
	}
	return cols
}

// MissingColumns returns the expected columns absent from t.
func (s Schema) MissingColumns(t *Table) []string {
	var missing []string
	for _, c := range s.ExpectedColumns() {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// WithDefaults fills zero fields from DefaultSchema.
func (s Schema) WithDefaults() Schema {
	d := DefaultSchema()
	if s.NameColumn == "" {
		s.NameColumn = d.NameColumn
	}
	if s.ClassColumn == "" {
		s.ClassColumn = d.ClassColumn
	}
	if len(s.FriendColumns) == 0 {
		s.FriendColumns = d.FriendColumns
	}
	if len(s.ConflictColumns) == 0 {
		s.ConflictColumns = d.ConflictColumns
	}
	if s.Attributes == nil {
		s.Attributes = d.Attributes
	}
	if s.Delimiters == "" {
		s.Delimiters = d.Delimiters
	}
	if s.ScenarioPattern == "" {
		s.ScenarioPattern = d.ScenarioPattern
	}
	return s
}
