package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alem-hub/roster-insights/internal/domain/roster"
)

// LoadProfile reads the profile at path. An empty path yields the default schema.
func LoadProfile(path string) (roster.Schema, error) {
	if path == "" {
		return roster.DefaultSchema(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return roster.Schema{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(bytes.NewReader(data))
}

// ParseProfile decodes and validates a profile, the YAML override of the
// roster schema. Unknown keys are rejected. Omitted fields keep their
// defaults; an explicit empty attributes list disables attribute counts.
//
//	name_column: ΟΝΟΜΑ
//	class_column: ΤΜΗΜΑ
//	friend_columns: [ΦΙΛΟΙ, ΦΙΛΟΣ]
//	conflict_columns: [ΣΥΓΚΡΟΥΣΗ]
//	delimiters: ";,"
//	scenario_pattern: '^ΒΗΜΑ6_ΣΕΝΑΡΙΟ_\d+$'
//	attributes:
//	  - {key: ΑΓΟΡΙΑ, column: ΦΥΛΟ, marker: Α}
func ParseProfile(r io.Reader) (roster.Schema, error) {
	var s roster.Schema
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return roster.Schema{}, fmt.Errorf("parse profile: %w", err)
	}

	s = s.WithDefaults()
	if err := validateSchema(s); err != nil {
		return roster.Schema{}, err
	}
	return s, nil
}

func validateSchema(s roster.Schema) error {
	var errs []string

	if _, err := regexp.Compile(s.ScenarioPattern); err != nil {
		errs = append(errs, fmt.Sprintf("scenario_pattern: %v", err))
	}
	seen := make(map[string]bool, len(s.Attributes))
	for i, a := range s.Attributes {
		key := strings.TrimSpace(a.Key)
		switch {
		case key == "":
			errs = append(errs, fmt.Sprintf("attributes[%d]: key is required", i))
		case seen[key]:
			errs = append(errs, fmt.Sprintf("attributes[%d]: duplicate key %s", i, key))
		}
		seen[key] = true
		if strings.TrimSpace(a.Column) == "" {
			errs = append(errs, fmt.Sprintf("attributes[%d]: column is required", i))
		}
		if strings.TrimSpace(a.Marker) == "" {
			errs = append(errs, fmt.Sprintf("attributes[%d]: marker is required", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid profile:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
