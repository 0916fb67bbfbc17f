package report

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/alem-hub/roster-insights/internal/domain/roster"
)

const (
	unitSep   = "\x1f"
	recordSep = "\x1e"
)

// Fingerprint хеширует таблицу вместе со схемой. Одинаковые входные данные
// при одинаковой схеме дают одинаковый отпечаток, поэтому он служит
// ключом кеша отчётов.
func Fingerprint(t *roster.Table, schema roster.Schema) string {
	d := xxhash.New()

	writeSchema(d, schema.WithDefaults())
	_, _ = d.WriteString(recordSep)

	for _, h := range t.Headers {
		_, _ = d.WriteString(h)
		_, _ = d.WriteString(unitSep)
	}
	for _, row := range t.Rows {
		_, _ = d.WriteString(recordSep)
		for _, cell := range row {
			_, _ = d.WriteString(cell)
			_, _ = d.WriteString(unitSep)
		}
	}

	return strconv.FormatUint(d.Sum64(), 16)
}

func writeSchema(d *xxhash.Digest, s roster.Schema) {
	fields := []string{s.NameColumn, s.ClassColumn, s.Delimiters, s.ScenarioPattern}
	fields = append(fields, s.FriendColumns...)
	fields = append(fields, recordSep)
	fields = append(fields, s.ConflictColumns...)
	for _, a := range s.Attributes {
		fields = append(fields, recordSep, a.Key, a.Column, a.Marker)
	}
	for _, f := range fields {
		_, _ = d.WriteString(f)
		_, _ = d.WriteString(unitSep)
	}
}
