package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/alem-hub/roster-insights/internal/domain/roster"
	"github.com/alem-hub/roster-insights/internal/domain/shared"
)

// DecodeJSON reads {"headers": [...], "rows": [[...], ...]}.
func DecodeJSON(r io.Reader) (*roster.Table, error) {
	var t roster.Table
	dec := json.NewDecoder(r)
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, shared.ErrEmptyTable
		}
		return nil, shared.WrapError("ingest", "DecodeJSON", shared.ErrInvalidFormat, "malformed json", err)
	}
	for i, h := range t.Headers {
		t.Headers[i] = strings.TrimSpace(h)
	}
	return &t, nil
}

// Format is an upload encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FormatFromContentType maps a Content-Type header to a format. Unknown or
// missing types are JSON.
func FormatFromContentType(contentType string) Format {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return FormatJSON
	}
	switch mt {
	case "text/csv", "application/csv", "text/plain":
		return FormatCSV
	default:
		return FormatJSON
	}
}

// FormatFromPath maps a file extension to a format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", shared.NewDomainError("ingest", "FormatFromPath", shared.ErrInvalidInput, "unsupported file type "+filepath.Ext(path))
	}
}

// Decode reads a table in the given format.
func Decode(format Format, r io.Reader) (*roster.Table, error) {
	if format == FormatCSV {
		return DecodeCSV(r)
	}
	return DecodeJSON(r)
}
