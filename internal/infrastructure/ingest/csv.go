// Package ingest decodes uploaded rosters (CSV or JSON) into tables.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/alem-hub/roster-insights/internal/domain/roster"
	"github.com/alem-hub/roster-insights/internal/domain/shared"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidate separators, in preference order on ties
var separators = []rune{',', ';', '\t'}

// DecodeCSV reads a CSV roster. The first record is the header. A UTF-8 BOM
// is skipped, the separator (comma, semicolon or tab) is detected from the
// header line, and blank records are dropped.
func DecodeCSV(r io.Reader) (*roster.Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	firstLine, _ := br.Peek(peekSize(br))
	cr := csv.NewReader(br)
	cr.Comma = detectSeparator(firstLine)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, shared.ErrEmptyTable
	}
	if err != nil {
		return nil, shared.WrapError("ingest", "DecodeCSV", shared.ErrInvalidFormat, "malformed header", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, shared.WrapError("ingest", "DecodeCSV", shared.ErrInvalidFormat, "malformed csv", err)
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, rec)
	}

	return roster.NewTable(headers, rows), nil
}

func peekSize(br *bufio.Reader) int {
	if n := br.Buffered(); n > 0 {
		return n
	}
	// fill the buffer
	_, _ = br.Peek(1)
	return br.Buffered()
}

func detectSeparator(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	best, bestCount := separators[0], 0
	for _, sep := range separators {
		if n := bytes.Count(sample, []byte(string(sep))); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// EncodeCSV writes t as CSV with a UTF-8 BOM so spreadsheet tools pick up
// the Greek headers.
func EncodeCSV(w io.Writer, t *roster.Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
