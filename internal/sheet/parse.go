// Package sheet fetches the published case spreadsheet and parses its CSV
// export into an ordered table of loosely-typed rows.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rcleozier/creator-log/internal/apperr"
)

// Row maps a trimmed column header to its trimmed cell value.
type Row map[string]string

// Table is a parsed sheet. Columns keeps header order, which Row alone
// cannot.
type Table struct {
	Columns []string
	Rows    []Row
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Validate rejects payloads that cannot be a CSV export: empty bodies and
// HTML error or login pages. A leading byte-order mark is ignored.
func Validate(body []byte) error {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(body), utf8BOM))
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty", apperr.ErrMalformedPayload)
	}
	if trimmed[0] == '<' {
		return fmt.Errorf("%w: html", apperr.ErrMalformedPayload)
	}
	return nil
}

// Parse validates body and parses it with the first record as header.
// Ragged rows are tolerated: missing cells read as empty and extra cells
// are dropped. Records whose cells are all empty are skipped.
func Parse(body []byte) (*Table, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	if err := Validate(body); err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", apperr.ErrMalformedPayload, err)
	}
	columns := uniqueHeaders(header)

	t := &Table{Columns: columns}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedPayload, err)
		}
		if blank(record) {
			continue
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Records returns the rows in order as plain maps, for JSON output.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row
	}
	return out
}

// uniqueHeaders trims headers and suffixes repeats with _1, _2, ... so no
// column is silently overwritten.
func uniqueHeaders(header []string) []string {
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		name := h
		for taken[name] {
			seen[h]++
			name = h + "_" + strconv.Itoa(seen[h])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
