// Package source opens queued input files and reads them as header plus
// raw rows. Cells carry no meaning until a column mapping is applied.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fjacquet/stmt-ingest/internal/parsererror"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoHeader is returned for inputs without a header line.
var ErrNoHeader = errors.New("input has no header row")

// RawRow is the ordered cells of one input line.
type RawRow []string

// Table is a decoded input file.
type Table struct {
	Path    string
	Headers []string
	Rows    []RawRow
	// MismatchedRows counts lines skipped because their cell count differs
	// from the header's.
	MismatchedRows int
}

// Sample returns the first data row, or nil for a header-only table.
func (t *Table) Sample() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// ReadDelimited reads r as delimited text. A leading UTF-8 BOM is
// removed, header cells are trimmed, quotes are parsed leniently and blank
// lines are ignored.
func ReadDelimited(r io.Reader, comma rune) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := gocsv.LazyCSVReader(decoded)
	if cr, ok := reader.(*csv.Reader); ok {
		cr.Comma = comma
		cr.FieldsPerRecord = -1
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, &parsererror.ParseError{Parser: "csv", Field: "header", Err: err}
	}

	table := &Table{Headers: make([]string, len(header))}
	for i, h := range header {
		table.Headers[i] = strings.TrimSpace(h)
	}
	if allBlank(table.Headers) {
		return nil, ErrNoHeader
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &parsererror.ParseError{Parser: "csv", Field: "line", Value: fmt.Sprint(line), Err: err}
		}
		if len(record) != len(table.Headers) {
			table.MismatchedRows++
			continue
		}
		table.Rows = append(table.Rows, RawRow(record))
	}
	return table, nil
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
