package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"parisdash/internal/exporter"
	"parisdash/internal/files"
)

// Table is an in-memory CSV table whose cells stay strings
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable creates an empty table with the given header
func NewTable(header []string) *Table {
	t := &Table{Header: header}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Header))
	for i, col := range t.Header {
		if _, dup := t.index[col]; !dup {
			t.index[col] = i
		}
	}
}

// Index returns the position of col, -1 when absent
func (t *Table) Index(col string) int {
	if i, ok := t.index[col]; ok {
		return i
	}
	return -1
}

// Has reports whether every column is present
func (t *Table) Has(cols ...string) bool {
	for _, col := range cols {
		if t.Index(col) < 0 {
			return false
		}
	}
	return true
}

// Value returns the cell of row in col, "" when the column is absent
func (t *Table) Value(row []string, col string) string {
	i := t.Index(col)
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Append adds a row padded to the header width
func (t *Table) Append(row []string) {
	if len(row) < len(t.Header) {
		padded := make([]string, len(t.Header))
		copy(padded, row)
		row = padded
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Project returns a copy holding only cols, in that order. Absent columns
// are skipped.
func (t *Table) Project(cols []string) *Table {
	var keep []int
	var header []string
	for _, col := range cols {
		if i := t.Index(col); i >= 0 {
			keep = append(keep, i)
			header = append(header, col)
		}
	}
	out := NewTable(header)
	for _, row := range t.Rows {
		rec := make([]string, len(keep))
		for j, i := range keep {
			if i < len(row) {
				rec[j] = row[i]
			}
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// Rename renames columns in place
func (t *Table) Rename(names map[string]string) {
	for i, col := range t.Header {
		if to, ok := names[col]; ok {
			t.Header[i] = to
		}
	}
	t.reindex()
}

// ParseTable parses CSV text. comma 0 detects ';' or ',' from the header
// line. Header names are trimmed.
func ParseTable(r io.Reader, comma rune) (*Table, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content := strings.TrimPrefix(string(text), "\ufeff")
	if comma == 0 {
		comma = sniffComma(content)
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := NewTable(header)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		t.Append(record)
	}
	return t, nil
}

// ReadCSV reads a CSV file in the given encoding
func ReadCSV(path string, comma rune, enc files.Encoding) (*Table, error) {
	text, err := files.ReadText(path, enc)
	if err != nil {
		return nil, err
	}
	t, err := ParseTable(strings.NewReader(text), comma)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func sniffComma(content string) rune {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, ";") >= strings.Count(line, ",") {
		return ';'
	}
	return ','
}

var missingTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"NaN":  true,
	"None": true,
	"null": true,
	"NULL": true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"#N/A": true,
	"<NA>": true,
}

// IsMissing reports whether a cell holds no value
func IsMissing(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// ParseNumber parses a French or English formatted number: the decimal
// comma becomes a point and blanks, including the non-breaking spaces used
// as thousand separators, are removed.
func ParseNumber(s string) (float64, bool) {
	if IsMissing(s) {
		return 0, false
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		if r == ',' {
			return '.'
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseInt parses an integer cell, accepting "12.0"
func ParseInt(s string) (int64, bool) {
	f, ok := ParseNumber(s)
	if !ok || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// FormatNumber writes a parsed number back, "" for a failed parse
func FormatNumber(f float64, ok bool) string {
	if !ok {
		return ""
	}
	return exporter.FormatFloat(f)
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "2006-01-02 15:04:05", "02/01/2006 15:04"}

// ParseDate reads a date day-first, ISO dates accepted
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// ZeroPad left-pads a non-empty code with zeros, e.g. "1" -> "00001"
func ZeroPad(s string, width int) string {
	s = strings.TrimSpace(s)
	if s == "" || len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// TitleCase upper-cases the first letter of every word and lower-cases the
// others. Any non-letter starts a new word.
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// rowKey identifies a row for duplicate detection
func rowKey(row []string) string {
	return strings.Join(row, "\x1f")
}
