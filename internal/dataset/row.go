package dataset

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// nullTokens are the cell values treated as missing.
var nullTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
	"<na>": {},
	"n/a":  {},
}

// IsNull reports whether a raw cell value stands for a missing value.
func IsNull(raw string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// Row is one arrondissement of the gold table. Cells keep their raw text and
// are typed on access.
type Row struct {
	Arrondissement int

	columns []string
	cells   map[string]string
}

// NewRow builds a row from parallel column/value slices.
func NewRow(arrondissement int, columns, values []string) *Row {
	cells := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(values) {
			cells[col] = strings.TrimSpace(values[i])
		}
	}
	return &Row{Arrondissement: arrondissement, columns: columns, cells: cells}
}

// Has reports whether the column exists and holds a non-null value.
func (r *Row) Has(col string) bool {
	raw, ok := r.cells[col]
	return ok && !IsNull(raw)
}

// Float returns the cell as a float, nil when missing or not numeric.
func (r *Row) Float(col string) *float64 {
	raw, ok := r.cells[col]
	if !ok || IsNull(raw) {
		return nil
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Int returns the cell as an integer. Values written as floats ("12.0") are
// truncated; nil when missing or not numeric.
func (r *Row) Int(col string) *int64 {
	raw, ok := r.cells[col]
	if !ok || IsNull(raw) {
		return nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &v
	}
	f := r.Float(col)
	if f == nil {
		return nil
	}
	v := int64(*f)
	return &v
}

// String returns the cell text, nil when missing.
func (r *Row) String(col string) *string {
	raw, ok := r.cells[col]
	if !ok || IsNull(raw) {
		return nil
	}
	return &raw
}

// FloatOr returns the cell as a float or def when missing.
func (r *Row) FloatOr(col string, def float64) float64 {
	if v := r.Float(col); v != nil {
		return *v
	}
	return def
}

// IntOr returns the cell as an integer or def when missing.
func (r *Row) IntOr(col string, def int64) int64 {
	if v := r.Int(col); v != nil {
		return *v
	}
	return def
}

// Value returns the JSON-ready cell: int64 for integral text, float64 for
// other numbers, string otherwise and nil when missing.
func (r *Row) Value(col string) any {
	raw, ok := r.cells[col]
	if !ok || IsNull(raw) {
		return nil
	}
	return typedValue(raw)
}

func typedValue(raw string) any {
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	}
	return raw
}

// Map returns every column of the row in table order.
func (r *Row) Map() *OrderedMap {
	m := NewOrderedMap(len(r.columns))
	for _, col := range r.columns {
		if col == ColArrondissement {
			m.Set(col, r.Arrondissement)
			continue
		}
		m.Set(col, r.Value(col))
	}
	return m
}

// Lines splits a comma separated line list ("1, 4, 7") into trimmed names.
func (r *Row) Lines(col string) []string {
	raw := r.String(col)
	if raw == nil {
		return []string{}
	}
	parts := strings.Split(*raw, ",")
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// OrderedMap is a JSON object that keeps insertion order.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap creates an empty map with capacity hint n.
func NewOrderedMap(n int) *OrderedMap {
	return &OrderedMap{keys: make([]string, 0, n), values: make(map[string]any, n)}
}

// Set adds or replaces a key. Replacing keeps the original position.
func (m *OrderedMap) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// MarshalJSON writes the keys in insertion order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
