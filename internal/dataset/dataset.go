package dataset

import (
	"sort"
	"time"
)

// Dataset is the in-memory gold table: one row per arrondissement.
type Dataset struct {
	Columns  []string
	Source   string
	LoadedAt time.Time
	ModTime  time.Time

	rows  []*Row
	index map[int]*Row
	cols  map[string]struct{}
}

// New builds a dataset from rows. Rows are sorted by arrondissement; a
// duplicated arrondissement keeps its first row.
func New(columns []string, rows []*Row) *Dataset {
	ds := &Dataset{
		Columns:  columns,
		LoadedAt: time.Now().UTC(),
		index:    make(map[int]*Row, len(rows)),
		cols:     make(map[string]struct{}, len(columns)),
	}
	for _, c := range columns {
		ds.cols[c] = struct{}{}
	}
	for _, r := range rows {
		if _, dup := ds.index[r.Arrondissement]; dup {
			continue
		}
		ds.index[r.Arrondissement] = r
		ds.rows = append(ds.rows, r)
	}
	sort.Slice(ds.rows, func(i, j int) bool {
		return ds.rows[i].Arrondissement < ds.rows[j].Arrondissement
	})
	return ds
}

// Get returns the row of arrondissement n.
func (ds *Dataset) Get(n int) (*Row, bool) {
	r, ok := ds.index[n]
	return r, ok
}

// All returns the rows sorted by arrondissement.
func (ds *Dataset) All() []*Row {
	return ds.rows
}

// Len returns the number of arrondissements.
func (ds *Dataset) Len() int {
	return len(ds.rows)
}

// HasColumn reports whether the table has the column.
func (ds *Dataset) HasColumn(col string) bool {
	_, ok := ds.cols[col]
	return ok
}

// Point is one arrondissement value of a numeric column.
type Point struct {
	Arrondissement int      `json:"arrondissement"`
	Value          *float64 `json:"valeur"`
}

// Column returns the column values of every arrondissement, nulls included.
func (ds *Dataset) Column(col string) []Point {
	points := make([]Point, 0, len(ds.rows))
	for _, r := range ds.rows {
		points = append(points, Point{Arrondissement: r.Arrondissement, Value: r.Float(col)})
	}
	return points
}

// Values returns the non-null values of a numeric column.
func (ds *Dataset) Values(col string) []float64 {
	values := make([]float64, 0, len(ds.rows))
	for _, r := range ds.rows {
		if v := r.Float(col); v != nil {
			values = append(values, *v)
		}
	}
	return values
}

// Filter returns the rows accepted by keep.
func (ds *Dataset) Filter(keep func(*Row) bool) []*Row {
	var out []*Row
	for _, r := range ds.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
