package etl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"parisdash/internal/analytics"
	"parisdash/internal/files"
)

// ColumnReport counts the missing cells of one column
type ColumnReport struct {
	Name       string  `json:"name"`
	Missing    int     `json:"missing"`
	MissingPct float64 `json:"missing_pct"`
}

// Diagnosis summarises the quality of a CSV file
type Diagnosis struct {
	File       string         `json:"file"`
	SizeBytes  int64          `json:"size_bytes"`
	Rows       int            `json:"rows"`
	Columns    int            `json:"columns"`
	Duplicates int            `json:"duplicates"`
	Missing    []ColumnReport `json:"missing"`
}

// Incomplete returns the columns with at least one missing cell, most
// incomplete first
func (d *Diagnosis) Incomplete() []ColumnReport {
	var out []ColumnReport
	for _, c := range d.Missing {
		if c.Missing > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Missing > out[j].Missing })
	return out
}

// Diagnose computes missing values and duplicate rows of a table
func Diagnose(t *Table) *Diagnosis {
	d := &Diagnosis{
		Rows:    t.Len(),
		Columns: len(t.Header),
		Missing: make([]ColumnReport, len(t.Header)),
	}
	for i, col := range t.Header {
		d.Missing[i].Name = col
	}

	seen := make(map[string]struct{}, t.Len())
	for _, row := range t.Rows {
		key := rowKey(row)
		if _, dup := seen[key]; dup {
			d.Duplicates++
		} else {
			seen[key] = struct{}{}
		}
		for i := range t.Header {
			if i >= len(row) || IsMissing(row[i]) {
				d.Missing[i].Missing++
			}
		}
	}
	if d.Rows > 0 {
		for i := range d.Missing {
			d.Missing[i].MissingPct = analytics.Round(float64(d.Missing[i].Missing)/float64(d.Rows)*100, 2)
		}
	}
	return d
}

// DiagnoseFile reads path with the given delimiter (0 sniffs it) and
// diagnoses it
func DiagnoseFile(path string, comma rune) (*Diagnosis, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	t, err := ReadCSV(path, comma, files.AutoDetect)
	if err != nil {
		return nil, err
	}
	d := Diagnose(t)
	d.File = filepath.Base(path)
	d.SizeBytes = st.Size()
	return d, nil
}
