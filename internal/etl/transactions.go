package etl

import (
	"math"
	"slices"
	"strconv"

	"parisdash/internal/analytics"
	"parisdash/internal/exporter"
)

// ScaledColumns are the numeric DVF columns given a min-max and a z-score
// companion in the scaled transactions table
var ScaledColumns = []string{
	"valeur_fonciere",
	"surface_reelle_bati",
	"surface_terrain",
	"nombre_pieces_principales",
}

const yearColumn = "annee"

// MergeTransactions stacks the cleaned yearly extracts, oldest first, under
// the union of their headers. A leading annee column keeps the source year.
func MergeTransactions(sales map[int]*Table) *Table {
	years := make([]int, 0, len(sales))
	for year := range sales {
		years = append(years, year)
	}
	slices.Sort(years)

	header := []string{yearColumn}
	seen := map[string]bool{yearColumn: true}
	for _, year := range years {
		for _, col := range sales[year].Header {
			if !seen[col] {
				seen[col] = true
				header = append(header, col)
			}
		}
	}

	out := NewTable(header)
	for _, year := range years {
		t := sales[year]
		label := strconv.Itoa(year)
		for _, row := range t.Rows {
			rec := make([]string, len(header))
			rec[0] = label
			for i, col := range header[1:] {
				rec[i+1] = t.Value(row, col)
			}
			out.Rows = append(out.Rows, rec)
		}
	}
	return out
}

// ScaleTransactions returns a copy of t with <col>_minmax and <col>_zscore
// appended for every scaled column present. The z-score uses the sample
// deviation. A column without spread scales to 0 on every row; otherwise
// unreadable cells stay empty.
func ScaleTransactions(t *Table) *Table {
	header := append([]string(nil), t.Header...)
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = append(make([]string, 0, len(header)+2*len(ScaledColumns)), row...)
		for len(rows[i]) < len(header) {
			rows[i] = append(rows[i], "")
		}
	}

	for _, col := range ScaledColumns {
		if !t.Has(col) {
			continue
		}
		minmax, zscore := scaleColumn(t, col)
		header = append(header, col+"_minmax", col+"_zscore")
		for i := range rows {
			rows[i] = append(rows[i], minmax[i], zscore[i])
		}
	}

	out := NewTable(header)
	out.Rows = rows
	return out
}

func scaleColumn(t *Table, col string) (minmax, zscore []string) {
	values := make([]float64, len(t.Rows))
	defined := make([]float64, 0, len(t.Rows))
	for i, row := range t.Rows {
		v, ok := ParseNumber(t.Value(row, col))
		if !ok {
			values[i] = math.NaN()
			continue
		}
		values[i] = v
		defined = append(defined, v)
	}

	minmax = make([]string, len(values))
	zscore = make([]string, len(values))

	flat := len(defined) == 0 || slices.Min(defined) == slices.Max(defined)
	normalized := analytics.Normalize(values)
	for i := range values {
		if flat {
			minmax[i] = "0"
			continue
		}
		minmax[i] = scaledCell(normalized[i])
	}

	mean, std := analytics.Mean(defined), analytics.StdDev(defined)
	for i, v := range values {
		if std == 0 {
			zscore[i] = "0"
			continue
		}
		zscore[i] = scaledCell((v - mean) / std)
	}
	return minmax, zscore
}

func scaledCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	r := analytics.Round(v, 6)
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return exporter.FormatFloat(r)
}
