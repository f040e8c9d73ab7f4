package etl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"parisdash/internal/analytics"
)

// DemographicsHeader is the header of the silver demographics table
var DemographicsHeader = []string{
	"code_insee",
	"population_totale",
	"superficie_km2",
	"revenu_median",
	"densite_pop_km2",
}

// Revenue workbook layout
const (
	RevenueSheet     = "IRIS_DEC"
	RevenueHeaderRow = 6
)

// Header variants of the arrondissement reference file
var (
	surfaceCodeColumns = []string{"Code_INSEE", "Numéro d’arrondissement INSEE", "Numéro d'arrondissement INSEE"}
	surfaceAreaColumns = []string{"Surface"}
)

// ReadSheet loads one worksheet as a table. An empty sheet name reads the
// first sheet; headerRow is 1-based and the rows above it are ignored.
func ReadSheet(path, sheet string, headerRow int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheet", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheet, path, err)
	}
	if headerRow < 1 {
		headerRow = 1
	}
	if len(rows) < headerRow {
		return nil, fmt.Errorf("sheet %s of %s has no header on row %d", sheet, path, headerRow)
	}

	header := rows[headerRow-1]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	t := NewTable(header)
	for _, row := range rows[headerRow:] {
		if len(row) == 0 {
			continue
		}
		t.Append(row)
	}
	return t, nil
}

// BuildDemographics joins the population of every Paris commune code with
// its surface and the median of its IRIS revenues, then derives the density.
// Population rows drive the result; surface or revenue may be nil.
func BuildDemographics(population, surface, revenue *Table) (*Table, error) {
	if !population.Has("code_commune", "population_totale") {
		return nil, fmt.Errorf("population sheet needs columns code_commune and population_totale")
	}

	areas := surfaceByCode(surface)
	revenues := medianRevenueByCode(revenue)

	out := NewTable(append([]string(nil), DemographicsHeader...))
	for _, row := range population.Rows {
		code, ok := ParseInt(population.Value(row, "code_commune"))
		if !ok {
			continue
		}
		insee := fmt.Sprintf("75%03d", code)

		pop, popOK := ParseNumber(population.Value(row, "population_totale"))
		area, areaOK := areas[insee]
		rev, revOK := revenues[insee]

		rec := []string{insee, FormatNumber(pop, popOK), FormatNumber(area, areaOK), FormatNumber(rev, revOK), ""}
		if popOK && areaOK && area > 0 {
			rec[4] = FormatNumber(analytics.Round(pop/area, 1), true)
		}
		out.Rows = append(out.Rows, rec)
	}

	sort.SliceStable(out.Rows, func(i, j int) bool { return out.Rows[i][0] < out.Rows[j][0] })
	return out, nil
}

// surfaceByCode converts the m² surfaces of the reference file to km²
func surfaceByCode(t *Table) map[string]float64 {
	out := map[string]float64{}
	if t == nil {
		return out
	}
	codeCol := firstPresent(t, surfaceCodeColumns)
	areaCol := firstPresent(t, surfaceAreaColumns)
	if codeCol == "" || areaCol == "" {
		return out
	}
	for _, row := range t.Rows {
		code := ZeroPad(t.Value(row, codeCol), 5)
		if m2, ok := ParseNumber(t.Value(row, areaCol)); ok && code != "" {
			out[code] = m2 / 1_000_000
		}
	}
	return out
}

// medianRevenueByCode takes the median DEC_MED18 of the IRIS of each commune
func medianRevenueByCode(t *Table) map[string]float64 {
	out := map[string]float64{}
	if t == nil || !t.Has("COM", "DEC_MED18") {
		return out
	}
	values := map[string][]float64{}
	for _, row := range t.Rows {
		code := strings.TrimSpace(t.Value(row, "COM"))
		if n, ok := ParseInt(code); ok {
			code = strconv.FormatInt(n, 10)
		}
		code = ZeroPad(code, 5)
		if v, ok := ParseNumber(t.Value(row, "DEC_MED18")); ok && code != "" {
			values[code] = append(values[code], v)
		}
	}
	for code, vs := range values {
		out[code] = analytics.Median(vs)
	}
	return out
}

func firstPresent(t *Table, candidates []string) string {
	for _, col := range candidates {
		if t.Has(col) {
			return col
		}
	}
	return ""
}
