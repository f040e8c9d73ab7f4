package etl

import (
	"fmt"
	"strconv"

	"parisdash/internal/analytics"
)

// Columns appended to the cleaned air quality table
var airDerivedColumns = []string{
	"arrondissement_nom",
	"categorie_no2",
	"categorie_pm10",
	"categorie_o3",
	"qualite_air",
}

// Station codes published without their department prefix
var shortINSEECodes = map[int64]int64{
	75: 75101,
	77: 75102,
	78: 75103,
}

// CleanAirQuality keeps complete, deduplicated daily measurements of the 20
// arrondissements and rates every pollutant and the overall quality.
func CleanAirQuality(raw *Table) (*Table, error) {
	required := []string{"date", analytics.NO2, analytics.PM10, analytics.O3, "ninsee"}
	if !raw.Has(required...) {
		return nil, fmt.Errorf("air quality file needs columns %v", required)
	}

	out := NewTable(append(append([]string(nil), raw.Header...), airDerivedColumns...))
	dateIdx := raw.Index("date")
	inseeIdx := raw.Index("ninsee")

	seen := make(map[string]bool, len(raw.Rows))
	for _, row := range raw.Rows {
		key := rowKey(row)
		if seen[key] || hasMissing(row, len(raw.Header)) {
			continue
		}
		seen[key] = true

		no2, ok1 := ParseNumber(raw.Value(row, analytics.NO2))
		pm10, ok2 := ParseNumber(raw.Value(row, analytics.PM10))
		o3, ok3 := ParseNumber(raw.Value(row, analytics.O3))
		insee, ok4 := ParseInt(raw.Value(row, "ninsee"))
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}
		if full, ok := shortINSEECodes[insee]; ok {
			insee = full
		}
		if insee < 75101 || insee > 75120 {
			continue
		}

		rec := append([]string(nil), row[:len(raw.Header)]...)
		if d, ok := ParseDate(rec[dateIdx]); ok {
			rec[dateIdx] = d.Format("2006-01-02")
		} else {
			rec[dateIdx] = ""
		}
		rec[inseeIdx] = strconv.FormatInt(insee, 10)

		rec = append(rec,
			ArrondissementLabel(int(insee-75100)),
			analytics.MeasurementCategory(analytics.NO2, no2),
			analytics.MeasurementCategory(analytics.PM10, pm10),
			analytics.MeasurementCategory(analytics.O3, o3),
			analytics.OverallAirQuality(no2, pm10, o3),
		)
		out.Rows = append(out.Rows, rec)
	}
	return out, nil
}

// ArrondissementLabel names a district the way the air file does: "Paris 1er",
// "Paris 2e", ...
func ArrondissementLabel(n int) string {
	if n == 1 {
		return "Paris 1er"
	}
	return fmt.Sprintf("Paris %de", n)
}

func hasMissing(row []string, width int) bool {
	if len(row) < width {
		return true
	}
	for _, v := range row[:width] {
		if IsMissing(v) {
			return true
		}
	}
	return false
}
