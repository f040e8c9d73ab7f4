package etl

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strconv"

	"parisdash/internal/analytics"
	"parisdash/internal/exporter"
)

// AirAnnualHeader lists the columns of the yearly air quality gold table
var AirAnnualHeader = []string{
	"annee", "arrondissement_nom", "ninsee",
	"no2_mean", "no2_median", "no2_min", "no2_max",
	"pm10_mean", "pm10_median", "pm10_min", "pm10_max",
	"o3_mean", "o3_median", "o3_min", "o3_max",
	"qualite_air_majoritaire",
	"indice_global_pollution",
	"categorie_indice_global",
	"rang_pollution_annee",
}

// AirMonthlyHeader lists the columns of the monthly air quality gold table
var AirMonthlyHeader = []string{
	"annee", "mois", "arrondissement_nom", "ninsee",
	"no2_mean", "pm10_mean", "o3_mean",
	"qualite_air_majoritaire",
	"indice_global_pollution",
	"categorie_indice_global",
}

type airKey struct {
	year, month int
	insee       int64
}

type airGroup struct {
	key     airKey
	name    string
	values  map[string][]float64
	quality []string
	idx     *float64
}

// BuildAirGold aggregates the cleaned daily measurements per arrondissement
// and year, then per arrondissement and month. Rows without a readable date
// or INSEE code are left out.
func BuildAirGold(air *Table) (annual, monthly *Table, err error) {
	required := []string{"date", "ninsee", analytics.NO2, analytics.PM10, analytics.O3}
	if !air.Has(required...) {
		return nil, nil, fmt.Errorf("air quality silver file needs columns %v", required)
	}

	annual = NewTable(append([]string(nil), AirAnnualHeader...))
	groups := groupAir(air, false)
	ranks := pollutionRanks(groups)
	for _, g := range groups {
		rec := []string{strconv.Itoa(g.key.year), g.name, strconv.FormatInt(g.key.insee, 10)}
		for _, p := range analytics.Pollutants {
			rec = append(rec, airStats(g.values[p])...)
		}
		index := g.idx
		rank := ""
		if index != nil {
			rank = strconv.Itoa(ranks[g.key.year][*index])
		}
		rec = append(rec,
			mostFrequent(g.quality),
			exporter.FormatOptionalFloat(analytics.RoundPtr(index, 2)),
			analytics.PollutionIndexCategory(index),
			rank,
		)
		annual.Rows = append(annual.Rows, rec)
	}

	monthly = NewTable(append([]string(nil), AirMonthlyHeader...))
	for _, g := range groupAir(air, true) {
		rec := []string{strconv.Itoa(g.key.year), strconv.Itoa(g.key.month), g.name, strconv.FormatInt(g.key.insee, 10)}
		for _, p := range analytics.Pollutants {
			rec = append(rec, exporter.FormatOptionalFloat(analytics.RoundPtr(g.mean(p), 2)))
		}
		index := g.idx
		rec = append(rec,
			mostFrequent(g.quality),
			exporter.FormatOptionalFloat(analytics.RoundPtr(index, 2)),
			analytics.PollutionIndexCategory(index),
		)
		monthly.Rows = append(monthly.Rows, rec)
	}
	return annual, monthly, nil
}

// groupAir buckets the measurements by year (and month when byMonth),
// ordered by period then INSEE code
func groupAir(air *Table, byMonth bool) []*airGroup {
	groups := map[airKey]*airGroup{}
	for _, row := range air.Rows {
		d, ok := ParseDate(air.Value(row, "date"))
		if !ok {
			continue
		}
		insee, ok := ParseInt(air.Value(row, "ninsee"))
		if !ok {
			continue
		}
		key := airKey{year: d.Year(), insee: insee}
		if byMonth {
			key.month = int(d.Month())
		}

		g := groups[key]
		if g == nil {
			name := air.Value(row, "arrondissement_nom")
			if IsMissing(name) {
				name = ArrondissementLabel(int(insee - 75100))
			}
			g = &airGroup{key: key, name: name, values: map[string][]float64{}}
			groups[key] = g
		}
		for _, p := range analytics.Pollutants {
			if v, ok := ParseNumber(air.Value(row, p)); ok {
				g.values[p] = append(g.values[p], v)
			}
		}
		if q := air.Value(row, "qualite_air"); !IsMissing(q) {
			g.quality = append(g.quality, q)
		}
	}

	out := make([]*airGroup, 0, len(groups))
	for _, g := range groups {
		g.idx = g.index()
		out = append(out, g)
	}
	slices.SortFunc(out, func(a, b *airGroup) int {
		return cmp.Or(
			cmp.Compare(a.key.year, b.key.year),
			cmp.Compare(a.key.month, b.key.month),
			cmp.Compare(a.key.insee, b.key.insee),
		)
	})
	return out
}

func (g *airGroup) mean(pollutant string) *float64 {
	values := g.values[pollutant]
	if len(values) == 0 {
		return nil
	}
	return f64(analytics.Mean(values))
}

// index is nil unless the three pollutants have a mean
func (g *airGroup) index() *float64 {
	no2, pm10, o3 := g.mean(analytics.NO2), g.mean(analytics.PM10), g.mean(analytics.O3)
	if no2 == nil || pm10 == nil || o3 == nil {
		return nil
	}
	return f64(analytics.PollutionIndex(*no2, *pm10, *o3))
}

// airStats returns mean, median, min and max rounded to two decimals
func airStats(values []float64) []string {
	if len(values) == 0 {
		return []string{"", "", "", ""}
	}
	return []string{
		exporter.FormatFloat(analytics.Round(analytics.Mean(values), 2)),
		exporter.FormatFloat(analytics.Round(analytics.Median(values), 2)),
		exporter.FormatFloat(analytics.Round(slices.Min(values), 2)),
		exporter.FormatFloat(analytics.Round(slices.Max(values), 2)),
	}
}

// pollutionRanks dense-ranks the yearly indexes, 1 being the most polluted
func pollutionRanks(groups []*airGroup) map[int]map[float64]int {
	perYear := map[int][]float64{}
	for _, g := range groups {
		if index := g.idx; index != nil {
			perYear[g.key.year] = append(perYear[g.key.year], *index)
		}
	}

	ranks := make(map[int]map[float64]int, len(perYear))
	for year, values := range perYear {
		sort.Sort(sort.Reverse(sort.Float64Slice(values)))
		ranks[year] = map[float64]int{}
		rank := 0
		for i, v := range values {
			if i == 0 || v != values[i-1] {
				rank++
			}
			ranks[year][v] = rank
		}
	}
	return ranks
}

// mostFrequent returns the modal value, the smallest one on ties
func mostFrequent(values []string) string {
	counts := map[string]int{}
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}
