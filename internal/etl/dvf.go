package etl

import (
	"strings"
)

// DVF columns that are always empty for Paris
var dvfEmptyColumns = []string{
	"ancien_code_commune",
	"ancien_nom_commune",
	"ancien_id_parcelle",
	"code_nature_culture_speciale",
	"nature_culture_speciale",
}

// DVF columns normalised as numbers
var dvfNumericColumns = []string{
	"valeur_fonciere",
	"surface_reelle_bati",
	"surface_terrain",
	"lot1_surface_carrez",
	"lot2_surface_carrez",
	"lot3_surface_carrez",
	"lot4_surface_carrez",
	"lot5_surface_carrez",
	"longitude",
	"latitude",
}

// LotsHeader is the header of the long lot table
var LotsHeader = []string{"id_mutation", "lot_numero", "surface_carrez"}

// Paris bounding box
const (
	minLongitude = 2.25
	maxLongitude = 2.45
	minLatitude  = 48.80
	maxLatitude  = 48.95
)

// CleanDVF removes duplicates and unusable transactions from a yearly DVF
// extract and normalises its columns. The result keeps the input column
// order, minus the always-empty columns, plus adresse_complete.
func CleanDVF(raw *Table) *Table {
	drop := make(map[int]bool)
	for _, col := range dvfEmptyColumns {
		i := raw.Index(col)
		if i >= 0 && columnEmpty(raw, i) {
			drop[i] = true
		}
	}

	var header []string
	var keep []int
	for i, col := range raw.Header {
		if !drop[i] {
			header = append(header, col)
			keep = append(keep, i)
		}
	}
	withAddress := raw.Has("adresse_numero", "adresse_suffixe", "adresse_nom_voie")
	if withAddress {
		header = append(header, "adresse_complete")
	}
	out := NewTable(header)

	numeric := make(map[int]bool)
	for _, col := range dvfNumericColumns {
		if i := raw.Index(col); i >= 0 {
			numeric[i] = true
		}
	}
	valueIdx := raw.Index("valeur_fonciere")
	dateIdx := raw.Index("date_mutation")
	padIdx := map[int]bool{}
	for _, col := range []string{"code_postal", "code_commune"} {
		if i := raw.Index(col); i >= 0 {
			padIdx[i] = true
		}
	}
	lonIdx, latIdx := raw.Index("longitude"), raw.Index("latitude")
	withCoords := lonIdx >= 0 && latIdx >= 0

	seen := make(map[string]bool, len(raw.Rows))
	for _, row := range raw.Rows {
		key := rowKey(row)
		if seen[key] {
			continue
		}
		seen[key] = true

		cell := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return row[i]
		}

		if valueIdx >= 0 {
			v, ok := ParseNumber(cell(valueIdx))
			if !ok || v <= 0 {
				continue
			}
		}
		if withCoords {
			lon, okLon := ParseNumber(cell(lonIdx))
			lat, okLat := ParseNumber(cell(latIdx))
			if !okLon || !okLat || lon < minLongitude || lon > maxLongitude || lat < minLatitude || lat > maxLatitude {
				continue
			}
		}

		rec := make([]string, 0, len(header))
		for _, i := range keep {
			v := cell(i)
			switch {
			case numeric[i]:
				v = FormatNumber(ParseNumber(v))
			case i == dateIdx:
				if d, ok := ParseDate(v); ok {
					v = d.Format("2006-01-02")
				} else {
					v = ""
				}
			case padIdx[i]:
				v = ZeroPad(v, 5)
			}
			rec = append(rec, v)
		}
		if withAddress {
			rec = append(rec, fullAddress(
				raw.Value(row, "adresse_numero"),
				raw.Value(row, "adresse_suffixe"),
				raw.Value(row, "adresse_nom_voie"),
			))
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// BuildLots turns the lot1..lot5 columns into a long table of
// (id_mutation, lot_numero, surface_carrez), all lot1 entries first. Rows
// without a lot number or with a non-positive surface are dropped.
func BuildLots(raw *Table) *Table {
	out := NewTable(append([]string(nil), LotsHeader...))
	for n := 1; n <= 5; n++ {
		numCol := lotColumn(n, "numero")
		surfCol := lotColumn(n, "surface_carrez")
		if !raw.Has(numCol, surfCol) {
			continue
		}
		for _, row := range raw.Rows {
			numero := strings.TrimSpace(raw.Value(row, numCol))
			if IsMissing(numero) {
				continue
			}
			surface, ok := ParseNumber(raw.Value(row, surfCol))
			if !ok || surface <= 0 {
				continue
			}
			out.Rows = append(out.Rows, []string{
				raw.Value(row, "id_mutation"),
				numero,
				FormatNumber(surface, true),
			})
		}
	}
	return out
}

func lotColumn(n int, suffix string) string {
	return "lot" + string(rune('0'+n)) + "_" + suffix
}

func columnEmpty(t *Table, i int) bool {
	for _, row := range t.Rows {
		if i < len(row) && !IsMissing(row[i]) {
			return false
		}
	}
	return true
}

func fullAddress(parts ...string) string {
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if IsMissing(p) {
			continue
		}
		words = append(words, strings.Fields(p)...)
	}
	return TitleCase(strings.Join(words, " "))
}
