package etl

import (
	"fmt"
	"sort"
	"strconv"
)

// Source names of the commune columns
const (
	statsNameCol = "Nom Officiel Commune / Arrondissement Municipal Majuscule"
	statsCodeCol = "Code Officiel Commune"
)

// Columns kept from the 2014-2020 commune aggregate
var communeStatsColumns = []string{
	"anneemut",
	statsNameCol,
	statsCodeCol,
	"codgeo_2020",
	"nbmut",
	"nbmut_vente",
	"nbmut_appart",
	"nbmut_maison",
	"vf_ventem",
	"vf_ventea",
	"vfmed_ventem",
	"vfmed_ventea",
	"vfm2_ventea",
	"POP_2018",
	"Nbre-menages_2018",
	"Logement_2018",
}

var communeStatsRename = map[string]string{
	statsNameCol: "nom_commune",
	statsCodeCol: "code_commune",
}

var communeStatsNumeric = []string{
	"vf_ventem",
	"vf_ventea",
	"vfmed_ventem",
	"vfmed_ventea",
	"vfm2_ventea",
	"POP_2018",
	"Nbre-menages_2018",
	"Logement_2018",
}

// CleanCommuneStats keeps the useful columns of the commune aggregate,
// normalises names, codes and numbers and sorts by (anneemut, code_commune).
// Rows without a year are dropped.
func CleanCommuneStats(raw *Table) (*Table, error) {
	if !raw.Has("anneemut") {
		return nil, fmt.Errorf("commune statistics need column %q", "anneemut")
	}

	out := raw.Project(communeStatsColumns)
	out.Rename(communeStatsRename)

	yearIdx := out.Index("anneemut")
	codeIdx := out.Index("code_commune")
	var numIdx []int
	for _, col := range communeStatsNumeric {
		if i := out.Index(col); i >= 0 {
			numIdx = append(numIdx, i)
		}
	}

	rows := out.Rows[:0]
	for _, row := range out.Rows {
		year, ok := ParseInt(row[yearIdx])
		if !ok {
			continue
		}
		row[yearIdx] = strconv.FormatInt(year, 10)
		if codeIdx >= 0 {
			if code, ok := ParseInt(row[codeIdx]); ok {
				row[codeIdx] = strconv.FormatInt(code, 10)
			}
			row[codeIdx] = ZeroPad(row[codeIdx], 5)
		}
		for _, i := range numIdx {
			row[i] = FormatNumber(ParseNumber(row[i]))
		}
		rows = append(rows, row)
	}
	out.Rows = rows

	sort.SliceStable(out.Rows, func(i, j int) bool {
		yi, _ := strconv.Atoi(out.Rows[i][yearIdx])
		yj, _ := strconv.Atoi(out.Rows[j][yearIdx])
		if yi != yj {
			return yi < yj
		}
		if codeIdx < 0 {
			return false
		}
		return out.Rows[i][codeIdx] < out.Rows[j][codeIdx]
	})
	return out, nil
}
