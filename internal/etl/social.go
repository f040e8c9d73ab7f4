package etl

import (
	"fmt"
	"sort"
	"strings"

	"parisdash/internal/files"
)

// ParisINSEE is the INSEE code of the city of Paris as a whole
const ParisINSEE = "75056"

var socialHousingRename = map[string]string{
	"Code Commune":                  "code_commune",
	"Département":                   "departement",
	"Région":                        "region",
	"Taux de logements sociaux (%)": "taux_logements_sociaux",
	"Nom Commune":                   "nom_commune",
}

// SocialHousingHeader is the column order of the silver social housing table
var SocialHousingHeader = []string{
	"code_commune",
	"nom_commune",
	"code_departement",
	"departement",
	"code_region",
	"region",
	"taux_logements_sociaux",
	"centroid_lat",
	"centroid_lon",
	"epci",
	"code_epci",
}

// ReadSocialHousing reads the regional export, encoded in CP437. The code
// page has no "Î" and the export carries "╫" in its place.
func ReadSocialHousing(path string) (*Table, error) {
	text, err := files.ReadText(path, files.CP437)
	if err != nil {
		return nil, err
	}
	text = strings.ReplaceAll(text, "╫", "Î")
	t, err := ParseTable(strings.NewReader(text), ';')
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// BuildSocialHousing keeps the Paris rows of the regional social housing
// rates: department 75, a 75xxx commune code or the commune named Paris.
func BuildSocialHousing(raw *Table) (*Table, error) {
	if !raw.Has("Code Commune", "Nom Commune") {
		return nil, fmt.Errorf("social housing file needs columns %q and %q", "Code Commune", "Nom Commune")
	}

	src := NewTable(append([]string(nil), raw.Header...))
	src.Rows = raw.Rows
	src.Rename(socialHousingRename)

	out := NewTable(append([]string(nil), SocialHousingHeader...))
	for _, row := range src.Rows {
		code := strings.TrimSpace(src.Value(row, "code_commune"))
		name := strings.TrimSpace(src.Value(row, "nom_commune"))
		dept := ZeroPad(src.Value(row, "code_departement"), 2)
		if dept != "75" && !strings.HasPrefix(code, "75") && !strings.EqualFold(name, "Paris") {
			continue
		}

		lat, lon := parseCentroid(src.Value(row, "centroid"))
		out.Rows = append(out.Rows, []string{
			ZeroPad(code, 5),
			name,
			dept,
			strings.TrimSpace(src.Value(row, "departement")),
			src.Value(row, "code_region"),
			strings.TrimSpace(src.Value(row, "region")),
			FormatNumber(ParseNumber(src.Value(row, "taux_logements_sociaux"))),
			lat,
			lon,
			src.Value(row, "epci"),
			src.Value(row, "code_epci"),
		})
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("no Paris row in social housing file")
	}

	sort.SliceStable(out.Rows, func(i, j int) bool { return out.Rows[i][0] < out.Rows[j][0] })
	return out, nil
}

// SocialHousingRates returns the rate of each arrondissement. Districts
// without their own row inherit the Paris rate, or the first rate when
// Paris itself is missing.
func SocialHousingRates(silver *Table) map[int]float64 {
	rates := map[string]float64{}
	var first *float64
	for _, row := range silver.Rows {
		v, ok := ParseNumber(silver.Value(row, "taux_logements_sociaux"))
		if !ok {
			continue
		}
		code := silver.Value(row, "code_commune")
		if _, dup := rates[code]; !dup {
			rates[code] = v
		}
		if first == nil {
			first = &v
		}
	}

	fallback, hasFallback := rates[ParisINSEE]
	if !hasFallback && first != nil {
		fallback, hasFallback = *first, true
	}

	out := make(map[int]float64, 20)
	for n := 1; n <= 20; n++ {
		if v, ok := rates[fmt.Sprintf("751%02d", n)]; ok {
			out[n] = v
		} else if hasFallback {
			out[n] = fallback
		}
	}
	return out
}

func parseCentroid(raw string) (string, string) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return "", ""
	}
	lat, ok1 := ParseNumber(parts[0])
	lon, ok2 := ParseNumber(parts[1])
	if !ok1 || !ok2 {
		return "", ""
	}
	return FormatNumber(lat, true), FormatNumber(lon, true)
}
