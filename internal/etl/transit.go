package etl

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// TransitHeader is the header of the per-arrondissement transit table
var TransitHeader = []string{
	"Arrondissement",
	"Nombre_Stations",
	"Trafic_Total",
	"Nombre_Lignes_Metro",
	"Nombre_Lignes_RER",
	"Lignes_Metro",
	"Lignes_RER",
	"Toutes_Lignes",
}

const (
	transitCityCol = "Ville"
	transitArrCol  = "Arrondissement pour Paris"
	transitFlowCol = "Trafic"
)

var digitsPattern = regexp.MustCompile(`\d+`)

type transitAcc struct {
	stations int
	traffic  int64
	metro    map[string]bool
	rer      map[string]bool
}

// AggregateTransit sums the yearly entries of the Paris stations per
// arrondissement and lists the metro and RER lines serving it. All 20
// arrondissements are present in the result.
func AggregateTransit(raw *Table) (*Table, error) {
	if !raw.Has(transitCityCol, transitArrCol) {
		return nil, fmt.Errorf("transit file needs columns %q and %q", transitCityCol, transitArrCol)
	}

	acc := make(map[int]*transitAcc, 20)
	for n := 1; n <= 20; n++ {
		acc[n] = &transitAcc{metro: map[string]bool{}, rer: map[string]bool{}}
	}

	for _, row := range raw.Rows {
		if strings.TrimSpace(raw.Value(row, transitCityCol)) != "Paris" {
			continue
		}
		n, ok := TransitArrondissement(raw.Value(row, transitArrCol))
		if !ok {
			continue
		}
		a := acc[n]
		a.stations++
		if flow, ok := ParseNumber(raw.Value(row, transitFlowCol)); ok {
			a.traffic += int64(flow)
		}
		for i := 1; i <= 5; i++ {
			line := strings.TrimSpace(raw.Value(row, "Correspondance_"+strconv.Itoa(i)))
			if IsMissing(line) {
				continue
			}
			if IsRERLine(line) {
				a.rer[line] = true
			} else {
				a.metro[line] = true
			}
		}
	}

	out := NewTable(append([]string(nil), TransitHeader...))
	for n := 1; n <= 20; n++ {
		a := acc[n]
		metro := sortByLength(keys(a.metro))
		rer := keys(a.rer)
		sort.Strings(rer)
		all := sortByLength(append(append([]string(nil), metro...), rer...))

		out.Rows = append(out.Rows, []string{
			strconv.Itoa(n),
			strconv.Itoa(a.stations),
			strconv.FormatInt(a.traffic, 10),
			strconv.Itoa(len(metro)),
			strconv.Itoa(len(rer)),
			strings.Join(metro, ", "),
			strings.Join(rer, ", "),
			strings.Join(all, ", "),
		})
	}
	return out, nil
}

// TransitArrondissement reads "13", "75013" or "Paris 13" as 13
func TransitArrondissement(raw string) (int, bool) {
	m := digitsPattern.FindString(raw)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	switch {
	case n >= 75001 && n <= 75020:
		return n - 75000, true
	case n >= 1 && n <= 20:
		return n, true
	}
	return 0, false
}

// IsRERLine reports whether a line label designates an RER line
func IsRERLine(line string) bool {
	upper := strings.ToUpper(line)
	if strings.Contains(upper, "RER") {
		return true
	}
	switch upper {
	case "A", "B", "C", "D", "E":
		return true
	}
	return false
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

// sortByLength orders labels by length, then text, so "3" < "14" < "3bis"
func sortByLength(lines []string) []string {
	sort.Slice(lines, func(i, j int) bool {
		if len(lines[i]) != len(lines[j]) {
			return len(lines[i]) < len(lines[j])
		}
		return lines[i] < lines[j]
	})
	return lines
}
