package analytics

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// AccessibilityScore scores transit coverage on 100: five points per station
// and ten per line, capped.
func AccessibilityScore(stations, lines int) int {
	score := stations*5 + lines*10
	if score > 100 {
		return 100
	}
	return score
}

// ClassifyAccessibility buckets an accessibility score.
func ClassifyAccessibility(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Bon"
	case score >= 40:
		return "Moyen"
	default:
		return "Faible"
	}
}

// CompareAccessibility compares two scores; differences under 10 are even.
func CompareAccessibility(a, b int) string {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < 10:
		return "Accessibilité comparable"
	case a > b:
		return "Premier arrondissement mieux desservi"
	default:
		return "Deuxième arrondissement mieux desservi"
	}
}

// TrafficPerStation returns the mean yearly traffic of a station, nil
// without stations.
func TrafficPerStation(total int64, stations int) *int64 {
	if stations <= 0 {
		return nil
	}
	v := total / int64(stations)
	return &v
}

// SortLines orders line names: numeric lines ascending (3bis after 3), then
// letter lines, then anything else.
func SortLines(lines []string) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := lineClass(out[i]), lineClass(out[j])
		if ci != cj {
			return ci < cj
		}
		if ci == 0 {
			ni, si := splitLine(out[i])
			nj, sj := splitLine(out[j])
			if ni != nj {
				return ni < nj
			}
			return si < sj
		}
		return out[i] < out[j]
	})
	return out
}

// lineClass is 0 for numeric lines (with an optional suffix such as "bis"),
// 1 for letters and 2 otherwise.
func lineClass(line string) int {
	if line == "" {
		return 2
	}
	if unicode.IsDigit(rune(line[0])) {
		return 0
	}
	for _, r := range line {
		if !unicode.IsLetter(r) {
			return 2
		}
	}
	return 1
}

func splitLine(line string) (int, string) {
	i := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsDigit(r) })
	if i < 0 {
		i = len(line)
	}
	n, _ := strconv.Atoi(line[:i])
	return n, line[i:]
}
