package analytics

import "sort"

// Social housing levels
const (
	MixHigh      = "Élevé (>20%)"
	MixMedium    = "Moyen (10-20%)"
	MixLow       = "Faible (<10%)"
	NotEstimated = "Non estimé"
)

// MixIndex returns the share of social housing in percent, nil without a total.
func MixIndex(social, total float64) *float64 {
	if total <= 0 {
		return nil
	}
	return ptr(social / total * 100)
}

// ClassifyMix buckets a social housing share.
func ClassifyMix(pct float64) string {
	switch {
	case pct >= 20:
		return MixHigh
	case pct >= 10:
		return MixMedium
	default:
		return MixLow
	}
}

// EstimateSocialHousing infers the social housing level from the local price
// relative to the Paris median: cheaper districts tend to host more of it.
func EstimateSocialHousing(prixM2, parisMedian *float64) string {
	if prixM2 == nil || parisMedian == nil || *parisMedian <= 0 {
		return NotEstimated
	}
	switch {
	case *prixM2 < *parisMedian*0.7:
		return MixHigh
	case *prixM2 < *parisMedian*0.85:
		return MixMedium
	default:
		return MixLow
	}
}

// RoomDistribution converts counts to percentages rounded to one decimal. A
// zero total maps every key to 0.
func RoomDistribution(counts map[string]int) map[string]float64 {
	total := 0
	for _, v := range counts {
		total += v
	}
	out := make(map[string]float64, len(counts))
	for k, v := range counts {
		if total == 0 {
			out[k] = 0
			continue
		}
		out[k] = Round(float64(v)/float64(total)*100, 1)
	}
	return out
}

// DominantType returns the key with the highest count; ties go to the first
// key in name order. "Indéterminé" when counts is empty or all zero.
func DominantType(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestVal := TrendUndetermined, 0
	for _, k := range keys {
		if counts[k] > bestVal {
			best, bestVal = k, counts[k]
		}
	}
	return best
}

// AverageSurface approximates a dwelling surface in m² from its room count.
func AverageSurface(rooms float64) float64 {
	return rooms*25 + 15
}

// RoomBucket maps a room count to T1..T4 or T5plus; "" for non-positive counts.
func RoomBucket(rooms int) string {
	switch {
	case rooms <= 0:
		return ""
	case rooms == 1:
		return "T1"
	case rooms == 2:
		return "T2"
	case rooms == 3:
		return "T3"
	case rooms == 4:
		return "T4"
	default:
		return "T5plus"
	}
}
