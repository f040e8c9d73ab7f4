package analytics

import (
	"math"
	"strings"
)

// Pollutants
const (
	NO2  = "no2"
	PM10 = "pm10"
	O3   = "o3"
)

// Pollutants lists the measured pollutants in display order.
var Pollutants = []string{NO2, PM10, O3}

// Threshold holds the WHO-derived limits of a pollutant in µg/m³.
type Threshold struct {
	Good     float64
	Moderate float64
	Bad      float64
}

var thresholds = map[string]Threshold{
	NO2:  {Good: 40, Moderate: 90, Bad: 150},
	PM10: {Good: 20, Moderate: 50, Bad: 100},
	O3:   {Good: 100, Moderate: 160, Bad: 240},
}

// ThresholdFor returns the limits of a pollutant.
func ThresholdFor(pollutant string) (Threshold, bool) {
	t, ok := thresholds[strings.ToLower(pollutant)]
	return t, ok
}

// ClassifyPollutant rates a concentration: Bon, Moyen, Médiocre or Mauvais.
// Unknown pollutants are "Indéterminé".
func ClassifyPollutant(pollutant string, value float64) string {
	t, ok := ThresholdFor(pollutant)
	if !ok {
		return TrendUndetermined
	}
	switch {
	case value <= t.Good:
		return "Bon"
	case value <= t.Moderate:
		return "Moyen"
	case value <= t.Bad:
		return "Médiocre"
	default:
		return "Mauvais"
	}
}

// AirIndex is a global air quality index: the worst pollutant score, each
// score being the concentration relative to its "bad" limit, capped at 100.
type AirIndex struct {
	Index     *float64           `json:"indice"`
	Quality   string             `json:"qualite"`
	Principal string             `json:"polluant_principal,omitempty"`
	Scores    map[string]float64 `json:"scores"`
}

// GlobalIndex combines the pollutant means. Missing pollutants are ignored;
// when all are missing the quality is "Indéterminée".
func GlobalIndex(no2, pm10, o3 *float64) AirIndex {
	values := map[string]*float64{NO2: no2, PM10: pm10, O3: o3}
	idx := AirIndex{Scores: map[string]float64{}}

	worst := math.Inf(-1)
	for _, p := range Pollutants {
		v := values[p]
		if v == nil {
			continue
		}
		score := math.Min(*v/thresholds[p].Bad*100, 100)
		idx.Scores[p] = Round(score, 1)
		if score > worst {
			worst = score
			idx.Principal = strings.ToUpper(p)
		}
	}
	if len(idx.Scores) == 0 {
		idx.Quality = "Indéterminée"
		return idx
	}

	idx.Index = ptr(Round(worst, 1))
	switch {
	case worst <= 30:
		idx.Quality = "Bonne"
	case worst <= 50:
		idx.Quality = "Moyenne"
	case worst <= 75:
		idx.Quality = "Médiocre"
	default:
		idx.Quality = "Mauvaise"
	}
	return idx
}

// CompareQuality compares two global indexes; a lower index is healthier.
func CompareQuality(a, b float64) string {
	switch {
	case math.Abs(a-b) < 5:
		return "Qualité comparable"
	case a < b:
		return "Premier arrondissement plus sain"
	default:
		return "Deuxième arrondissement plus sain"
	}
}

// Daily measurement categories used when cleaning the raw air file.
const (
	AirGood     = "Bonne"
	AirModerate = "Moyenne"
	AirBad      = "Mauvaise"
)

// MeasurementCategory rates a daily concentration with the stricter limits
// of the raw measurements file.
func MeasurementCategory(pollutant string, value float64) string {
	var good, moderate float64
	switch pollutant {
	case NO2:
		good, moderate = 40, 50
	case PM10:
		good, moderate = 20, 40
	case O3:
		good, moderate = 30, 45
	default:
		return ""
	}
	switch {
	case value < good:
		return AirGood
	case value < moderate:
		return AirModerate
	default:
		return AirBad
	}
}

// OverallAirQuality rates the mean of the three daily concentrations.
func OverallAirQuality(no2, pm10, o3 float64) string {
	avg := (no2 + pm10 + o3) / 3
	switch {
	case avg < 30:
		return AirGood
	case avg < 40:
		return AirModerate
	default:
		return AirBad
	}
}

// PollutionWeights weight the pollutant means of the gold pollution index.
var PollutionWeights = map[string]float64{NO2: 0.5, PM10: 0.3, O3: 0.2}

// PollutionIndex is the weighted mean 0.5·NO2 + 0.3·PM10 + 0.2·O3.
func PollutionIndex(no2, pm10, o3 float64) float64 {
	return CompositeScore(map[string]float64{NO2: no2, PM10: pm10, O3: o3}, PollutionWeights)
}

// Categories of the gold pollution index
const (
	IndexGood     = "Bonne"
	IndexModerate = "Moyenne"
	IndexBad      = "Mauvaise"
	IndexUnknown  = "Inconnu"
)

// PollutionIndexCategory rates a pollution index: below 20 is good, below 35
// moderate. A nil index is unknown.
func PollutionIndexCategory(index *float64) string {
	switch {
	case index == nil || math.IsNaN(*index):
		return IndexUnknown
	case *index < 20:
		return IndexGood
	case *index < 35:
		return IndexModerate
	default:
		return IndexBad
	}
}
