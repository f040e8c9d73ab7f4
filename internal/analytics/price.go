package analytics

import (
	"math"
	"sort"
)

// Trend labels shared by price evolutions and series trends.
const (
	TrendStrongRise   = "Forte hausse"
	TrendModerateRise = "Hausse modérée"
	TrendStable       = "Stable"
	TrendModerateDrop = "Baisse modérée"
	TrendStrongDrop   = "Forte baisse"
	TrendUndetermined = "Indéterminé"
	// InsufficientData marks a trend computed on fewer than three points.
	InsufficientData = "Données insuffisantes"
)

// DefaultAnomalyThreshold is the z-score above which a price is an outlier.
const DefaultAnomalyThreshold = 2.0

// Evolution describes the change between two prices
type Evolution struct {
	Pct       *float64 `json:"evolution_pct"`
	Variation *float64 `json:"variation_absolue"`
	Trend     string   `json:"tendance"`
}

// CalculateEvolution compares two prices. Missing values or a zero start
// give an undetermined evolution.
func CalculateEvolution(start, end *float64) Evolution {
	if start == nil || end == nil || *start == 0 {
		return Evolution{Trend: TrendUndetermined}
	}
	pct := (*end - *start) / *start * 100
	variation := *end - *start
	return Evolution{
		Pct:       ptr(Round(pct, 2)),
		Variation: ptr(Round(variation, 2)),
		Trend:     TrendLabel(pct),
	}
}

// TrendLabel classifies a percentage change.
func TrendLabel(pct float64) string {
	switch {
	case pct > 5:
		return TrendStrongRise
	case pct > 2:
		return TrendModerateRise
	case pct > -2:
		return TrendStable
	case pct > -5:
		return TrendModerateDrop
	default:
		return TrendStrongDrop
	}
}

// PctChange returns the percentage change from a to b, nil unless both are
// positive.
func PctChange(a, b *float64) *float64 {
	if a == nil || b == nil || *a <= 0 || *b == 0 {
		return nil
	}
	return ptr((*b - *a) / *a * 100)
}

// Volatility returns the population standard deviation of a series, nil with
// fewer than two values.
func Volatility(series []float64) *float64 {
	if len(series) < 2 {
		return nil
	}
	return ptr(PStdDev(series))
}

// YearlyTrend summarises consecutive changes of a yearly median series.
type YearlyTrend struct {
	Label         string   `json:"tendance"`
	AverageChange *float64 `json:"evolution_annuelle_moyenne_pct"`
	Volatility    *float64 `json:"volatilite"`
}

// AnalyzeYearlyTrend needs at least three defined, positive points. The
// average of the consecutive changes drives the label and their Volatility
// is reported.
func AnalyzeYearlyTrend(series []*float64) YearlyTrend {
	var points []float64
	for _, v := range series {
		if v != nil && *v > 0 && !math.IsNaN(*v) {
			points = append(points, *v)
		}
	}
	if len(points) < 3 {
		return YearlyTrend{Label: InsufficientData}
	}

	changes := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		changes = append(changes, (points[i]-points[i-1])/points[i-1]*100)
	}

	avg := Mean(changes)
	trend := YearlyTrend{
		Label:         TrendLabel(avg),
		AverageChange: ptr(Round(avg, 1)),
	}
	trend.Volatility = RoundPtr(Volatility(changes), 1)
	return trend
}

// Anomaly is an arrondissement whose price deviates from the others
type Anomaly struct {
	Arrondissement int     `json:"arrondissement"`
	Value          float64 `json:"valeur"`
	ZScore         float64 `json:"z_score"`
	Direction      string  `json:"type"`
}

// DetectAnomalies returns the values whose |z-score| exceeds threshold,
// strongest first.
func DetectAnomalies(values map[int]float64, threshold float64) []Anomaly {
	anomalies := []Anomaly{}
	if len(values) < 2 {
		return anomalies
	}

	series := make([]float64, 0, len(values))
	for _, v := range values {
		series = append(series, v)
	}
	mean, std := Mean(series), PStdDev(series)
	if std == 0 {
		return anomalies
	}

	for arr, v := range values {
		if !IsAnomaly(v, mean, std, threshold) {
			continue
		}
		z := (v - mean) / std
		direction := "Prix anormalement élevé"
		if z < 0 {
			direction = "Prix anormalement bas"
		}
		anomalies = append(anomalies, Anomaly{
			Arrondissement: arr,
			Value:          v,
			ZScore:         Round(z, 2),
			Direction:      direction,
		})
	}

	sort.Slice(anomalies, func(i, j int) bool {
		ai, aj := math.Abs(anomalies[i].ZScore), math.Abs(anomalies[j].ZScore)
		if ai != aj {
			return ai > aj
		}
		return anomalies[i].Arrondissement < anomalies[j].Arrondissement
	})
	return anomalies
}

// IsAnomaly reports whether v lies more than threshold deviations from mean.
func IsAnomaly(v, mean, std, threshold float64) bool {
	if std == 0 {
		return false
	}
	return math.Abs((v-mean)/std) > threshold
}

// ClassifyPrice buckets a price per square metre.
func ClassifyPrice(prixM2 float64) string {
	switch {
	case prixM2 < 8000:
		return "Très abordable"
	case prixM2 < 10000:
		return "Abordable"
	case prixM2 < 12000:
		return "Moyen"
	case prixM2 < 14000:
		return "Élevé"
	default:
		return "Très élevé"
	}
}

func ptr(v float64) *float64 {
	return &v
}
