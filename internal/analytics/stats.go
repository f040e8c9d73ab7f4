package analytics

import (
	"math"
	"sort"
)

// Summary holds descriptive statistics of a series
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// Describe computes descriptive statistics. NaN values are ignored; nil is
// returned when nothing remains.
func Describe(values []float64) *Summary {
	clean := dropNaN(values)
	if len(clean) == 0 {
		return nil
	}
	sort.Float64s(clean)

	return &Summary{
		Count:  len(clean),
		Min:    clean[0],
		Max:    clean[len(clean)-1],
		Mean:   Mean(clean),
		Median: quantileSorted(clean, 0.5),
		Std:    PStdDev(clean),
		Q25:    quantileSorted(clean, 0.25),
		Q75:    quantileSorted(clean, 0.75),
	}
}

// Mean returns the arithmetic mean, 0 for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the median, 0 for an empty series.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, 0.5)
}

// PStdDev returns the population standard deviation.
func PStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// StdDev returns the sample standard deviation, 0 with fewer than two
// values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	n := float64(len(values))
	return PStdDev(values) * math.Sqrt(n/(n-1))
}

// Quantile returns the q-quantile (0..1) with linear interpolation.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return quantileSorted(sorted, q)
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Pearson returns the correlation coefficient of the pairs where both values
// are defined. nil when fewer than two pairs remain or a series is constant.
func Pearson(x, y []*float64) *float64 {
	if len(x) != len(y) {
		return nil
	}
	var xs, ys []float64
	for i := range x {
		if x[i] == nil || y[i] == nil || math.IsNaN(*x[i]) || math.IsNaN(*y[i]) {
			continue
		}
		xs = append(xs, *x[i])
		ys = append(ys, *y[i])
	}
	if len(xs) < 2 {
		return nil
	}

	mx, my := Mean(xs), Mean(ys)
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return nil
	}
	r := cov / math.Sqrt(vx*vy)
	return &r
}

// Normalize rescales values to [0, 1]. A constant series maps to 0, the
// bottom of the range, and NaN values stay NaN.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	for i, v := range values {
		switch {
		case math.IsNaN(v):
			out[i] = math.NaN()
		case max == min:
			out[i] = 0
		default:
			out[i] = (v - min) / (max - min)
		}
	}
	return out
}

// SeriesTrend is the linear regression trend of a time series
type SeriesTrend struct {
	Label    string  `json:"tendance"`
	Slope    float64 `json:"pente"`
	Strength float64 `json:"force"`
}

// DetectTrend fits a line over the series index. NaN points are skipped.
func DetectTrend(series []float64) SeriesTrend {
	var xs, ys []float64
	for i, v := range series {
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, v)
	}
	if len(xs) < 2 {
		return SeriesTrend{Label: TrendUndetermined}
	}

	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	slope := sxy / sxx

	var r float64
	if syy > 0 {
		r = sxy / math.Sqrt(sxx*syy)
	}

	label := TrendStable
	switch {
	case math.Abs(slope) < 0.1:
	case slope > 1:
		label = TrendStrongRise
	case slope > 0:
		label = TrendModerateRise
	case slope < -1:
		label = TrendStrongDrop
	default:
		label = TrendModerateDrop
	}

	return SeriesTrend{Label: label, Slope: slope, Strength: math.Abs(r)}
}

// PercentileRank returns the share (0-100) of values lower than or equal to v.
// 50 when there is no reference.
func PercentileRank(all []float64, v float64) int {
	clean := dropNaN(all)
	if len(clean) == 0 || math.IsNaN(v) {
		return 50
	}
	rank := 0
	for _, x := range clean {
		if x <= v {
			rank++
		}
	}
	return int(float64(rank) / float64(len(clean)) * 100)
}

// CompositeScore returns the weighted mean of metrics, summed in name order.
// Missing weights count as zero; nil weights give every metric the same
// weight.
func CompositeScore(metrics, weights map[string]float64) float64 {
	if len(metrics) == 0 {
		return 0
	}
	if weights == nil {
		weights = make(map[string]float64, len(metrics))
		for k := range metrics {
			weights[k] = 1
		}
	}

	names := make([]string, 0, len(weights))
	for k := range weights {
		names = append(names, k)
	}
	sort.Strings(names)

	var total, score float64
	for _, k := range names {
		total += weights[k]
		score += metrics[k] * weights[k]
	}
	if total == 0 {
		return 0
	}
	return score / total
}

// Round rounds v to the given number of decimals, half away from zero.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// RoundPtr rounds a nullable value.
func RoundPtr(v *float64, decimals int) *float64 {
	if v == nil {
		return nil
	}
	r := Round(*v, decimals)
	return &r
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
