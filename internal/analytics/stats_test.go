package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s := Describe([]float64{4, 1, math.NaN(), 3, 2})
	require.NotNil(t, s)

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 2.5, s.Median)
	assert.Equal(t, 1.75, s.Q25)
	assert.Equal(t, 3.25, s.Q75)
	assert.InDelta(t, math.Sqrt(1.25), s.Std, 1e-9)
}

func TestDescribe_Empty(t *testing.T) {
	assert.Nil(t, Describe(nil))
	assert.Nil(t, Describe([]float64{math.NaN()}))
}

func TestMedianAndQuantile(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 2, 3}))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.9))
	assert.Equal(t, 10.0, Quantile([]float64{0, 10}, 1))
}

func TestPearson(t *testing.T) {
	t.Run("perfect positive", func(t *testing.T) {
		r := Pearson([]*float64{f(1), f(2), f(3)}, []*float64{f(2), f(4), f(6)})
		require.NotNil(t, r)
		assert.InDelta(t, 1.0, *r, 1e-9)
	})

	t.Run("perfect negative with nulls", func(t *testing.T) {
		r := Pearson([]*float64{f(1), nil, f(2), f(3)}, []*float64{f(3), f(8), f(2), f(1)})
		require.NotNil(t, r)
		assert.InDelta(t, -1.0, *r, 1e-9)
	})

	t.Run("not enough pairs", func(t *testing.T) {
		assert.Nil(t, Pearson([]*float64{f(1), nil}, []*float64{f(1), f(2)}))
	})

	t.Run("constant series", func(t *testing.T) {
		assert.Nil(t, Pearson([]*float64{f(1), f(1)}, []*float64{f(1), f(2)}))
	})

	t.Run("length mismatch", func(t *testing.T) {
		assert.Nil(t, Pearson([]*float64{f(1)}, nil))
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{"spread", []float64{10, 15, 20}, []float64{0, 0.5, 1}},
		{"constant maps to range minimum", []float64{3, 3}, []float64{0, 0}},
		{"single value", []float64{7}, []float64{0}},
		{"empty", nil, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.values))
		})
	}

	out := Normalize([]float64{0, math.NaN(), 4})
	assert.True(t, math.IsNaN(out[1]))
	assert.Equal(t, 1.0, out[2])

	flat := Normalize([]float64{5, math.NaN(), 5})
	assert.Equal(t, 0.0, flat[0])
	assert.True(t, math.IsNaN(flat[1]))
}

func TestStdDev(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"sample deviation", []float64{2, 4, 4, 4, 5, 5, 7, 9}, math.Sqrt(32.0 / 7)},
		{"constant", []float64{3, 3, 3}, 0},
		{"single value", []float64{3}, 0},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, StdDev(tt.values), 1e-9)
		})
	}
}

func TestDetectTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   string
	}{
		{"strong rise", []float64{1, 3, 5, 7}, TrendStrongRise},
		{"moderate rise", []float64{1, 1.5, 2}, TrendModerateRise},
		{"stable", []float64{5, 5.05, 5.1}, TrendStable},
		{"moderate drop", []float64{2, 1.5, 1}, TrendModerateDrop},
		{"strong drop", []float64{9, 6, 3}, TrendStrongDrop},
		{"single point", []float64{4}, TrendUndetermined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectTrend(tt.series).Label)
		})
	}

	trend := DetectTrend([]float64{1, 2, 3})
	assert.InDelta(t, 1.0, trend.Slope, 1e-9)
	assert.InDelta(t, 1.0, trend.Strength, 1e-9)
}

func TestPercentileRank(t *testing.T) {
	all := []float64{1, 2, 3, 4}
	assert.Equal(t, 50, PercentileRank(all, 2))
	assert.Equal(t, 100, PercentileRank(all, 4))
	assert.Equal(t, 0, PercentileRank(all, 0))
	assert.Equal(t, 50, PercentileRank(nil, 3))
}

func TestCompositeScore(t *testing.T) {
	metrics := map[string]float64{"prix": 80, "transport": 40}

	assert.Equal(t, 60.0, CompositeScore(metrics, nil))
	assert.InDelta(t, 70.0, CompositeScore(metrics, map[string]float64{"prix": 3, "transport": 1}), 1e-9)
	assert.Equal(t, 0.0, CompositeScore(nil, nil))
	assert.Equal(t, 0.0, CompositeScore(metrics, map[string]float64{"prix": 0}))

	weights := map[string]float64{"a": 0.1, "b": 0.2, "c": 0.3, "d": 0.4}
	values := map[string]float64{"a": 1.1, "b": 2.2, "c": 3.3, "d": 4.4}
	first := CompositeScore(values, weights)
	for range 20 {
		assert.Equal(t, first, CompositeScore(values, weights))
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.3, Round(1.25, 1))
	assert.Equal(t, -1.3, Round(-1.25, 1))
	assert.Equal(t, 12346.0, Round(12345.6, 0))
	assert.Nil(t, RoundPtr(nil, 1))
	assert.Equal(t, 2.35, *RoundPtr(f(2.346), 2))
}
