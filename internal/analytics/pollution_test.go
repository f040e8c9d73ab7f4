package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPollutant(t *testing.T) {
	tests := []struct {
		pollutant string
		value     float64
		want      string
	}{
		{NO2, 40, "Bon"},
		{NO2, 41, "Moyen"},
		{NO2, 150, "Médiocre"},
		{NO2, 151, "Mauvais"},
		{PM10, 20, "Bon"},
		{PM10, 50, "Moyen"},
		{"PM10", 99, "Médiocre"},
		{O3, 240.5, "Mauvais"},
		{"so2", 10, TrendUndetermined},
	}
	for _, tt := range tests {
		t.Run(tt.pollutant, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPollutant(tt.pollutant, tt.value))
		})
	}
}

func TestGlobalIndex(t *testing.T) {
	idx := GlobalIndex(f(30), f(25), f(60))

	require.NotNil(t, idx.Index)
	// no2 30/150=20, pm10 25/100=25, o3 60/240=25
	assert.Equal(t, 25.0, *idx.Index)
	assert.Equal(t, "Bonne", idx.Quality)
	assert.Equal(t, "PM10", idx.Principal)
	assert.Equal(t, map[string]float64{NO2: 20, PM10: 25, O3: 25}, idx.Scores)
}

func TestGlobalIndex_Levels(t *testing.T) {
	tests := []struct {
		name string
		no2  float64
		want string
	}{
		{"moyenne", 60, "Moyenne"},
		{"mediocre", 112.5, "Médiocre"},
		{"mauvaise", 140, "Mauvaise"},
		{"capped", 400, "Mauvaise"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := GlobalIndex(f(tt.no2), nil, nil)
			assert.Equal(t, tt.want, idx.Quality)
			assert.LessOrEqual(t, *idx.Index, 100.0)
		})
	}
}

func TestGlobalIndex_AllMissing(t *testing.T) {
	idx := GlobalIndex(nil, nil, nil)
	assert.Nil(t, idx.Index)
	assert.Equal(t, "Indéterminée", idx.Quality)
	assert.Empty(t, idx.Principal)
}

func TestCompareQuality(t *testing.T) {
	assert.Equal(t, "Qualité comparable", CompareQuality(30, 34))
	assert.Equal(t, "Premier arrondissement plus sain", CompareQuality(20, 40))
	assert.Equal(t, "Deuxième arrondissement plus sain", CompareQuality(40, 20))
}

func TestMeasurementCategory(t *testing.T) {
	assert.Equal(t, AirGood, MeasurementCategory(NO2, 39.9))
	assert.Equal(t, AirModerate, MeasurementCategory(NO2, 40))
	assert.Equal(t, AirBad, MeasurementCategory(NO2, 50))
	assert.Equal(t, AirModerate, MeasurementCategory(PM10, 25))
	assert.Equal(t, AirBad, MeasurementCategory(O3, 45))
	assert.Empty(t, MeasurementCategory("co", 1))
}

func TestOverallAirQuality(t *testing.T) {
	assert.Equal(t, AirGood, OverallAirQuality(20, 20, 20))
	assert.Equal(t, AirModerate, OverallAirQuality(30, 30, 30))
	assert.Equal(t, AirBad, OverallAirQuality(60, 30, 30))
}

func TestPollutionIndex(t *testing.T) {
	assert.InDelta(t, 28.0, PollutionIndex(30, 20, 35), 1e-9)
	assert.InDelta(t, 0.0, PollutionIndex(0, 0, 0), 1e-9)
}

func TestPollutionIndexCategory(t *testing.T) {
	tests := []struct {
		name  string
		index *float64
		want  string
	}{
		{"missing", nil, IndexUnknown},
		{"good", f(19.99), IndexGood},
		{"moderate lower bound", f(20), IndexModerate},
		{"moderate", f(34.9), IndexModerate},
		{"bad", f(35), IndexBad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PollutionIndexCategory(tt.index))
		})
	}
}
