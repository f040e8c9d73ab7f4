package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsColumn(t *testing.T) {
	svc := NewStatsService(fixtureProvider(t), discardLogger())
	ctx := context.Background()

	got, err := svc.Column(ctx, "prix_m2_median_2024")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Manquant)
	require.NotNil(t, got.Resume)
	assert.Equal(t, 4, got.Resume.Count)
	assert.Equal(t, 9000.0, got.Resume.Min)
	assert.Equal(t, 14500.0, got.Resume.Max)
	assert.Equal(t, 11950.0, got.Resume.Mean)
	assert.NotNil(t, got.Tendance)

	got, err = svc.Column(ctx, "no2_moyen")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Manquant)
	assert.Equal(t, 3, got.Resume.Count)

	got, err = svc.Column(ctx, "lignes_rer")
	require.NoError(t, err)
	assert.Nil(t, got.Resume)
	assert.Nil(t, got.Tendance)

	_, err = svc.Column(ctx, "surface")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestStatsCorrelation(t *testing.T) {
	svc := NewStatsService(fixtureProvider(t), discardLogger())
	ctx := context.Background()

	got, err := svc.Correlation(ctx, "prix_m2_median_2024", "prix_m2_median_2024")
	require.NoError(t, err)
	assert.Equal(t, 4, got.NbPoints)
	require.NotNil(t, got.Coefficient)
	assert.Equal(t, 1.0, *got.Coefficient)

	got, err = svc.Correlation(ctx, "prix_m2_median_2024", "no2_moyen")
	require.NoError(t, err)
	assert.Equal(t, 3, got.NbPoints)
	require.NotNil(t, got.Coefficient)
	assert.True(t, *got.Coefficient >= -1 && *got.Coefficient <= 1)

	tests := []struct {
		name string
		x, y string
		want error
	}{
		{"missing x", "", "no2_moyen", ErrInvalidParameter},
		{"missing y", "no2_moyen", "", ErrInvalidParameter},
		{"unknown column", "no2_moyen", "co2", ErrColumnNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Correlation(ctx, tt.x, tt.y)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
