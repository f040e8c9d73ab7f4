package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parisdash/internal/analytics"
	"parisdash/internal/dataset"
)

func TestPrixM2(t *testing.T) {
	svc := NewPrixService(fixtureProvider(t), discardLogger())
	ctx := context.Background()

	got, err := svc.PrixM2(ctx, 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(12500), *got.PrixM2Median)

	got, err = svc.PrixM2(ctx, 1, 2023)
	require.NoError(t, err)
	assert.Nil(t, got.PrixM2Median)

	tests := []struct {
		name string
		arr  int
		year int
		want error
	}{
		{"year too early", 1, 2019, ErrInvalidYear},
		{"year too late", 1, 2026, ErrInvalidYear},
		{"arrondissement zero", 0, 2024, ErrInvalidArrondissement},
		{"arrondissement 21", 21, 2024, ErrInvalidArrondissement},
		{"valid but absent", 3, 2024, ErrArrondissementNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PrixM2(ctx, tt.arr, tt.year)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPrixM2Messages(t *testing.T) {
	svc := NewPrixService(fixtureProvider(t), nil)

	_, err := svc.PrixM2(context.Background(), 25, 2024)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Arrondissement invalide : 25. Doit être entre 1 et 20.", verr.Message)

	_, err = svc.PrixM2(context.Background(), 1, 2030)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Année invalide : 2030. Doit être entre 2020 et 2025.", verr.Message)

	_, err = svc.PrixM2(context.Background(), 3, 2024)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Arrondissement", nf.Resource)
	assert.Equal(t, 3, nf.Identifier)
}

func TestVente(t *testing.T) {
	svc := NewPrixService(fixtureProvider(t), discardLogger())

	got, err := svc.Vente(context.Background(), 16, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(900000), *got.PrixMedian)
	assert.Equal(t, int64(300), *got.NbVentes)

	got, err = svc.Vente(context.Background(), 16, 2020)
	require.NoError(t, err)
	assert.Nil(t, got.PrixMedian)
	assert.Nil(t, got.NbVentes)
}

func TestEvolution(t *testing.T) {
	svc := NewPrixService(fixtureProvider(t), discardLogger())
	ctx := context.Background()

	t.Run("stored column", func(t *testing.T) {
		got, err := svc.Evolution(ctx, 1, 2020, 2024, dataset.TypePrixM2)
		require.NoError(t, err)
		assert.Equal(t, Periode{Debut: 2020, Fin: 2024}, got.Periode)
		assert.Equal(t, 4.2, *got.EvolutionPct)
		assert.Equal(t, int64(12000), *got.ValeurDebut)
		assert.Equal(t, int64(12500), *got.ValeurFin)
		assert.Equal(t, analytics.TrendModerateRise, got.Tendance)
	})

	t.Run("computed from medians", func(t *testing.T) {
		got, err := svc.Evolution(ctx, 1, 2020, 2024, dataset.TypePrix)
		require.NoError(t, err)
		require.NotNil(t, got.EvolutionPct)
		assert.InDelta(t, 4.0, *got.EvolutionPct, 1e-9)
		assert.Equal(t, analytics.TrendModerateRise, got.Tendance)
	})

	t.Run("missing start value", func(t *testing.T) {
		got, err := svc.Evolution(ctx, 2, 2020, 2024, dataset.TypePrix)
		require.NoError(t, err)
		assert.Nil(t, got.EvolutionPct)
		assert.Nil(t, got.ValeurDebut)
		assert.Equal(t, analytics.TrendUndetermined, got.Tendance)
	})

	invalid := []struct {
		name     string
		from, to int
		kind     string
	}{
		{"start before range", 2019, 2024, dataset.TypePrix},
		{"start is last year", 2025, 2025, dataset.TypePrix},
		{"end after range", 2020, 2026, dataset.TypePrix},
		{"end before start", 2024, 2022, dataset.TypePrix},
		{"same year", 2022, 2022, dataset.TypePrix},
		{"unknown type", 2020, 2024, "m2"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Evolution(ctx, 1, tt.from, tt.to, tt.kind)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestTendance(t *testing.T) {
	svc := NewPrixService(fixtureProvider(t), discardLogger())

	got, err := svc.Tendance(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Forte baisse", *got.Tendance)
	assert.Equal(t, -2.6, *got.EvolutionAnnuelleMoyennePct)
	assert.Equal(t, 3.0, *got.Volatilite)
}

func TestHistorique(t *testing.T) {
	svc := NewPrixService(fixtureProvider(t), discardLogger())

	got, err := svc.Historique(context.Background(), 1, dataset.TypePrixM2)
	require.NoError(t, err)
	require.Len(t, got.Historique, 6)
	assert.Equal(t, 2020, got.Historique[0].Annee)
	assert.Equal(t, int64(12000), *got.Historique[0].Valeur)
	assert.Nil(t, got.Historique[1].Valeur)
	assert.Equal(t, int64(12500), *got.Historique[4].Valeur)
	assert.Equal(t, 2025, got.Historique[5].Annee)

	_, err = svc.Historique(context.Background(), 1, "surface")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseArrondissementList(t *testing.T) {
	tests := []struct {
		raw     string
		want    []int
		message string
	}{
		{raw: "1,2,3", want: []int{1, 2, 3}},
		{raw: " 4, 16 ,20", want: []int{4, 16, 20}},
		{raw: "1,a", message: "Format invalide pour les arrondissements"},
		{raw: "", message: "Format invalide pour les arrondissements"},
		{raw: "1,21", message: "Un ou plusieurs arrondissements sont invalides"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseArrondissementList(tt.raw)
			if tt.message == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestComparaison(t *testing.T) {
	svc := NewPrixService(fixtureProvider(t), discardLogger())
	ctx := context.Background()

	got, err := svc.Comparaison(ctx, []int{1, 2, 5, 16}, 2024, dataset.TypePrixM2)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 1, 2, 5}, comparedArrondissements(got.Comparaison))

	// null values sort as zero, ties keep the request order
	got, err = svc.Comparaison(ctx, []int{2, 16, 1, 5, 3}, 2020, dataset.TypePrix)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 2, 16}, comparedArrondissements(got.Comparaison))
	assert.Nil(t, got.Comparaison[2].Valeur)

	_, err = svc.Comparaison(ctx, []int{1, 22}, 2024, dataset.TypePrix)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = svc.Comparaison(ctx, []int{1}, 2018, dataset.TypePrix)
	assert.ErrorIs(t, err, ErrInvalidYear)
}

func comparedArrondissements(values []ValeurArrondissement) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = v.Arrondissement
	}
	return out
}

func TestClassification(t *testing.T) {
	svc := NewPrixService(fixtureProvider(t), discardLogger())
	ctx := context.Background()

	tests := []struct {
		arr      int
		category string
		rank     int
	}{
		{16, "Très élevé", 100},
		{1, "Élevé", 75},
		{2, "Moyen", 50},
		{5, "Abordable", 25},
	}
	for _, tt := range tests {
		got, err := svc.Classification(ctx, tt.arr, 2024)
		require.NoError(t, err)
		assert.Equal(t, tt.category, got.Categorie, "arrondissement %d", tt.arr)
		require.NotNil(t, got.RangPercentile)
		assert.Equal(t, tt.rank, *got.RangPercentile, "arrondissement %d", tt.arr)
	}

	got, err := svc.Classification(ctx, 1, 2023)
	require.NoError(t, err)
	assert.Nil(t, got.PrixM2Median)
	assert.Nil(t, got.RangPercentile)
	assert.Equal(t, analytics.TrendUndetermined, got.Categorie)
}

func TestAnomalies(t *testing.T) {
	svc := NewPrixService(fixtureProvider(t), discardLogger())
	ctx := context.Background()

	got, err := svc.Anomalies(ctx, 2024, dataset.TypePrixM2, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 11950.0, *got.Moyenne)
	assert.Equal(t, 1970.4, *got.EcartType)
	require.Len(t, got.Anomalies, 2)
	assert.Equal(t, 5, got.Anomalies[0].Arrondissement)
	assert.Equal(t, "Prix anormalement bas", got.Anomalies[0].Direction)
	assert.Equal(t, 16, got.Anomalies[1].Arrondissement)
	assert.Equal(t, "Prix anormalement élevé", got.Anomalies[1].Direction)

	got, err = svc.Anomalies(ctx, 2024, dataset.TypePrixM2, analytics.DefaultAnomalyThreshold)
	require.NoError(t, err)
	assert.Empty(t, got.Anomalies)

	_, err = svc.Anomalies(ctx, 2024, dataset.TypePrixM2, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestPrixDatasetUnavailable(t *testing.T) {
	svc := NewPrixService(staticProvider{err: ErrDatasetUnavailable}, discardLogger())

	_, err := svc.PrixM2(context.Background(), 1, 2024)
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
	_, err = svc.Anomalies(context.Background(), 2024, dataset.TypePrix, 2)
	assert.ErrorIs(t, err, ErrDatasetUnavailable)
}
