package services

import (
	"context"
	"log/slog"

	"parisdash/internal/analytics"
	"parisdash/internal/dataset"
)

// StatsService computes descriptive statistics over gold columns
type StatsService struct {
	data   DatasetProvider
	logger *slog.Logger
}

// NewStatsService creates a statistics service over data
func NewStatsService(data DatasetProvider, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{data: data, logger: logger}
}

// ColumnStats describes one numeric column
type ColumnStats struct {
	Colonne  string             `json:"colonne"`
	Manquant int                `json:"valeurs_manquantes"`
	Resume   *analytics.Summary `json:"statistiques"`
	Tendance *string            `json:"tendance,omitempty"`
}

// Column describes col over the arrondissements. Resume is nil when the
// column holds no numeric value.
func (s *StatsService) Column(ctx context.Context, col string) (*ColumnStats, error) {
	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	if !ds.HasColumn(col) {
		return nil, columnNotFound(col)
	}

	values := ds.Values(col)
	out := &ColumnStats{
		Colonne:  col,
		Manquant: ds.Len() - len(values),
		Resume:   analytics.Describe(values),
	}
	if len(values) > 1 {
		trend := analytics.DetectTrend(values).Label
		out.Tendance = &trend
	}
	return out, nil
}

// Correlation is the Pearson coefficient of two columns
type Correlation struct {
	X           string   `json:"x"`
	Y           string   `json:"y"`
	Coefficient *float64 `json:"coefficient"`
	NbPoints    int      `json:"nb_points"`
}

// Correlation computes the Pearson coefficient of x and y over the
// arrondissements where both are defined.
func (s *StatsService) Correlation(ctx context.Context, x, y string) (*Correlation, error) {
	if x == "" {
		return nil, NewValidationError("x", x, "Le paramètre x est requis")
	}
	if y == "" {
		return nil, NewValidationError("y", y, "Le paramètre y est requis")
	}

	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{x, y} {
		if !ds.HasColumn(col) {
			return nil, columnNotFound(col)
		}
	}

	xs := pointValues(ds.Column(x))
	ys := pointValues(ds.Column(y))
	pairs := 0
	for i := range xs {
		if xs[i] != nil && ys[i] != nil {
			pairs++
		}
	}

	return &Correlation{
		X:           x,
		Y:           y,
		Coefficient: analytics.RoundPtr(analytics.Pearson(xs, ys), 3),
		NbPoints:    pairs,
	}, nil
}

func pointValues(points []dataset.Point) []*float64 {
	out := make([]*float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
