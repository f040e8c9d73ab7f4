package http

import (
	"context"

	"parisdash/internal/dataset"
	"parisdash/internal/services"
)

// DashboardReader serves the arrondissement overview and global stats
type DashboardReader interface {
	Arrondissement(ctx context.Context, n int) (*dataset.Row, error)
	ListSummaries(ctx context.Context, f services.Filter) ([]services.ArrondissementSummary, error)
	StatsSummary(ctx context.Context) (*services.StatsSummary, error)
	ColumnNames(ctx context.Context) ([]string, error)
	Demographics(ctx context.Context, n int) (*services.Demographics, error)
	Health(ctx context.Context) (*services.DataHealth, error)
}

// PrixReader serves the price endpoints
type PrixReader interface {
	PrixM2(ctx context.Context, n, year int) (*services.PrixM2, error)
	Vente(ctx context.Context, n, year int) (*services.Vente, error)
	Evolution(ctx context.Context, n, from, to int, kind string) (*services.EvolutionPrix, error)
	Tendance(ctx context.Context, n int) (*services.Tendance, error)
	Historique(ctx context.Context, n int, kind string) (*services.Historique, error)
	Comparaison(ctx context.Context, arrs []int, year int, kind string) (*services.Comparaison, error)
	Classification(ctx context.Context, n, year int) (*services.Classification, error)
	Anomalies(ctx context.Context, year int, kind string, threshold float64) (*services.Anomalies, error)
}

// LogementReader serves the housing endpoints
type LogementReader interface {
	Sociaux(ctx context.Context, n int) (*services.LogementsSociaux, error)
	Typologie(ctx context.Context, n, year int) (*services.Typologie, error)
	Pieces(ctx context.Context, n, year int) (*services.Pieces, error)
	Synthese(ctx context.Context, n int) (*services.Synthese, error)
	Tous(ctx context.Context, year int) (*services.TousLogements, error)
	Mixite(ctx context.Context, n int) (*services.Mixite, error)
}

// TransportReader serves the transit endpoints
type TransportReader interface {
	Detail(ctx context.Context, n int) (*services.Transport, error)
	Metro(ctx context.Context, n int) (*services.MetroDetail, error)
	RER(ctx context.Context, n int) (*services.RERDetail, error)
	Classement(ctx context.Context, criterion string) (*services.Classement, error)
	Score(ctx context.Context, n int) (*services.ScoreTransport, error)
	Comparaison(ctx context.Context, a, b int) (*services.ComparaisonTransport, error)
}

// PollutionReader serves the air quality endpoints
type PollutionReader interface {
	Detail(ctx context.Context, n int) (*services.QualiteAir, error)
	Classement(ctx context.Context, p, order string) (*services.ClassementPolluant, error)
	Statistiques(ctx context.Context) (map[string]services.StatistiquePolluant, error)
	Repartition(ctx context.Context) (*services.RepartitionQualite, error)
	Indice(ctx context.Context, n int) (*services.IndiceQualite, error)
	Comparaison(ctx context.Context, a, b int) (*services.ComparaisonQualite, error)
}

// StatsReader serves the column statistics endpoints
type StatsReader interface {
	Column(ctx context.Context, col string) (*services.ColumnStats, error)
	Correlation(ctx context.Context, x, y string) (*services.Correlation, error)
}

// HealthReader serves the liveness, readiness and detailed health checks
type HealthReader interface {
	Liveness(ctx context.Context) services.HealthStatus
	Readiness(ctx context.Context) (services.HealthStatus, error)
	Detailed(ctx context.Context) *services.DetailedHealth
	Version() services.VersionInfo
}

var (
	_ DashboardReader = (*services.DashboardService)(nil)
	_ PrixReader      = (*services.PrixService)(nil)
	_ LogementReader  = (*services.LogementService)(nil)
	_ TransportReader = (*services.TransportService)(nil)
	_ PollutionReader = (*services.PollutionService)(nil)
	_ StatsReader     = (*services.StatsService)(nil)
	_ HealthReader    = (*services.HealthService)(nil)
)
