package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"parisdash/internal/dataset"
	"parisdash/internal/services"
)

// result extracts a typed pointer from a mock return value that may be nil.
func result[T any](args mock.Arguments, i int) T {
	var zero T
	if v := args.Get(i); v != nil {
		return v.(T)
	}
	return zero
}

type mockDashboard struct{ mock.Mock }

func (m *mockDashboard) Arrondissement(ctx context.Context, n int) (*dataset.Row, error) {
	args := m.Called(ctx, n)
	return result[*dataset.Row](args, 0), args.Error(1)
}

func (m *mockDashboard) ListSummaries(ctx context.Context, f services.Filter) ([]services.ArrondissementSummary, error) {
	args := m.Called(ctx, f)
	return result[[]services.ArrondissementSummary](args, 0), args.Error(1)
}

func (m *mockDashboard) StatsSummary(ctx context.Context) (*services.StatsSummary, error) {
	args := m.Called(ctx)
	return result[*services.StatsSummary](args, 0), args.Error(1)
}

func (m *mockDashboard) ColumnNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return result[[]string](args, 0), args.Error(1)
}

func (m *mockDashboard) Demographics(ctx context.Context, n int) (*services.Demographics, error) {
	args := m.Called(ctx, n)
	return result[*services.Demographics](args, 0), args.Error(1)
}

func (m *mockDashboard) Health(ctx context.Context) (*services.DataHealth, error) {
	args := m.Called(ctx)
	return result[*services.DataHealth](args, 0), args.Error(1)
}

type mockPrix struct{ mock.Mock }

func (m *mockPrix) PrixM2(ctx context.Context, n, year int) (*services.PrixM2, error) {
	args := m.Called(ctx, n, year)
	return result[*services.PrixM2](args, 0), args.Error(1)
}

func (m *mockPrix) Vente(ctx context.Context, n, year int) (*services.Vente, error) {
	args := m.Called(ctx, n, year)
	return result[*services.Vente](args, 0), args.Error(1)
}

func (m *mockPrix) Evolution(ctx context.Context, n, from, to int, kind string) (*services.EvolutionPrix, error) {
	args := m.Called(ctx, n, from, to, kind)
	return result[*services.EvolutionPrix](args, 0), args.Error(1)
}

func (m *mockPrix) Tendance(ctx context.Context, n int) (*services.Tendance, error) {
	args := m.Called(ctx, n)
	return result[*services.Tendance](args, 0), args.Error(1)
}

func (m *mockPrix) Historique(ctx context.Context, n int, kind string) (*services.Historique, error) {
	args := m.Called(ctx, n, kind)
	return result[*services.Historique](args, 0), args.Error(1)
}

func (m *mockPrix) Comparaison(ctx context.Context, arrs []int, year int, kind string) (*services.Comparaison, error) {
	args := m.Called(ctx, arrs, year, kind)
	return result[*services.Comparaison](args, 0), args.Error(1)
}

func (m *mockPrix) Classification(ctx context.Context, n, year int) (*services.Classification, error) {
	args := m.Called(ctx, n, year)
	return result[*services.Classification](args, 0), args.Error(1)
}

func (m *mockPrix) Anomalies(ctx context.Context, year int, kind string, threshold float64) (*services.Anomalies, error) {
	args := m.Called(ctx, year, kind, threshold)
	return result[*services.Anomalies](args, 0), args.Error(1)
}

type mockPollution struct{ mock.Mock }

func (m *mockPollution) Detail(ctx context.Context, n int) (*services.QualiteAir, error) {
	args := m.Called(ctx, n)
	return result[*services.QualiteAir](args, 0), args.Error(1)
}

func (m *mockPollution) Classement(ctx context.Context, p, order string) (*services.ClassementPolluant, error) {
	args := m.Called(ctx, p, order)
	return result[*services.ClassementPolluant](args, 0), args.Error(1)
}

func (m *mockPollution) Statistiques(ctx context.Context) (map[string]services.StatistiquePolluant, error) {
	args := m.Called(ctx)
	return result[map[string]services.StatistiquePolluant](args, 0), args.Error(1)
}

func (m *mockPollution) Repartition(ctx context.Context) (*services.RepartitionQualite, error) {
	args := m.Called(ctx)
	return result[*services.RepartitionQualite](args, 0), args.Error(1)
}

func (m *mockPollution) Indice(ctx context.Context, n int) (*services.IndiceQualite, error) {
	args := m.Called(ctx, n)
	return result[*services.IndiceQualite](args, 0), args.Error(1)
}

func (m *mockPollution) Comparaison(ctx context.Context, a, b int) (*services.ComparaisonQualite, error) {
	args := m.Called(ctx, a, b)
	return result[*services.ComparaisonQualite](args, 0), args.Error(1)
}

type mockTransport struct{ mock.Mock }

func (m *mockTransport) Detail(ctx context.Context, n int) (*services.Transport, error) {
	args := m.Called(ctx, n)
	return result[*services.Transport](args, 0), args.Error(1)
}

func (m *mockTransport) Metro(ctx context.Context, n int) (*services.MetroDetail, error) {
	args := m.Called(ctx, n)
	return result[*services.MetroDetail](args, 0), args.Error(1)
}

func (m *mockTransport) RER(ctx context.Context, n int) (*services.RERDetail, error) {
	args := m.Called(ctx, n)
	return result[*services.RERDetail](args, 0), args.Error(1)
}

func (m *mockTransport) Classement(ctx context.Context, criterion string) (*services.Classement, error) {
	args := m.Called(ctx, criterion)
	return result[*services.Classement](args, 0), args.Error(1)
}

func (m *mockTransport) Score(ctx context.Context, n int) (*services.ScoreTransport, error) {
	args := m.Called(ctx, n)
	return result[*services.ScoreTransport](args, 0), args.Error(1)
}

func (m *mockTransport) Comparaison(ctx context.Context, a, b int) (*services.ComparaisonTransport, error) {
	args := m.Called(ctx, a, b)
	return result[*services.ComparaisonTransport](args, 0), args.Error(1)
}

type mockStats struct{ mock.Mock }

func (m *mockStats) Column(ctx context.Context, col string) (*services.ColumnStats, error) {
	args := m.Called(ctx, col)
	return result[*services.ColumnStats](args, 0), args.Error(1)
}

func (m *mockStats) Correlation(ctx context.Context, x, y string) (*services.Correlation, error) {
	args := m.Called(ctx, x, y)
	return result[*services.Correlation](args, 0), args.Error(1)
}

type mockHealth struct{ mock.Mock }

func (m *mockHealth) Liveness(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *mockHealth) Readiness(ctx context.Context) (services.HealthStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(services.HealthStatus), args.Error(1)
}

func (m *mockHealth) Detailed(ctx context.Context) *services.DetailedHealth {
	return result[*services.DetailedHealth](m.Called(ctx), 0)
}

func (m *mockHealth) Version() services.VersionInfo {
	return m.Called().Get(0).(services.VersionInfo)
}
