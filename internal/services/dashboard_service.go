package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"parisdash/internal/analytics"
	"parisdash/internal/config"
	"parisdash/internal/dataset"
	"parisdash/internal/infrastructure"
)

const datasetCacheKey = "gold"

// DatasetProvider gives access to the current gold dataset
type DatasetProvider interface {
	Dataset(ctx context.Context) (*dataset.Dataset, error)
}

// LoaderFunc reads the gold table from path
type LoaderFunc func(path string) (*dataset.Dataset, error)

// DashboardService provides the gold dataset and the arrondissement level
// lookups shared by every resource.
type DashboardService struct {
	goldFile string
	cache    *TTLCache[string, *dataset.Dataset]
	loads    singleflight.Group
	load     LoaderFunc
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewDashboardService creates the service reading cfg's gold file
func NewDashboardService(cfg *config.Config, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	return NewDashboardServiceWithLoader(cfg.GetPaths().GoldFile, cfg.Cache.TTL, dataset.Load, metrics, logger)
}

// NewDashboardServiceWithLoader creates the service with a custom loader
func NewDashboardServiceWithLoader(goldFile string, ttl time.Duration, load LoaderFunc, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = config.DefaultCacheTTL
	}

	logger.Info("DashboardService initialized",
		slog.String("gold_file", goldFile),
		slog.Duration("cache_ttl", ttl))

	return &DashboardService{
		goldFile: goldFile,
		cache:    NewTTLCache[string, *dataset.Dataset](ttl),
		load:     load,
		metrics:  metrics,
		logger:   logger,
	}
}

// Dataset returns the cached gold dataset, reading the file again once the
// cache entry has expired so that a new ETL run is picked up.
func (s *DashboardService) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	if ds, ok := s.cache.Get(datasetCacheKey); ok {
		infrastructure.RecordCacheLookup(ctx, s.metrics, true)
		return ds, nil
	}
	infrastructure.RecordCacheLookup(ctx, s.metrics, false)

	v, err, _ := s.loads.Do(datasetCacheKey, func() (any, error) {
		start := time.Now()
		ds, err := s.load(s.goldFile)
		infrastructure.RecordDatasetLoad(ctx, s.metrics, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		s.cache.Set(datasetCacheKey, ds)

		s.logger.InfoContext(ctx, "gold dataset loaded",
			slog.String("path", s.goldFile),
			slog.Int("arrondissements", ds.Len()),
			slog.Int("columns", len(ds.Columns)),
			slog.Duration("duration", time.Since(start)))
		return ds, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load gold dataset",
			slog.String("path", s.goldFile),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrDatasetUnavailable, err)
	}
	return v.(*dataset.Dataset), nil
}

// Invalidate forces the next access to read the gold file.
func (s *DashboardService) Invalidate() {
	s.cache.Delete(datasetCacheKey)
}

// CacheStats returns the dataset cache statistics.
func (s *DashboardService) CacheStats() CacheStats {
	return s.cache.Stats()
}

// GoldFile returns the path of the gold table.
func (s *DashboardService) GoldFile() string {
	return s.goldFile
}

// Arrondissement returns the gold row of arrondissement n.
func (s *DashboardService) Arrondissement(ctx context.Context, n int) (*dataset.Row, error) {
	return lookupRow(ctx, s, n)
}

// lookupRow validates n and fetches its row from p.
func lookupRow(ctx context.Context, p DatasetProvider, n int) (*dataset.Row, error) {
	if !dataset.ValidArrondissement(n) {
		return nil, InvalidArrondissement(n)
	}
	ds, err := p.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	row, ok := ds.Get(n)
	if !ok {
		return nil, arrondissementNotFound(n)
	}
	return row, nil
}

// ArrondissementSummary is the overview line of an arrondissement
type ArrondissementSummary struct {
	Arrondissement  int      `json:"arrondissement"`
	PrixM2          *int64   `json:"prix_m2_2024"`
	NbVentes        *int64   `json:"nb_ventes_2024"`
	NbStationsMetro *int64   `json:"nb_stations_metro"`
	QualiteAir      *string  `json:"qualite_air"`
	PrixM2Annee     *float64 `json:"prix_m2_annee,omitempty"`
}

// Filter restricts the arrondissement list on the median price per m² of
// Annee. Bounds are inclusive; nil bounds are ignored.
type Filter struct {
	PrixMin *float64 `json:"prix_min,omitempty"`
	PrixMax *float64 `json:"prix_max,omitempty"`
	Annee   int      `json:"annee"`
}

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool {
	return f.PrixMin != nil || f.PrixMax != nil
}

// ListSummaries returns the overview of every arrondissement matching f.
// When the price column of the year does not exist the bounds are ignored.
func (s *DashboardService) ListSummaries(ctx context.Context, f Filter) ([]ArrondissementSummary, error) {
	if f.Annee == 0 {
		f.Annee = dataset.DefaultYear
	}
	if !dataset.ValidYear(f.Annee) {
		return nil, InvalidYear("annee", f.Annee)
	}
	if f.PrixMin != nil && f.PrixMax != nil && *f.PrixMin > *f.PrixMax {
		return nil, NewValidationError("prix_min", *f.PrixMin, "prix_min doit être inférieur ou égal à prix_max")
	}

	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	col := dataset.PrixM2Col(f.Annee)
	filtering := f.Active() && ds.HasColumn(col)
	rows := ds.Filter(func(r *dataset.Row) bool {
		if !filtering {
			return true
		}
		v := r.Float(col)
		if v == nil {
			return false
		}
		if f.PrixMin != nil && *v < *f.PrixMin {
			return false
		}
		if f.PrixMax != nil && *v > *f.PrixMax {
			return false
		}
		return true
	})

	out := make([]ArrondissementSummary, 0, len(rows))
	for _, r := range rows {
		summary := ArrondissementSummary{
			Arrondissement:  r.Arrondissement,
			PrixM2:          r.Int(dataset.PrixM2Col(dataset.DefaultYear)),
			NbVentes:        r.Int(dataset.NbVentesCol(dataset.DefaultYear)),
			NbStationsMetro: r.Int(dataset.ColNbStationsMetro),
			QualiteAir:      r.String(dataset.ColQualiteAir),
		}
		if f.Annee != dataset.DefaultYear {
			summary.PrixM2Annee = r.Float(col)
		}
		out = append(out, summary)
	}
	return out, nil
}

// StatsSummary describes the loaded gold table
type StatsSummary struct {
	NbArrondissements int      `json:"nb_arrondissements"`
	Colonnes          int      `json:"colonnes"`
	Annees            []int    `json:"annees_disponibles"`
	PrixM2Moyen2024   *float64 `json:"prix_m2_moyen_2024"`
	PrixM2Min2024     *float64 `json:"prix_m2_min_2024"`
	PrixM2Max2024     *float64 `json:"prix_m2_max_2024"`
	ChargeLe          string   `json:"charge_le"`
}

// StatsSummary returns global figures of the gold table.
func (s *DashboardService) StatsSummary(ctx context.Context) (*StatsSummary, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	summary := &StatsSummary{
		NbArrondissements: ds.Len(),
		Colonnes:          len(ds.Columns),
		Annees:            dataset.Years(),
		ChargeLe:          ds.LoadedAt.Format(time.RFC3339),
	}
	if desc := analytics.Describe(ds.Values(dataset.PrixM2Col(dataset.DefaultYear))); desc != nil {
		mean := analytics.Round(desc.Mean, 1)
		summary.PrixM2Moyen2024 = &mean
		summary.PrixM2Min2024 = &desc.Min
		summary.PrixM2Max2024 = &desc.Max
	}
	return summary, nil
}

// ColumnNames returns the gold table columns in file order.
func (s *DashboardService) ColumnNames(ctx context.Context) ([]string, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return ds.Columns, nil
}

// Demographics is the census block of an arrondissement
type Demographics struct {
	Arrondissement   int      `json:"arrondissement"`
	Population2018   *int64   `json:"population_2018"`
	NbMenages2018    *int64   `json:"nb_menages_2018"`
	NbLogements2018  *int64   `json:"nb_logements_2018"`
	PrixM2Stats2020  *float64 `json:"prix_m2_stats_2020"`
	PopulationTotale *int64   `json:"population_totale"`
	SuperficieKm2    *float64 `json:"superficie_km2"`
	Densite          *float64 `json:"densite_pop_km2"`
	RevenuMedian     *float64 `json:"revenu_median"`
}

// Demographics returns the census data of arrondissement n.
func (s *DashboardService) Demographics(ctx context.Context, n int) (*Demographics, error) {
	row, err := s.Arrondissement(ctx, n)
	if err != nil {
		return nil, err
	}
	return &Demographics{
		Arrondissement:   n,
		Population2018:   row.Int(dataset.ColPopulation2018),
		NbMenages2018:    row.Int(dataset.ColMenages2018),
		NbLogements2018:  row.Int(dataset.ColLogements2018),
		PrixM2Stats2020:  row.Float(dataset.ColPrixM2Stats),
		PopulationTotale: row.Int(dataset.ColPopulationTotale),
		SuperficieKm2:    row.Float(dataset.ColSuperficieKm2),
		Densite:          row.Float(dataset.ColDensite),
		RevenuMedian:     row.Float(dataset.ColRevenuMedian),
	}, nil
}

// DataHealth is the dataset status reported by /api/health
type DataHealth struct {
	Status            string `json:"status"`
	DataLoaded        bool   `json:"data_loaded"`
	NbArrondissements int    `json:"nb_arrondissements"`
}

// Health reports whether the gold dataset can be served.
func (s *DashboardService) Health(ctx context.Context) (*DataHealth, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return &DataHealth{Status: StatusUnhealthy}, err
	}
	return &DataHealth{Status: StatusHealthy, DataLoaded: true, NbArrondissements: ds.Len()}, nil
}
