package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"parisdash/internal/analytics"
	"parisdash/internal/dataset"
)

// Sort orders accepted by the pollutant ranking
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// PollutionService answers the air quality endpoints
type PollutionService struct {
	data   DatasetProvider
	logger *slog.Logger
}

// NewPollutionService creates an air quality service over data
func NewPollutionService(data DatasetProvider, logger *slog.Logger) *PollutionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollutionService{data: data, logger: logger}
}

// QualiteAir is the air quality of an arrondissement
type QualiteAir struct {
	Arrondissement   int      `json:"arrondissement"`
	NO2Moyen         *float64 `json:"no2_moyen"`
	PM10Moyen        *float64 `json:"pm10_moyen"`
	O3Moyen          *float64 `json:"o3_moyen"`
	QualiteDominante *string  `json:"qualite_dominante"`
}

// Detail returns the pollutant means of n.
func (s *PollutionService) Detail(ctx context.Context, n int) (*QualiteAir, error) {
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}
	return &QualiteAir{
		Arrondissement:   n,
		NO2Moyen:         row.Float(dataset.ColNO2),
		PM10Moyen:        row.Float(dataset.ColPM10),
		O3Moyen:          row.Float(dataset.ColO3),
		QualiteDominante: row.String(dataset.ColQualiteAir),
	}, nil
}

// ClassementPolluant ranks the arrondissements on one pollutant
type ClassementPolluant struct {
	Polluant   string                 `json:"polluant"`
	Unite      string                 `json:"unite"`
	Ordre      string                 `json:"ordre"`
	Classement []ValeurArrondissement `json:"classement"`
}

func pollutantColumn(p string) string {
	return p + "_moyen"
}

// Classement ranks the arrondissements on pollutant p. Missing values are
// left out.
func (s *PollutionService) Classement(ctx context.Context, p, order string) (*ClassementPolluant, error) {
	if _, ok := analytics.ThresholdFor(p); !ok || p != strings.ToLower(p) {
		return nil, NewValidationError("polluant", p,
			fmt.Sprintf("Polluant invalide : %s. Doit être parmi [%s]", p, strings.Join(analytics.Pollutants, ", ")))
	}
	if order != OrderAsc && order != OrderDesc {
		return nil, NewValidationError("ordre", order, "L'ordre doit être 'asc' ou 'desc'")
	}

	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return &ClassementPolluant{
		Polluant:   p,
		Unite:      "µg/m³",
		Ordre:      order,
		Classement: ranking(ds, pollutantColumn(p), order == OrderDesc),
	}, nil
}

// StatistiquePolluant summarises one pollutant over Paris
type StatistiquePolluant struct {
	Moyenne           float64 `json:"moyenne"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	ArrondissementMin int     `json:"arrondissement_min"`
	ArrondissementMax int     `json:"arrondissement_max"`
}

// Statistiques returns the mean and extremes of each pollutant. Pollutants
// without any value are omitted.
func (s *PollutionService) Statistiques(ctx context.Context) (map[string]StatistiquePolluant, error) {
	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]StatistiquePolluant, len(analytics.Pollutants))
	for _, p := range analytics.Pollutants {
		ranked := ranking(ds, pollutantColumn(p), false)
		if len(ranked) == 0 {
			continue
		}
		values := make([]float64, 0, len(ranked))
		for _, r := range ranked {
			values = append(values, *r.Valeur)
		}
		lo, hi := ranked[0], ranked[len(ranked)-1]
		out[p] = StatistiquePolluant{
			Moyenne:           analytics.Round(analytics.Mean(values), 1),
			Min:               *lo.Valeur,
			Max:               *hi.Valeur,
			ArrondissementMin: lo.Arrondissement,
			ArrondissementMax: hi.Arrondissement,
		}
	}
	return out, nil
}

// DetailQualite lists the arrondissements sharing a quality level
type DetailQualite struct {
	Qualite         string `json:"qualite"`
	Arrondissements []int  `json:"arrondissements"`
}

// RepartitionQualite counts the arrondissements per dominant quality
type RepartitionQualite struct {
	Repartition map[string]int  `json:"repartition"`
	Details     []DetailQualite `json:"details"`
}

// Repartition groups the arrondissements by dominant air quality.
func (s *PollutionService) Repartition(ctx context.Context) (*RepartitionQualite, error) {
	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]int)
	var order []string
	for _, row := range ds.All() {
		q := row.String(dataset.ColQualiteAir)
		if q == nil || *q == "" {
			continue
		}
		if _, seen := groups[*q]; !seen {
			order = append(order, *q)
		}
		groups[*q] = append(groups[*q], row.Arrondissement)
	}

	out := &RepartitionQualite{
		Repartition: make(map[string]int, len(groups)),
		Details:     make([]DetailQualite, 0, len(groups)),
	}
	for _, q := range order {
		arrs := groups[q]
		sort.Ints(arrs)
		out.Repartition[q] = len(arrs)
		out.Details = append(out.Details, DetailQualite{Qualite: q, Arrondissements: arrs})
	}
	return out, nil
}

// IndiceQualite is the global air index of an arrondissement
type IndiceQualite struct {
	Arrondissement int `json:"arrondissement"`
	analytics.AirIndex
	Classes map[string]string `json:"classes"`
}

// Indice computes the global air index of n and the class of each pollutant.
func (s *PollutionService) Indice(ctx context.Context, n int) (*IndiceQualite, error) {
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}

	values := map[string]*float64{
		analytics.NO2:  row.Float(dataset.ColNO2),
		analytics.PM10: row.Float(dataset.ColPM10),
		analytics.O3:   row.Float(dataset.ColO3),
	}
	classes := make(map[string]string, len(values))
	for p, v := range values {
		if v != nil {
			classes[p] = analytics.ClassifyPollutant(p, *v)
		}
	}

	return &IndiceQualite{
		Arrondissement: n,
		AirIndex:       analytics.GlobalIndex(values[analytics.NO2], values[analytics.PM10], values[analytics.O3]),
		Classes:        classes,
	}, nil
}

// ComparaisonQualite compares the air of two arrondissements
type ComparaisonQualite struct {
	Arrondissement1 IndiceQualite `json:"arrondissement_1"`
	Arrondissement2 IndiceQualite `json:"arrondissement_2"`
	Conclusion      string        `json:"conclusion"`
}

// Comparaison computes the global index of a and b and tells which one is
// healthier. Without both indexes the conclusion is undetermined.
func (s *PollutionService) Comparaison(ctx context.Context, a, b int) (*ComparaisonQualite, error) {
	first, err := s.Indice(ctx, a)
	if err != nil {
		return nil, err
	}
	second, err := s.Indice(ctx, b)
	if err != nil {
		return nil, err
	}

	conclusion := analytics.TrendUndetermined
	if first.Index != nil && second.Index != nil {
		conclusion = analytics.CompareQuality(*first.Index, *second.Index)
	}
	return &ComparaisonQualite{
		Arrondissement1: *first,
		Arrondissement2: *second,
		Conclusion:      conclusion,
	}, nil
}
