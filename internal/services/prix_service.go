package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"parisdash/internal/analytics"
	"parisdash/internal/dataset"
)

// PrixService answers the price endpoints
type PrixService struct {
	data   DatasetProvider
	logger *slog.Logger
}

// NewPrixService creates a price service over data
func NewPrixService(data DatasetProvider, logger *slog.Logger) *PrixService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrixService{data: data, logger: logger}
}

// PrixM2 is the median price per m² of a year
type PrixM2 struct {
	Arrondissement int    `json:"arrondissement"`
	Annee          int    `json:"annee"`
	PrixM2Median   *int64 `json:"prix_m2_median"`
}

// PrixM2 returns the median price per m² of arrondissement n in year.
func (s *PrixService) PrixM2(ctx context.Context, n, year int) (*PrixM2, error) {
	if !dataset.ValidYear(year) {
		return nil, InvalidYear("annee", year)
	}
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}
	return &PrixM2{Arrondissement: n, Annee: year, PrixM2Median: row.Int(dataset.PrixM2Col(year))}, nil
}

// Vente is the median sale price and volume of a year
type Vente struct {
	Arrondissement int    `json:"arrondissement"`
	Annee          int    `json:"annee"`
	PrixMedian     *int64 `json:"prix_median"`
	NbVentes       *int64 `json:"nb_ventes"`
}

// Vente returns the median sale price and the number of sales of n in year.
func (s *PrixService) Vente(ctx context.Context, n, year int) (*Vente, error) {
	if !dataset.ValidYear(year) {
		return nil, InvalidYear("annee", year)
	}
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}
	return &Vente{
		Arrondissement: n,
		Annee:          year,
		PrixMedian:     row.Int(dataset.PrixCol(year)),
		NbVentes:       row.Int(dataset.NbVentesCol(year)),
	}, nil
}

// Periode bounds an evolution
type Periode struct {
	Debut int `json:"debut"`
	Fin   int `json:"fin"`
}

// EvolutionPrix is a price change between two years
type EvolutionPrix struct {
	Arrondissement int      `json:"arrondissement"`
	Periode        Periode  `json:"periode"`
	Type           string   `json:"type"`
	EvolutionPct   *float64 `json:"evolution_pct"`
	ValeurDebut    *int64   `json:"valeur_debut"`
	ValeurFin      *int64   `json:"valeur_fin"`
	Tendance       string   `json:"tendance"`
}

// ValidatePriceType checks a price metric parameter.
func ValidatePriceType(kind string) error {
	if kind != dataset.TypePrix && kind != dataset.TypePrixM2 {
		return NewValidationError("type", kind,
			fmt.Sprintf("Type invalide : %s. Doit être 'prix' ou 'prix_m2'", kind))
	}
	return nil
}

// Evolution returns the change of the kind metric between from and to. The
// stored evolution column is used when present, otherwise the change is
// computed from the two medians and rounded to two decimals.
func (s *PrixService) Evolution(ctx context.Context, n, from, to int, kind string) (*EvolutionPrix, error) {
	if from < dataset.FirstYear || from > dataset.LastYear-1 {
		return nil, NewValidationError("debut", from, fmt.Sprintf("Année de début invalide : %d", from))
	}
	if to < dataset.FirstYear+1 || to > dataset.LastYear {
		return nil, NewValidationError("fin", to, fmt.Sprintf("Année de fin invalide : %d", to))
	}
	if from >= to {
		return nil, NewValidationError("debut", from, "L'année de début doit être antérieure à l'année de fin")
	}
	if err := ValidatePriceType(kind); err != nil {
		return nil, err
	}

	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}

	start := row.Int(dataset.PriceCol(kind, from))
	end := row.Int(dataset.PriceCol(kind, to))
	evo := analytics.CalculateEvolution(toFloat(start), toFloat(end))
	pct := row.Float(dataset.EvolutionCol(kind, from, to))
	if pct == nil {
		pct = evo.Pct
	}

	tendance := evo.Trend
	if pct != nil {
		tendance = analytics.TrendLabel(*pct)
	}

	return &EvolutionPrix{
		Arrondissement: n,
		Periode:        Periode{Debut: from, Fin: to},
		Type:           kind,
		EvolutionPct:   pct,
		ValeurDebut:    start,
		ValeurFin:      end,
		Tendance:       tendance,
	}, nil
}

// Tendance is the market trend of an arrondissement
type Tendance struct {
	Arrondissement              int      `json:"arrondissement"`
	Tendance                    *string  `json:"tendance"`
	EvolutionAnnuelleMoyennePct *float64 `json:"evolution_annuelle_moyenne_pct"`
	Volatilite                  *float64 `json:"volatilite"`
}

// Tendance returns the precomputed trend of n.
func (s *PrixService) Tendance(ctx context.Context, n int) (*Tendance, error) {
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}
	return &Tendance{
		Arrondissement:              n,
		Tendance:                    row.String(dataset.ColTendancePrixM2),
		EvolutionAnnuelleMoyennePct: row.Float(dataset.ColEvolutionAnnuelle),
		Volatilite:                  row.Float(dataset.ColVolatilitePrixM2),
	}, nil
}

// PointAnnuel is the value of one year
type PointAnnuel struct {
	Annee  int    `json:"annee"`
	Valeur *int64 `json:"valeur"`
}

// Historique is a yearly price series
type Historique struct {
	Arrondissement int           `json:"arrondissement"`
	Type           string        `json:"type"`
	Historique     []PointAnnuel `json:"historique"`
}

// Historique returns every covered year of the kind metric for n.
func (s *PrixService) Historique(ctx context.Context, n int, kind string) (*Historique, error) {
	if err := ValidatePriceType(kind); err != nil {
		return nil, err
	}
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}

	points := make([]PointAnnuel, 0, dataset.LastYear-dataset.FirstYear+1)
	for _, y := range dataset.Years() {
		points = append(points, PointAnnuel{Annee: y, Valeur: row.Int(dataset.PriceCol(kind, y))})
	}
	return &Historique{Arrondissement: n, Type: kind, Historique: points}, nil
}

// ValeurArrondissement is one line of a ranking
type ValeurArrondissement struct {
	Arrondissement int      `json:"arrondissement"`
	Valeur         *float64 `json:"valeur"`
}

// Comparaison ranks several arrondissements on a price metric
type Comparaison struct {
	Annee       int                    `json:"annee"`
	Type        string                 `json:"type"`
	Comparaison []ValeurArrondissement `json:"comparaison"`
}

// ParseArrondissementList parses a comma separated list such as "1,2,3".
func ParseArrondissementList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, NewValidationError("arrondissements", raw, "Format invalide pour les arrondissements")
		}
		out = append(out, n)
	}
	for _, n := range out {
		if !dataset.ValidArrondissement(n) {
			return nil, NewValidationError("arrondissements", raw, "Un ou plusieurs arrondissements sont invalides")
		}
	}
	return out, nil
}

// Comparaison returns the metric of each requested arrondissement, highest
// first. Missing values sort as zero; unknown arrondissements are skipped.
func (s *PrixService) Comparaison(ctx context.Context, arrs []int, year int, kind string) (*Comparaison, error) {
	for _, n := range arrs {
		if !dataset.ValidArrondissement(n) {
			return nil, NewValidationError("arrondissements", n, "Un ou plusieurs arrondissements sont invalides")
		}
	}
	if !dataset.ValidYear(year) {
		return nil, InvalidYear("annee", year)
	}
	if err := ValidatePriceType(kind); err != nil {
		return nil, err
	}

	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	col := dataset.PriceCol(kind, year)
	out := make([]ValeurArrondissement, 0, len(arrs))
	for _, n := range arrs {
		row, ok := ds.Get(n)
		if !ok {
			continue
		}
		out = append(out, ValeurArrondissement{Arrondissement: n, Valeur: row.Float(col)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return valueOrZero(out[i].Valeur) > valueOrZero(out[j].Valeur)
	})

	return &Comparaison{Annee: year, Type: kind, Comparaison: out}, nil
}

// Classification places an arrondissement in the Paris price range
type Classification struct {
	Arrondissement int      `json:"arrondissement"`
	Annee          int      `json:"annee"`
	PrixM2Median   *float64 `json:"prix_m2_median"`
	Categorie      string   `json:"categorie"`
	RangPercentile *int     `json:"rang_percentile"`
}

// Classification buckets the price per m² of n in year and ranks it against
// the other arrondissements.
func (s *PrixService) Classification(ctx context.Context, n, year int) (*Classification, error) {
	if !dataset.ValidYear(year) {
		return nil, InvalidYear("annee", year)
	}
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}
	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	col := dataset.PrixM2Col(year)
	out := &Classification{Arrondissement: n, Annee: year, Categorie: analytics.TrendUndetermined}
	if v := row.Float(col); v != nil {
		out.PrixM2Median = v
		out.Categorie = analytics.ClassifyPrice(*v)
		rank := analytics.PercentileRank(ds.Values(col), *v)
		out.RangPercentile = &rank
	}
	return out, nil
}

// Anomalies lists the outlier prices of a year
type Anomalies struct {
	Annee     int                 `json:"annee"`
	Type      string              `json:"type"`
	Seuil     float64             `json:"seuil"`
	Moyenne   *float64            `json:"moyenne"`
	EcartType *float64            `json:"ecart_type"`
	Anomalies []analytics.Anomaly `json:"anomalies"`
}

// Anomalies returns the arrondissements whose metric lies more than
// threshold standard deviations away from the Paris mean.
func (s *PrixService) Anomalies(ctx context.Context, year int, kind string, threshold float64) (*Anomalies, error) {
	if !dataset.ValidYear(year) {
		return nil, InvalidYear("annee", year)
	}
	if err := ValidatePriceType(kind); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		return nil, NewValidationError("seuil", threshold, "Le seuil doit être strictement positif")
	}

	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	col := dataset.PriceCol(kind, year)
	values := make(map[int]float64)
	for _, p := range ds.Column(col) {
		if p.Value != nil {
			values[p.Arrondissement] = *p.Value
		}
	}

	out := &Anomalies{
		Annee:     year,
		Type:      kind,
		Seuil:     threshold,
		Anomalies: analytics.DetectAnomalies(values, threshold),
	}
	if desc := analytics.Describe(ds.Values(col)); desc != nil {
		mean, std := analytics.Round(desc.Mean, 1), analytics.Round(desc.Std, 1)
		out.Moyenne, out.EcartType = &mean, &std
	}

	s.logger.DebugContext(ctx, "price anomalies computed",
		slog.Int("annee", year),
		slog.String("type", kind),
		slog.Int("count", len(out.Anomalies)))
	return out, nil
}

func toFloat(v *int64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
