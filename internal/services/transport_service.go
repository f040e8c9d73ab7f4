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

// Ranking criteria of the transit classement
var TransportCriteria = []string{
	dataset.ColNbLignesMetro,
	dataset.ColTraficMetro,
	dataset.ColNbStationsMetro,
	dataset.ColNbLignesRER,
}

// TransportService answers the transit endpoints
type TransportService struct {
	data   DatasetProvider
	logger *slog.Logger
}

// NewTransportService creates a transit service over data
func NewTransportService(data DatasetProvider, logger *slog.Logger) *TransportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransportService{data: data, logger: logger}
}

// Metro describes the metro coverage of an arrondissement
type Metro struct {
	NbStations  *int64   `json:"nb_stations"`
	TraficTotal *int64   `json:"trafic_total"`
	NbLignes    *int64   `json:"nb_lignes"`
	Lignes      []string `json:"lignes"`
}

// RER describes the RER coverage of an arrondissement
type RER struct {
	NbLignes *int64   `json:"nb_lignes"`
	Lignes   []string `json:"lignes"`
}

// Transport groups metro and RER
type Transport struct {
	Arrondissement int   `json:"arrondissement"`
	Metro          Metro `json:"metro"`
	RER            RER   `json:"rer"`
}

// MetroDetail is the metro block of one arrondissement
type MetroDetail struct {
	Arrondissement int `json:"arrondissement"`
	Metro
}

// RERDetail is the RER block of one arrondissement
type RERDetail struct {
	Arrondissement int `json:"arrondissement"`
	RER
}

func metro(row *dataset.Row) Metro {
	return Metro{
		NbStations:  row.Int(dataset.ColNbStationsMetro),
		TraficTotal: row.Int(dataset.ColTraficMetro),
		NbLignes:    row.Int(dataset.ColNbLignesMetro),
		Lignes:      analytics.SortLines(row.Lines(dataset.ColLignesMetro)),
	}
}

func rer(row *dataset.Row) RER {
	return RER{
		NbLignes: row.Int(dataset.ColNbLignesRER),
		Lignes:   analytics.SortLines(row.Lines(dataset.ColLignesRER)),
	}
}

// Detail returns the transit coverage of n.
func (s *TransportService) Detail(ctx context.Context, n int) (*Transport, error) {
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}
	return &Transport{Arrondissement: n, Metro: metro(row), RER: rer(row)}, nil
}

// Metro returns the metro coverage of n.
func (s *TransportService) Metro(ctx context.Context, n int) (*MetroDetail, error) {
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}
	return &MetroDetail{Arrondissement: n, Metro: metro(row)}, nil
}

// RER returns the RER coverage of n.
func (s *TransportService) RER(ctx context.Context, n int) (*RERDetail, error) {
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}
	return &RERDetail{Arrondissement: n, RER: rer(row)}, nil
}

// Classement is a ranking on one column
type Classement struct {
	Critere    string                 `json:"critere"`
	Classement []ValeurArrondissement `json:"classement"`
}

// Classement ranks the arrondissements on criterion, highest first.
// Arrondissements without a value are left out.
func (s *TransportService) Classement(ctx context.Context, criterion string) (*Classement, error) {
	if !contains(TransportCriteria, criterion) {
		return nil, NewValidationError("critere", criterion,
			fmt.Sprintf("Critère invalide : %s. Doit être parmi [%s]", criterion, strings.Join(TransportCriteria, ", ")))
	}
	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return &Classement{Critere: criterion, Classement: ranking(ds, criterion, true)}, nil
}

// ScoreTransport is the accessibility score of an arrondissement
type ScoreTransport struct {
	Arrondissement   int    `json:"arrondissement"`
	Score            int    `json:"score"`
	Classification   string `json:"classification"`
	NbStations       int64  `json:"nb_stations"`
	NbLignes         int    `json:"nb_lignes"`
	TraficParStation *int64 `json:"trafic_par_station"`
}

// Score computes the accessibility score of n from its station count and
// the number of distinct metro and RER lines.
func (s *TransportService) Score(ctx context.Context, n int) (*ScoreTransport, error) {
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}

	stations := row.IntOr(dataset.ColNbStationsMetro, 0)
	lines := int(row.IntOr(dataset.ColNbLignesMetro, 0) + row.IntOr(dataset.ColNbLignesRER, 0))
	score := analytics.AccessibilityScore(int(stations), lines)

	return &ScoreTransport{
		Arrondissement:   n,
		Score:            score,
		Classification:   analytics.ClassifyAccessibility(score),
		NbStations:       stations,
		NbLignes:         lines,
		TraficParStation: analytics.TrafficPerStation(row.IntOr(dataset.ColTraficMetro, 0), int(stations)),
	}, nil
}

// ComparaisonTransport compares the accessibility of two arrondissements
type ComparaisonTransport struct {
	Arrondissement1 ScoreTransport `json:"arrondissement_1"`
	Arrondissement2 ScoreTransport `json:"arrondissement_2"`
	Conclusion      string         `json:"conclusion"`
}

// Comparaison scores a and b and tells which one is better served.
func (s *TransportService) Comparaison(ctx context.Context, a, b int) (*ComparaisonTransport, error) {
	first, err := s.Score(ctx, a)
	if err != nil {
		return nil, err
	}
	second, err := s.Score(ctx, b)
	if err != nil {
		return nil, err
	}
	return &ComparaisonTransport{
		Arrondissement1: *first,
		Arrondissement2: *second,
		Conclusion:      analytics.CompareAccessibility(first.Score, second.Score),
	}, nil
}

// ranking returns the non-null values of col sorted by value.
func ranking(ds *dataset.Dataset, col string, desc bool) []ValeurArrondissement {
	out := make([]ValeurArrondissement, 0, ds.Len())
	for _, p := range ds.Column(col) {
		if p.Value == nil {
			continue
		}
		out = append(out, ValeurArrondissement{Arrondissement: p.Arrondissement, Valeur: p.Value})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return *out[i].Valeur > *out[j].Valeur
		}
		return *out[i].Valeur < *out[j].Valeur
	})
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
