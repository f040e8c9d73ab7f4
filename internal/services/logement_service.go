package services

import (
	"context"
	"log/slog"

	"parisdash/internal/analytics"
	"parisdash/internal/dataset"
)

// LogementService answers the housing endpoints
type LogementService struct {
	data   DatasetProvider
	logger *slog.Logger
}

// NewLogementService creates a housing service over data
func NewLogementService(data DatasetProvider, logger *slog.Logger) *LogementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogementService{data: data, logger: logger}
}

// APUR holds the social housing figures published by APUR
type APUR struct {
	NbLogementsSociaux *int64   `json:"nb_logements_sociaux"`
	PartPct            *float64 `json:"part_pct"`
}

// LogementsSociaux is the social housing block of an arrondissement
type LogementsSociaux struct {
	Arrondissement int     `json:"arrondissement"`
	APUR           APUR    `json:"apur"`
	Estimation     *string `json:"estimation"`
}

// Sociaux returns the social housing data of n.
func (s *LogementService) Sociaux(ctx context.Context, n int) (*LogementsSociaux, error) {
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}
	return &LogementsSociaux{
		Arrondissement: n,
		APUR:           apur(row),
		Estimation:     row.String(dataset.ColEstimationSocial),
	}, nil
}

func apur(row *dataset.Row) APUR {
	return APUR{
		NbLogementsSociaux: row.Int(dataset.ColNbSociauxAPUR),
		PartPct:            row.Float(dataset.ColPartSociauxAPUR),
	}
}

// Part is a count with its share
type Part struct {
	Nombre      *int64   `json:"nombre"`
	Pourcentage *float64 `json:"pourcentage"`
}

// Typologie is the split of sales by property kind
type Typologie struct {
	Arrondissement int             `json:"arrondissement"`
	Annee          int             `json:"annee"`
	Repartition    map[string]Part `json:"repartition"`
	TypeDominant   *string         `json:"type_dominant"`
}

// Typologie returns the property kinds sold in n during year. Kinds without
// any figure are left out.
func (s *LogementService) Typologie(ctx context.Context, n, year int) (*Typologie, error) {
	if !dataset.ValidYear(year) {
		return nil, InvalidYear("annee", year)
	}
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}

	repartition := make(map[string]Part, len(dataset.PropertyKinds))
	for _, kind := range dataset.PropertyKinds {
		part := Part{
			Nombre:      row.Int(dataset.KindCountCol(kind, year)),
			Pourcentage: row.Float(dataset.KindPctCol(kind, year)),
		}
		if part.Nombre == nil && part.Pourcentage == nil {
			continue
		}
		repartition[kind] = part
	}

	return &Typologie{
		Arrondissement: n,
		Annee:          year,
		Repartition:    repartition,
		TypeDominant:   row.String(dataset.TypeDominantCol(year)),
	}, nil
}

// Pieces is the split of sales by room count
type Pieces struct {
	Arrondissement int             `json:"arrondissement"`
	Annee          int             `json:"annee"`
	Repartition    map[string]Part `json:"repartition"`
}

// Pieces returns the T1..T5plus split of n during year. Missing shares are
// derived from the counts that are present.
func (s *LogementService) Pieces(ctx context.Context, n, year int) (*Pieces, error) {
	if !dataset.ValidYear(year) {
		return nil, InvalidYear("annee", year)
	}
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(dataset.RoomBuckets))
	for _, bucket := range dataset.RoomBuckets {
		if n := row.Int(dataset.RoomCountCol(bucket, year)); n != nil {
			counts[bucket] = int(*n)
		}
	}
	shares := analytics.RoomDistribution(counts)

	repartition := make(map[string]Part, len(dataset.RoomBuckets))
	for _, bucket := range dataset.RoomBuckets {
		pct := row.Float(dataset.RoomPctCol(bucket, year))
		if share, ok := shares[bucket]; ok && pct == nil {
			pct = &share
		}
		repartition[bucket] = Part{
			Nombre:      row.Int(dataset.RoomCountCol(bucket, year)),
			Pourcentage: pct,
		}
	}
	return &Pieces{Arrondissement: n, Annee: year, Repartition: repartition}, nil
}

// Synthese summarises the 2024 typology
type Synthese struct {
	Arrondissement  int      `json:"arrondissement"`
	NbAppartements  *int64   `json:"nb_appartements"`
	NbMaisons       *int64   `json:"nb_maisons"`
	PctAppartements *float64 `json:"pct_appartements"`
	NbPiecesMoyen   *float64 `json:"nb_pieces_moyen"`
}

func synthese(row *dataset.Row) Synthese {
	return Synthese{
		Arrondissement:  row.Arrondissement,
		NbAppartements:  row.Int(dataset.ColNbAppartements2024),
		NbMaisons:       row.Int(dataset.ColNbMaisons2024),
		PctAppartements: row.Float(dataset.ColPctAppartements),
		NbPiecesMoyen:   row.Float(dataset.ColNbPiecesMoyen),
	}
}

// Synthese returns the typology summary of n.
func (s *LogementService) Synthese(ctx context.Context, n int) (*Synthese, error) {
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}
	out := synthese(row)
	return &out, nil
}

// LogementArrondissement is one line of the all-arrondissements view
type LogementArrondissement struct {
	Synthese
	LogementsSociauxAPUR *int64  `json:"logements_sociaux_apur"`
	EstimationSocial     *string `json:"estimation_social"`
}

// TousLogements is the housing overview of Paris
type TousLogements struct {
	Annee           int                      `json:"annee"`
	Arrondissements []LogementArrondissement `json:"arrondissements"`
}

// Tous returns the housing summary of every arrondissement.
func (s *LogementService) Tous(ctx context.Context, year int) (*TousLogements, error) {
	if !dataset.ValidYear(year) {
		return nil, InvalidYear("annee", year)
	}
	ds, err := s.data.Dataset(ctx)
	if err != nil {
		return nil, err
	}

	out := &TousLogements{Annee: year, Arrondissements: make([]LogementArrondissement, 0, ds.Len())}
	for _, row := range ds.All() {
		out.Arrondissements = append(out.Arrondissements, LogementArrondissement{
			Synthese:             synthese(row),
			LogementsSociauxAPUR: row.Int(dataset.ColNbSociauxAPUR),
			EstimationSocial:     row.String(dataset.ColEstimationSocial),
		})
	}
	return out, nil
}

// Mixite is the social mix indicator of an arrondissement
type Mixite struct {
	Arrondissement        int      `json:"arrondissement"`
	IndiceMixite          *float64 `json:"indice_mixite"`
	Classification        string   `json:"classification"`
	SurfaceMoyenneEstimee *float64 `json:"surface_moyenne_estimee"`
}

// Mixite computes the social housing share of n against its 2018 dwelling
// stock. Without APUR counts the published share is used as is.
func (s *LogementService) Mixite(ctx context.Context, n int) (*Mixite, error) {
	row, err := lookupRow(ctx, s.data, n)
	if err != nil {
		return nil, err
	}

	out := &Mixite{Arrondissement: n, Classification: analytics.NotEstimated}

	social := row.Float(dataset.ColNbSociauxAPUR)
	total := row.Float(dataset.ColLogements2018)
	switch {
	case social != nil && total != nil:
		out.IndiceMixite = analytics.RoundPtr(analytics.MixIndex(*social, *total), 1)
	case row.Float(dataset.ColPartSociauxAPUR) != nil:
		out.IndiceMixite = analytics.RoundPtr(row.Float(dataset.ColPartSociauxAPUR), 1)
	}
	if out.IndiceMixite != nil {
		out.Classification = analytics.ClassifyMix(*out.IndiceMixite)
	}

	if rooms := row.Float(dataset.ColNbPiecesMoyen); rooms != nil {
		surface := analytics.Round(analytics.AverageSurface(*rooms), 1)
		out.SurfaceMoyenneEstimee = &surface
	}
	return out, nil
}
