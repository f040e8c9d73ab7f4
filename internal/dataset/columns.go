package dataset

import "fmt"

// Domain ranges of the gold table.
const (
	MinArrondissement = 1
	MaxArrondissement = 20
	FirstYear         = 2020
	LastYear          = 2025
	DefaultYear       = 2024

	// Reference years of the long-term evolution columns.
	EvolutionStartYear = 2020
	EvolutionEndYear   = 2024
)

// Fixed column names of the gold table.
const (
	ColArrondissement        = "Arrondissement"
	ColEvolutionPrixGlobal   = "evolution_prix_2020_2024_pct"
	ColEvolutionPrixM2Global = "evolution_prix_m2_2020_2024_pct"
	ColTendancePrixM2        = "tendance_prix_m2"
	ColEvolutionAnnuelle     = "evolution_annuelle_moyenne_pct"
	ColVolatilitePrixM2      = "volatilite_prix_m2"

	ColNbAppartements2024 = "nb_appartements_2024"
	ColNbMaisons2024      = "nb_maisons_2024"
	ColPctAppartements    = "pct_appartements"
	ColNbPiecesMoyen      = "nb_pieces_moyen"
	ColEstimationSocial   = "estimation_logement_social_pct"
	ColNbSociauxAPUR      = "nb_logements_sociaux_apur"
	ColPartSociauxAPUR    = "part_logements_sociaux_apur_pct"

	ColNbStationsMetro = "nb_stations_metro"
	ColTraficMetro     = "trafic_total_metro"
	ColNbLignesMetro   = "nb_lignes_metro"
	ColNbLignesRER     = "nb_lignes_rer"
	ColLignesMetro     = "lignes_metro"
	ColLignesRER       = "lignes_rer"

	ColNO2            = "no2_moyen"
	ColPM10           = "pm10_moyen"
	ColO3             = "o3_moyen"
	ColQualiteAir     = "qualite_air_dominante"
	ColPopulation2018 = "population_2018"
	ColMenages2018    = "nb_menages_2018"
	ColLogements2018  = "nb_logements_2018"
	ColPrixM2Stats    = "prix_m2_stats_2020"

	ColPopulationTotale = "population_totale"
	ColSuperficieKm2    = "superficie_km2"
	ColDensite          = "densite_pop_km2"
	ColRevenuMedian     = "revenu_median"
)

// Price metrics
const (
	TypePrix   = "prix"
	TypePrixM2 = "prix_m2"
)

// PropertyKinds are the DVF local types, in column order.
var PropertyKinds = []string{
	"appartement",
	"maison",
	"dependance",
	"local_industriel_commercial_ou_assimile",
}

// RoomBuckets are the apartment size classes, in column order.
var RoomBuckets = []string{"T1", "T2", "T3", "T4", "T5plus"}

// Years returns the covered years in ascending order.
func Years() []int {
	years := make([]int, 0, LastYear-FirstYear+1)
	for y := FirstYear; y <= LastYear; y++ {
		years = append(years, y)
	}
	return years
}

// ValidArrondissement reports whether n is one of the 20 Paris districts.
func ValidArrondissement(n int) bool {
	return n >= MinArrondissement && n <= MaxArrondissement
}

// ValidYear reports whether year is covered by the gold table.
func ValidYear(year int) bool {
	return year >= FirstYear && year <= LastYear
}

// Per-year column names.
func NbVentesCol(year int) string     { return fmt.Sprintf("nb_ventes_%d", year) }
func PrixCol(year int) string         { return fmt.Sprintf("prix_median_%d", year) }
func PrixM2Col(year int) string       { return fmt.Sprintf("prix_m2_median_%d", year) }
func TypeDominantCol(year int) string { return fmt.Sprintf("type_dominant_%d", year) }

// PriceCol returns the median column of the metric ("prix" or "prix_m2") for year.
func PriceCol(metric string, year int) string {
	if metric == TypePrix {
		return PrixCol(year)
	}
	return PrixM2Col(year)
}

// EvolutionCol names a percentage change column, e.g. evolution_prix_m2_2020_2024_pct.
// kind is "prix", "prix_m2" or "volume".
func EvolutionCol(kind string, from, to int) string {
	return fmt.Sprintf("evolution_%s_%d_%d_pct", kind, from, to)
}

// KindCountCol names the per-year count of a property kind, e.g. nb_maison_2023.
func KindCountCol(kind string, year int) string {
	return fmt.Sprintf("nb_%s_%d", kind, year)
}

// KindPctCol names the per-year share of a property kind, e.g. pct_maison_2023.
func KindPctCol(kind string, year int) string {
	return fmt.Sprintf("pct_%s_%d", kind, year)
}

// RoomCountCol names the per-year count of a room bucket, e.g. nb_T1_2023.
func RoomCountCol(bucket string, year int) string {
	return fmt.Sprintf("nb_%s_%d", bucket, year)
}

// RoomPctCol names the per-year share of a room bucket, e.g. pct_T1_2023.
func RoomPctCol(bucket string, year int) string {
	return fmt.Sprintf("pct_%s_%d", bucket, year)
}
