package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parisdash/internal/analytics"
	"parisdash/internal/dataset"
)

var salesHeader = []string{
	"id_mutation", "nature_mutation", "valeur_fonciere", "code_postal", "nom_commune",
	"code_commune", "type_local", "surface_reelle_bati", "nombre_pieces_principales",
}

func salesTable(rows ...[]string) *Table {
	t := NewTable(salesHeader)
	for _, row := range rows {
		t.Append(row)
	}
	return t
}

// goldFixture prices a 40 m² apartment of the 1st at 10 000, 11 000,
// 11 000, 11 000 and 12 000 €/m² from 2020 to 2024
func goldFixture() GoldInputs {
	in := GoldInputs{Sales: map[int]*Table{}, Lots: map[int]*Table{}}
	in.Sales[2020] = salesTable([]string{"a", "Vente", "400000", "75001", "", "75101", "Appartement", "40", "2"})
	in.Sales[2021] = salesTable([]string{"b", "Vente", "440000", "75001", "", "75101", "Appartement", "40", "2"})
	in.Sales[2022] = salesTable([]string{"c", "Vente", "440000", "75001", "", "75101", "Appartement", "40", "2"})
	in.Sales[2023] = salesTable([]string{"d", "Vente", "440000", "75001", "", "75101", "Appartement", "", "2"})
	lots := NewTable(append([]string(nil), LotsHeader...))
	lots.Append([]string{"d", "1", "40"})
	lots.Append([]string{"d", "2", "15"})
	in.Lots[2023] = lots
	in.Sales[2024] = salesTable(
		[]string{"e", "Vente", "480000", "75001", "", "75101", "Appartement", "40", "2"},
		[]string{"f", "Vente", "5000", "75001", "", "75101", "Dépendance", "", ""},
		[]string{"g", "Vente", "900000", "", "Paris 2e Arrondissement", "", "Maison", "100", "4"},
		[]string{"h", "Echange", "300000", "", "", "75103", "Appartement", "50", "3"},
	)

	in.Transit = NewTable(append([]string(nil), TransitHeader...))
	in.Transit.Append([]string{"1", "2", "1500", "3", "1", "1, 7, 14", "A", "1, 7, A, 14"})

	in.Air = NewTable([]string{"date", "no2", "pm10", "o3", "ninsee", "arrondissement_nom", "qualite_air"})
	in.Air.Append([]string{"2023-01-01", "20", "10", "30", "75101", "Paris 1er", "Bonne"})
	in.Air.Append([]string{"2023-01-02", "30", "20", "40", "75101", "Paris 1er", "Moyenne"})
	in.Air.Append([]string{"2023-01-03", "25", "15", "35", "75101", "Paris 1er", "Bonne"})

	in.Stats = NewTable([]string{"anneemut", "nom_commune", "codgeo_2020", "POP_2018", "Nbre-menages_2018", "Logement_2018", "vfm2_ventea"})
	in.Stats.Append([]string{"2019", "PARIS 1ER", "75101", "1", "1", "1", "1"})
	in.Stats.Append([]string{"2020", "PARIS 1ER", "75101", "16266.0", "9000", "10000", "12500.7"})

	in.Demographics = NewTable(append([]string(nil), DemographicsHeader...))
	in.Demographics.Append([]string{"75101", "16000", "1.824613", "35000", "8769"})

	in.Social = NewTable(append([]string(nil), SocialHousingHeader...))
	in.Social.Append([]string{"75056", "Paris", "75", "", "", "", "20", "", "", "", ""})
	return in
}

func goldRow(t *testing.T, gold *Table, n int) map[string]string {
	t.Helper()
	require.Equal(t, 20, gold.Len())
	row := gold.Rows[n-1]
	out := make(map[string]string, len(gold.Header))
	for i, col := range gold.Header {
		out[col] = row[i]
	}
	return out
}

func TestBuildGoldPrices(t *testing.T) {
	gold := BuildGold(goldFixture())
	first := goldRow(t, gold, 1)

	assert.Equal(t, "1", first["Arrondissement"])
	assert.Equal(t, "1", first["nb_ventes_2020"])
	assert.Equal(t, "400000", first["prix_median_2020"])
	assert.Equal(t, "10000", first["prix_m2_median_2020"])
	assert.Equal(t, "11000", first["prix_m2_median_2023"], "lot surface replaces a missing built surface")

	assert.Equal(t, "2", first["nb_ventes_2024"])
	assert.Equal(t, "480000", first["prix_median_2024"], "prices outside the bounds are ignored")
	assert.Equal(t, "12000", first["prix_m2_median_2024"])

	second := goldRow(t, gold, 2)
	assert.Equal(t, "1", second["nb_ventes_2024"])
	assert.Equal(t, "900000", second["prix_median_2024"])
	assert.Equal(t, "", second["prix_m2_median_2024"], "only apartments are priced per m²")
	assert.Equal(t, "0", second["nb_ventes_2020"])

	third := goldRow(t, gold, 3)
	assert.Equal(t, "0", third["nb_ventes_2024"], "only sales are counted")
	assert.Equal(t, "", third["prix_median_2024"])

	assert.NotContains(t, gold.Header, "nb_ventes_2025", "a missing year leaves its columns out")
}

func TestBuildGoldEvolutions(t *testing.T) {
	gold := BuildGold(goldFixture())
	first := goldRow(t, gold, 1)

	assert.Equal(t, "20", first["evolution_prix_2020_2024_pct"])
	assert.Equal(t, "20", first["evolution_prix_m2_2020_2024_pct"])
	assert.Equal(t, "10", first["evolution_prix_2020_2021_pct"])
	assert.Equal(t, "0", first["evolution_prix_m2_2021_2022_pct"])
	assert.Equal(t, "100", first["evolution_volume_2023_2024_pct"])
	assert.Equal(t, "", first["evolution_prix_2024_2025_pct"])

	assert.Equal(t, analytics.TrendModerateRise, first["tendance_prix_m2"])
	assert.Equal(t, "4.8", first["evolution_annuelle_moyenne_pct"])
	assert.Equal(t, "4.8", first["volatilite_prix_m2"])

	second := goldRow(t, gold, 2)
	assert.Equal(t, analytics.InsufficientData, second["tendance_prix_m2"])
	assert.Equal(t, "", second["evolution_annuelle_moyenne_pct"])
	assert.Equal(t, "", second["evolution_volume_2023_2024_pct"], "no sales in 2023")
}

func TestBuildGoldTypology(t *testing.T) {
	gold := BuildGold(goldFixture())
	first := goldRow(t, gold, 1)

	assert.Equal(t, "1", first["nb_appartements_2024"])
	assert.Equal(t, "0", first["nb_maisons_2024"])
	assert.Equal(t, "100", first["pct_appartements"])
	assert.Equal(t, "2", first["nb_pieces_moyen"])

	assert.Equal(t, "1", first["nb_appartement_2024"])
	assert.Equal(t, "1", first["nb_dependance_2024"])
	assert.Equal(t, "50", first["pct_dependance_2024"])
	assert.Equal(t, "0", first["nb_maison_2024"])
	assert.Equal(t, "appartement", first["type_dominant_2024"])
	assert.Equal(t, "1", first["nb_T2_2024"])
	assert.Equal(t, "100", first["pct_T2_2024"])
	assert.Equal(t, "0", first["nb_T5plus_2024"])

	third := goldRow(t, gold, 3)
	assert.Equal(t, "1", third["nb_appartements_2024"], "the 2024 typology counts every transaction")
	assert.Equal(t, "3", third["nb_pieces_moyen"])
	assert.Equal(t, analytics.TrendUndetermined, third["type_dominant_2024"])
	assert.Equal(t, "", third["pct_appartement_2024"])

	fourth := goldRow(t, gold, 4)
	assert.Equal(t, "", fourth["pct_appartements"])
	assert.Equal(t, "", fourth["nb_pieces_moyen"])
}

func TestBuildGoldContext(t *testing.T) {
	gold := BuildGold(goldFixture())
	first := goldRow(t, gold, 1)

	assert.Equal(t, analytics.MixLow, first["estimation_logement_social_pct"])
	assert.Equal(t, analytics.NotEstimated, goldRow(t, gold, 2)["estimation_logement_social_pct"])

	assert.Equal(t, "2", first["nb_stations_metro"])
	assert.Equal(t, "1500", first["trafic_total_metro"])
	assert.Equal(t, "1, 7, 14", first["lignes_metro"])

	assert.Equal(t, "25", first["no2_moyen"])
	assert.Equal(t, "15", first["pm10_moyen"])
	assert.Equal(t, "35", first["o3_moyen"])
	assert.Equal(t, "Bonne", first["qualite_air_dominante"])

	assert.Equal(t, "16266", first["population_2018"])
	assert.Equal(t, "10000", first["nb_logements_2018"])
	assert.Equal(t, "12500", first["prix_m2_stats_2020"])

	assert.Equal(t, "16000", first["population_totale"])
	assert.Equal(t, "8769", first["densite_pop_km2"])

	assert.Equal(t, "20", first["part_logements_sociaux_apur_pct"])
	assert.Equal(t, "2000", first["nb_logements_sociaux_apur"])

	second := goldRow(t, gold, 2)
	assert.Equal(t, "20", second["part_logements_sociaux_apur_pct"])
	assert.Equal(t, "", second["nb_logements_sociaux_apur"], "no housing stock to scale the rate")
	assert.Equal(t, "", second["nb_stations_metro"])
}

func TestBuildGoldColumnOrder(t *testing.T) {
	gold := BuildGold(goldFixture())

	assert.Equal(t, dataset.ColArrondissement, gold.Header[0])
	assert.Equal(t, []string{"nb_ventes_2020", "prix_median_2020", "prix_m2_median_2020"}, gold.Header[1:4])

	pos := func(col string) int {
		t.Helper()
		for i, h := range gold.Header {
			if h == col {
				return i
			}
		}
		t.Fatalf("column %s missing", col)
		return -1
	}
	assert.Less(t, pos("prix_m2_median_2024"), pos("evolution_prix_2020_2024_pct"))
	assert.Less(t, pos("evolution_volume_2024_2025_pct"), pos("tendance_prix_m2"))
	assert.Less(t, pos("nb_pieces_moyen"), pos("estimation_logement_social_pct"))
	assert.Less(t, pos("lignes_rer"), pos("no2_moyen"))
	assert.Less(t, pos("prix_m2_stats_2020"), pos("nb_appartement_2020"))
	assert.Less(t, pos("pct_T5plus_2024"), pos("population_totale"))
	assert.Equal(t, dataset.ColNbSociauxAPUR, gold.Header[len(gold.Header)-1])
}

func TestBuildGoldEmpty(t *testing.T) {
	gold := BuildGold(GoldInputs{})

	require.Equal(t, 20, gold.Len())
	assert.Equal(t, "20", gold.Rows[19][0])
	assert.NotContains(t, gold.Header, "nb_ventes_2024")
	assert.NotContains(t, gold.Header, dataset.ColEstimationSocial)
	assert.NotContains(t, gold.Header, dataset.ColNbStationsMetro)
}

func TestDistrictParsing(t *testing.T) {
	n, ok := DistrictFromName("Paris 8e Arrondissement")
	assert.True(t, ok)
	assert.Equal(t, 8, n)

	n, ok = DistrictFromName("Paris 1er")
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	_, ok = DistrictFromName("Paris 21e")
	assert.False(t, ok)

	n, ok = DistrictFromINSEE("75113.0")
	assert.True(t, ok)
	assert.Equal(t, 13, n)

	_, ok = DistrictFromINSEE("75056")
	assert.False(t, ok)

	tbl := salesTable([]string{"x", "Vente", "1", "75116", "", "", "", "", ""})
	n, ok = DVFArrondissement(tbl, tbl.Rows[0])
	assert.True(t, ok)
	assert.Equal(t, 16, n)
}
