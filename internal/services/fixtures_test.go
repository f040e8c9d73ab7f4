package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"parisdash/internal/dataset"
)

// goldFixture covers arrondissements 1, 2, 5 and 16 with a subset of the
// gold columns. Arrondissement 16 has no NO2 or O3 measure.
const goldFixture = "\ufeffArrondissement;nb_ventes_2024;prix_median_2020;prix_median_2024;prix_m2_median_2020;prix_m2_median_2024;" +
	"evolution_prix_m2_2020_2024_pct;tendance_prix_m2;evolution_annuelle_moyenne_pct;volatilite_prix_m2;" +
	"nb_appartements_2024;nb_maisons_2024;pct_appartements;nb_pieces_moyen;" +
	"nb_appartement_2024;pct_appartement_2024;nb_maison_2024;pct_maison_2024;type_dominant_2024;nb_T1_2024;pct_T1_2024;" +
	"nb_logements_sociaux_apur;part_logements_sociaux_apur_pct;estimation_logement_social_pct;" +
	"nb_stations_metro;trafic_total_metro;nb_lignes_metro;nb_lignes_rer;lignes_metro;lignes_rer;" +
	"no2_moyen;pm10_moyen;o3_moyen;qualite_air_dominante;nb_logements_2018;population_2018\n" +
	"1;95;500000;520000;12000;12500;4.2;Hausse modérée;1.1;2.3;90;1;94.7;2.8;90;94.7;1;1.1;appartement;20;22.2;1500;15.0;Faible;" +
	"10;30000000;6;2;1, 4, 7, 14;A, B;40.5;22.1;50.0;Bonne;10000;16000\n" +
	"2;120;;480000;11000;11800;;Stable;0.5;1.0;110;0;100.0;2.5;110;100.0;0;0.0;appartement;30;27.3;;;Moyenne;" +
	"3;9000000;3;0;3, 8;;38.5;20.0;55.0;Bonne;;\n" +
	"5;150;400000;450000;10000;9000;-10.0;Forte baisse;-2.6;3.0;140;2;98.6;2.6;140;98.6;2;1.4;appartement;35;25.0;2000;10.0;Moyenne;" +
	"0;0;0;1;;B;60.2;30.5;45.0;Moyenne;20000;60000\n" +
	"16;300;nan;900000;13000;14500;11.5;Forte hausse;2.8;1.5;280;20;93.3;3.4;280;93.3;20;6.7;appartement;25;8.9;;;Élevée;" +
	"15;25000000;5;1;2, 6, 9;C;;18.0;;Bonne;;\n"

// staticProvider serves a fixed dataset or error
type staticProvider struct {
	ds  *dataset.Dataset
	err error
}

func (p staticProvider) Dataset(context.Context) (*dataset.Dataset, error) {
	return p.ds, p.err
}

func fixtureDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(goldFixture))
	require.NoError(t, err)
	return ds
}

func fixtureProvider(t *testing.T) staticProvider {
	return staticProvider{ds: fixtureDataset(t)}
}

func writeGoldFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dashboard_arrondissements_paris.csv")
	require.NoError(t, os.WriteFile(path, []byte(goldFixture), 0o644))
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func f(v float64) *float64 { return &v }
