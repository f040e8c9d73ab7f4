package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dvfFixtureHeader = []string{
	"id_mutation", "date_mutation", "nature_mutation", "valeur_fonciere",
	"adresse_numero", "adresse_suffixe", "adresse_nom_voie",
	"code_postal", "code_commune", "ancien_code_commune", "type_local",
	"surface_reelle_bati", "lot1_numero", "lot1_surface_carrez",
	"lot2_numero", "lot2_surface_carrez", "longitude", "latitude",
}

func dvfFixture() *Table {
	t := NewTable(dvfFixtureHeader)
	t.Append([]string{"2024-1", "05/01/2024", "Vente", "350000", "12", "B", "RUE DE RIVOLI", "75001", "75101", "", "Appartement", "40", "3", "38,5", "", "", "2.34", "48.86"})
	t.Append([]string{"2024-1", "05/01/2024", "Vente", "350000", "12", "B", "RUE DE RIVOLI", "75001", "75101", "", "Appartement", "40", "3", "38,5", "", "", "2.34", "48.86"})
	t.Append([]string{"2024-2", "02/03/2024", "Vente", "0", "1", "", "RUE X", "75002", "75102", "", "Appartement", "20", "", "", "", "", "2.34", "48.86"})
	t.Append([]string{"2024-3", "2024-04-01", "Vente", "500 000,00", "5", "", "AV FOCH", "75116", "75116", "", "Appartement", "", "7", "60", "8", "12", "2.28", "48.87"})
	t.Append([]string{"2024-4", "2024-04-02", "Vente", "200000", "1", "", "RUE Y", "75001", "75101", "", "Appartement", "20", "", "", "", "", "2.60", "48.86"})
	return t
}

func TestCleanDVF(t *testing.T) {
	out := CleanDVF(dvfFixture())

	assert.False(t, out.Has("ancien_code_commune"), "empty legacy column is dropped")
	assert.Equal(t, "adresse_complete", out.Header[len(out.Header)-1])
	require.Equal(t, 2, out.Len(), "duplicate, zero value and out-of-Paris rows are dropped")

	first := out.Rows[0]
	assert.Equal(t, "2024-1", out.Value(first, "id_mutation"))
	assert.Equal(t, "2024-01-05", out.Value(first, "date_mutation"))
	assert.Equal(t, "38.5", out.Value(first, "lot1_surface_carrez"))
	assert.Equal(t, "12 B Rue De Rivoli", out.Value(first, "adresse_complete"))

	second := out.Rows[1]
	assert.Equal(t, "500000", out.Value(second, "valeur_fonciere"))
	assert.Equal(t, "5 Av Foch", out.Value(second, "adresse_complete"))
}

func TestCleanDVFPadsCodes(t *testing.T) {
	raw := NewTable([]string{"valeur_fonciere", "code_postal", "code_commune"})
	raw.Append([]string{"1000", "1000", "1001"})

	out := CleanDVF(raw)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "01000", out.Value(out.Rows[0], "code_postal"))
	assert.Equal(t, "01001", out.Value(out.Rows[0], "code_commune"))
}

func TestBuildLots(t *testing.T) {
	lots := BuildLots(dvfFixture())

	assert.Equal(t, LotsHeader, lots.Header)
	assert.Equal(t, [][]string{
		{"2024-1", "3", "38.5"},
		{"2024-1", "3", "38.5"},
		{"2024-3", "7", "60"},
		{"2024-3", "8", "12"},
	}, lots.Rows)
}
