package etl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func socialFixture() *Table {
	raw := NewTable([]string{"Code Commune", "Nom Commune", "Taux de logements sociaux (%)"})
	raw.Append([]string{"92012", "Boulogne-Billancourt", "12"})
	raw.Append([]string{"75113", "Paris 13e Arrondissement", "38,1"})
	raw.Append([]string{"75056", "Paris", "21,4"})
	return raw
}

func TestBuildSocialHousing(t *testing.T) {
	out, err := BuildSocialHousing(socialFixture())
	require.NoError(t, err)

	assert.Equal(t, SocialHousingHeader, out.Header)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "75056", out.Value(out.Rows[0], "code_commune"))
	assert.Equal(t, "21.4", out.Value(out.Rows[0], "taux_logements_sociaux"))
	assert.Equal(t, "75113", out.Value(out.Rows[1], "code_commune"))
}

func TestBuildSocialHousingWithoutParis(t *testing.T) {
	raw := NewTable([]string{"Code Commune", "Nom Commune", "Taux de logements sociaux (%)"})
	raw.Append([]string{"92012", "Boulogne-Billancourt", "12"})

	_, err := BuildSocialHousing(raw)
	assert.Error(t, err)
}

func TestSocialHousingRates(t *testing.T) {
	out, err := BuildSocialHousing(socialFixture())
	require.NoError(t, err)

	rates := SocialHousingRates(out)
	require.Len(t, rates, 20)
	assert.Equal(t, 38.1, rates[13])
	assert.Equal(t, 21.4, rates[1])
	assert.Equal(t, 21.4, rates[20])
}

func TestReadSocialHousing(t *testing.T) {
	content, err := charmap.CodePage437.NewEncoder().String(
		"Code Commune;Nom Commune;Taux de logements sociaux (%)\n75056;╫LE;21,4\n")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "social.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tbl, err := ReadSocialHousing(path)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "ÎLE", tbl.Value(tbl.Rows[0], "Nom Commune"))
}
