package exporter

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parisdash/internal/config"
)

func setupTestEnv(t *testing.T) (*CSVWriter, *config.Paths) {
	t.Helper()
	paths := config.NewPaths(t.TempDir(), "", "", "", "")
	return NewCSVWriter(paths), paths
}

func readBack(t *testing.T, path string) (string, [][]string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(raw)
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(content, string(utf8BOM))))
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	return content, records
}

func TestWriteTable(t *testing.T) {
	w, paths := setupTestEnv(t)

	headers := []string{"Arrondissement", "qualite_air"}
	records := [][]string{{"1", "Bonne"}, {"2", "Médiocre; à surveiller"}}
	require.NoError(t, w.WriteTable("air.csv", headers, records))

	content, got := readBack(t, paths.SilverPath("air.csv"))
	assert.True(t, strings.HasPrefix(content, string(utf8BOM)), "BOM expected")
	assert.Equal(t, append([][]string{headers}, records...), got)
}

func TestWriteTableReplacesFile(t *testing.T) {
	w, paths := setupTestEnv(t)

	require.NoError(t, w.WriteTable("t.csv", []string{"a"}, [][]string{{"1"}, {"2"}}))
	require.NoError(t, w.WriteTable("t.csv", []string{"a"}, [][]string{{"3"}}))

	_, got := readBack(t, paths.SilverPath("t.csv"))
	assert.Equal(t, [][]string{{"a"}, {"3"}}, got)
}

func TestResolvePath(t *testing.T) {
	w, paths := setupTestEnv(t)
	abs := filepath.Join(t.TempDir(), "x.csv")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"default silver", "x.csv", paths.SilverPath("x.csv")},
		{"explicit silver", "silver/x.csv", paths.SilverPath("x.csv")},
		{"gold", "gold/x.csv", paths.GoldPath("x.csv")},
		{"bronze", "bronze/x.csv", paths.BronzePath("x.csv")},
		{"absolute", abs, abs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Path(tt.in))
		})
	}
}

func TestPathRelativeDataDir(t *testing.T) {
	paths := config.NewPaths("data", "", "", "", "")
	w := NewCSVWriter(paths)

	assert.Equal(t, paths.GoldFile, w.Path(paths.GoldFile))
	assert.Equal(t, filepath.Join("data", "silver", "x.csv"), w.Path("x.csv"))
	assert.Equal(t, filepath.Join("data", "gold", "y.csv"), w.Path("gold/y.csv"))
}

func TestWriteTableLeavesNoTempFiles(t *testing.T) {
	w, paths := setupTestEnv(t)

	require.NoError(t, w.WriteTable("gold/g.csv", []string{"Arrondissement"}, [][]string{{"1"}}))

	entries, err := os.ReadDir(paths.GoldDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "g.csv", entries[0].Name())

	raw, err := os.ReadFile(paths.GoldPath("g.csv"))
	require.NoError(t, err)
	assert.Equal(t, string(utf8BOM)+"Arrondissement\n1\n", string(raw))
}

func TestFormat(t *testing.T) {
	v := 12.5
	whole := 8000.0
	n := int64(42)

	assert.Equal(t, "12.5", FormatFloat(v))
	assert.Equal(t, "8000", FormatFloat(whole))
	assert.Equal(t, "", FormatOptionalFloat(nil))
	assert.Equal(t, "12.5", FormatOptionalFloat(&v))
	assert.Equal(t, "42", FormatOptionalInt(&n))
	assert.Equal(t, "", FormatOptionalInt(nil))

	nan := math.NaN()
	assert.Equal(t, "", FormatOptionalFloat(&nan))
}
