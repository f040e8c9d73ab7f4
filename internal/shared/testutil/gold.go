package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// GoldTable is a gold CSV under construction
type GoldTable struct {
	Columns []string
	Rows    [][]string
}

// SampleGold returns a gold table with the 20 arrondissements and a few
// columns from each block. Prices grow with the arrondissement number so
// rankings are predictable.
func SampleGold() *GoldTable {
	g := &GoldTable{Columns: []string{
		"Arrondissement",
		"nb_ventes_2024", "prix_median_2024", "prix_m2_median_2020", "prix_m2_median_2024",
		"tendance_prix_m2", "nb_stations_metro", "nb_lignes_metro", "lignes_metro",
		"no2_moyen", "pm10_moyen", "o3_moyen", "qualite_air_dominante",
	}}
	for n := 1; n <= 20; n++ {
		g.Rows = append(g.Rows, []string{
			fmt.Sprint(n),
			fmt.Sprint(100 + n), fmt.Sprint(400000 + 10000*n), fmt.Sprint(9000 + 100*n), fmt.Sprint(9500 + 150*n),
			"Stable", fmt.Sprint(n % 7), fmt.Sprint(n%5 + 1), "1, 4",
			fmt.Sprintf("%.1f", 30+float64(n)), "20.0", "50.0", "Bonne",
		})
	}
	return g
}

// CSV renders the table as ';' separated UTF-8 with a BOM.
func (g *GoldTable) CSV() string {
	var b strings.Builder
	b.WriteString("\ufeff")
	b.WriteString(strings.Join(g.Columns, ";"))
	b.WriteByte('\n')
	for _, row := range g.Rows {
		b.WriteString(strings.Join(row, ";"))
		b.WriteByte('\n')
	}
	return b.String()
}

// Write stores the table as dir/name and returns the path.
func (g *GoldTable) Write(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create gold dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(g.CSV()), 0o644); err != nil {
		t.Fatalf("write gold file: %v", err)
	}
	return path
}
