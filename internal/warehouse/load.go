package warehouse

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"parisdash/internal/config"
	"parisdash/internal/etl"
)

// Inputs are the silver and gold tables loaded by Rebuild. A nil table
// leaves its warehouse table empty.
type Inputs struct {
	Sales   map[int]*etl.Table
	Lots    map[int]*etl.Table
	Stats   *etl.Table
	Air     *etl.Table
	Transit *etl.Table
	Gold    *etl.Table
}

var transactionColumns = []string{
	"id_mutation",
	"date_mutation",
	"nature_mutation",
	"valeur_fonciere",
	"adresse_complete",
	"code_postal",
	"code_commune",
	"nom_commune",
	"arrondissement",
	"type_local",
	"surface_reelle_bati",
	"nombre_pieces_principales",
	"surface_terrain",
	"longitude",
	"latitude",
	"annee_source",
	"fichier_source",
}

var lotColumns = []string{"id_mutation", "lot_numero", "surface_carrez", "annee_source"}

var statsColumns = []string{
	"anneemut",
	"code_commune",
	"nom_commune",
	"codgeo_2020",
	"nbmut",
	"nbmut_vente",
	"nbmut_appart",
	"nbmut_maison",
	"vf_ventem",
	"vf_ventea",
	"vfmed_ventem",
	"vfmed_ventea",
	"vfm2_ventea",
	"pop_2018",
	"nb_menages_2018",
	"logement_2018",
}

var airColumns = []string{
	"date",
	"annee",
	"mois",
	"code_insee",
	"arrondissement",
	"arrondissement_nom",
	"no2",
	"pm10",
	"o3",
	"categorie_no2",
	"categorie_pm10",
	"categorie_o3",
	"qualite_air",
}

var transportColumns = []string{
	"arrondissement",
	"code_commune",
	"nom_commune",
	"nb_stations",
	"trafic_total",
	"nb_lignes_metro",
	"nb_lignes_rer",
	"lignes_metro",
	"lignes_rer",
	"toutes_lignes",
}

var goldColumns = []string{"arrondissement", "colonne", "position", "valeur_num", "valeur_texte"}

// Rebuild replaces the content of every table and returns the rows loaded
// per table
func (s *Store) Rebuild(ctx context.Context, in Inputs) (map[string]int64, error) {
	loaders := []struct {
		table   string
		columns []string
		fill    func(insert func(args ...any) error) error
	}{
		{TableTransactions, transactionColumns, func(insert func(args ...any) error) error {
			return fillTransactions(in.Sales, insert)
		}},
		{TableLots, lotColumns, func(insert func(args ...any) error) error {
			return fillLots(in.Lots, insert)
		}},
		{TableStatsCommune, statsColumns, func(insert func(args ...any) error) error {
			return fillStats(in.Stats, insert)
		}},
		{TableAirQuality, airColumns, func(insert func(args ...any) error) error {
			return fillAir(in.Air, insert)
		}},
		{TableTransports, transportColumns, func(insert func(args ...any) error) error {
			return fillTransports(in.Transit, insert)
		}},
		{TableGold, goldColumns, func(insert func(args ...any) error) error {
			return fillGold(in.Gold, insert)
		}},
	}

	counts := make(map[string]int64, len(loaders))
	for _, l := range loaders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.replace(ctx, l.table, l.columns, l.fill)
		if err != nil {
			return nil, err
		}
		counts[l.table] = n
	}
	return counts, nil
}

func sortedYears(tables map[int]*etl.Table) []int {
	years := make([]int, 0, len(tables))
	for y, t := range tables {
		if t != nil {
			years = append(years, y)
		}
	}
	slices.Sort(years)
	return years
}

func fillTransactions(sales map[int]*etl.Table, insert func(args ...any) error) error {
	for _, year := range sortedYears(sales) {
		t := sales[year]
		source := fmt.Sprintf("75_%d%s", year, config.CleanSuffix)
		for _, row := range t.Rows {
			id := t.Value(row, "id_mutation")
			if id == "" {
				continue
			}
			var arr any
			if n, ok := etl.DVFArrondissement(t, row); ok {
				arr = n
			}
			err := insert(
				id,
				text(t, row, "date_mutation"),
				text(t, row, "nature_mutation"),
				number(t, row, "valeur_fonciere"),
				text(t, row, "adresse_complete"),
				text(t, row, "code_postal"),
				text(t, row, "code_commune"),
				text(t, row, "nom_commune"),
				arr,
				text(t, row, "type_local"),
				number(t, row, "surface_reelle_bati"),
				integer(t, row, "nombre_pieces_principales"),
				number(t, row, "surface_terrain"),
				number(t, row, "longitude"),
				number(t, row, "latitude"),
				year,
				source,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func fillLots(lots map[int]*etl.Table, insert func(args ...any) error) error {
	for _, year := range sortedYears(lots) {
		t := lots[year]
		for _, row := range t.Rows {
			surface, ok := etl.ParseNumber(t.Value(row, "surface_carrez"))
			if !ok {
				continue
			}
			if err := insert(t.Value(row, "id_mutation"), t.Value(row, "lot_numero"), surface, year); err != nil {
				return err
			}
		}
	}
	return nil
}

func fillStats(t *etl.Table, insert func(args ...any) error) error {
	if t == nil {
		return nil
	}
	for _, row := range t.Rows {
		err := insert(
			integer(t, row, "anneemut"),
			text(t, row, "code_commune"),
			text(t, row, "nom_commune"),
			text(t, row, "codgeo_2020"),
			integer(t, row, "nbmut"),
			integer(t, row, "nbmut_vente"),
			integer(t, row, "nbmut_appart"),
			integer(t, row, "nbmut_maison"),
			number(t, row, "vf_ventem"),
			number(t, row, "vf_ventea"),
			number(t, row, "vfmed_ventem"),
			number(t, row, "vfmed_ventea"),
			number(t, row, "vfm2_ventea"),
			number(t, row, "POP_2018"),
			number(t, row, "Nbre-menages_2018"),
			number(t, row, "Logement_2018"),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func fillAir(t *etl.Table, insert func(args ...any) error) error {
	if t == nil {
		return nil
	}
	for _, row := range t.Rows {
		arr, ok := etl.DistrictFromINSEE(t.Value(row, "ninsee"))
		if !ok {
			continue
		}
		var year, month any
		if d, ok := etl.ParseDate(t.Value(row, "date")); ok {
			year, month = d.Year(), int(d.Month())
		}
		err := insert(
			text(t, row, "date"),
			year,
			month,
			t.Value(row, "ninsee"),
			arr,
			text(t, row, "arrondissement_nom"),
			number(t, row, "no2"),
			number(t, row, "pm10"),
			number(t, row, "o3"),
			text(t, row, "categorie_no2"),
			text(t, row, "categorie_pm10"),
			text(t, row, "categorie_o3"),
			text(t, row, "qualite_air"),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func fillTransports(t *etl.Table, insert func(args ...any) error) error {
	if t == nil {
		return nil
	}
	for _, row := range t.Rows {
		n, ok := etl.ParseInt(t.Value(row, "Arrondissement"))
		if !ok || n < config.MinArrondissement || n > config.MaxArrondissement {
			continue
		}
		arr := int(n)
		err := insert(
			arr,
			strconv.Itoa(75100+arr),
			etl.ArrondissementLabel(arr)+" Arrondissement",
			integer(t, row, "Nombre_Stations"),
			integer(t, row, "Trafic_Total"),
			integer(t, row, "Nombre_Lignes_Metro"),
			integer(t, row, "Nombre_Lignes_RER"),
			text(t, row, "Lignes_Metro"),
			text(t, row, "Lignes_RER"),
			text(t, row, "Toutes_Lignes"),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// fillGold stores the gold table in long format. Empty cells are left out.
func fillGold(t *etl.Table, insert func(args ...any) error) error {
	if t == nil || len(t.Header) == 0 {
		return nil
	}
	key := t.Header[0]
	for _, row := range t.Rows {
		arr, ok := etl.ParseInt(t.Value(row, key))
		if !ok {
			continue
		}
		for pos, col := range t.Header[1:] {
			cell := t.Value(row, col)
			if etl.IsMissing(cell) {
				continue
			}
			var num, txt any
			if f, ok := etl.ParseNumber(cell); ok {
				num = f
			} else {
				txt = cell
			}
			if err := insert(arr, col, pos+1, num, txt); err != nil {
				return err
			}
		}
	}
	return nil
}

func text(t *etl.Table, row []string, col string) any {
	v := t.Value(row, col)
	if etl.IsMissing(v) {
		return nil
	}
	return v
}

func number(t *etl.Table, row []string, col string) any {
	if f, ok := etl.ParseNumber(t.Value(row, col)); ok {
		return f
	}
	return nil
}

func integer(t *etl.Table, row []string, col string) any {
	if n, ok := etl.ParseInt(t.Value(row, col)); ok {
		return n
	}
	if f, ok := etl.ParseNumber(t.Value(row, col)); ok {
		return int64(f)
	}
	return nil
}
