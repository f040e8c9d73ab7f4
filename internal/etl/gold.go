package etl

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"parisdash/internal/analytics"
	"parisdash/internal/dataset"
	"parisdash/internal/exporter"
)

// Sale price filters
const (
	minSalePrice   = 10_000
	maxSalePrice   = 10_000_000
	minPricePerM2  = 3_000
	maxPricePerM2  = 50_000
	maxMeanRooms   = 10
	saleNature     = "Vente"
	apartmentLabel = "Appartement"
	houseLabel     = "Maison"
	outbuilding    = "Dépendance"
	commercial     = "Local industriel. commercial ou assimilé"
)

// DVF type_local labels per property kind
var propertyKindLabels = map[string]string{
	apartmentLabel: "appartement",
	houseLabel:     "maison",
	outbuilding:    "dependance",
	commercial:     "local_industriel_commercial_ou_assimile",
}

var districtNamePattern = regexp.MustCompile(`(\d+)[eér]`)

// GoldInputs gathers the silver tables of the gold aggregation. Every table
// is optional; a missing table leaves its columns out.
type GoldInputs struct {
	Sales        map[int]*Table // cleaned DVF extract per year
	Lots         map[int]*Table // lot table per year
	Transit      *Table
	Air          *Table
	Stats        *Table
	Demographics *Table
	Social       *Table
}

// goldTable accumulates cells per arrondissement and remembers which
// columns were produced
type goldTable struct {
	cells   [21]map[string]string
	present map[string]bool
	order   []string
}

func newGoldTable() *goldTable {
	g := &goldTable{present: map[string]bool{}}
	for n := 1; n <= 20; n++ {
		g.cells[n] = map[string]string{}
	}
	return g
}

func (g *goldTable) mark(col string) {
	if !g.present[col] {
		g.present[col] = true
		g.order = append(g.order, col)
	}
}

func (g *goldTable) setInt(n int, col string, v *int64) {
	g.mark(col)
	if v != nil {
		g.cells[n][col] = exporter.FormatInt(*v)
	}
}

func (g *goldTable) setFloat(n int, col string, v *float64) {
	g.mark(col)
	if cell := exporter.FormatOptionalFloat(v); cell != "" {
		g.cells[n][col] = cell
	}
}

func (g *goldTable) setString(n int, col, v string) {
	g.mark(col)
	g.cells[n][col] = v
}

func (g *goldTable) number(n int, col string) *float64 {
	f, ok := ParseNumber(g.cells[n][col])
	if !ok {
		return nil
	}
	return &f
}

// BuildGold aggregates the silver layer into one row per arrondissement
func BuildGold(in GoldInputs) *Table {
	g := newGoldTable()
	for n := 1; n <= 20; n++ {
		g.setInt(n, dataset.ColArrondissement, i64(int64(n)))
	}

	years := dataset.Years()
	for _, year := range years {
		sales, ok := in.Sales[year]
		if !ok || sales == nil {
			continue
		}
		byArr := groupSales(sales, lotSurfaces(in.Lots[year]))
		aggregateYear(g, year, byArr)
		if year == dataset.DefaultYear {
			aggregateTypology(g, byArr)
		}
	}

	aggregateEvolutions(g, years)
	aggregateSocialEstimate(g)
	if in.Transit != nil {
		aggregateTransit(g, in.Transit)
	}
	if in.Air != nil {
		aggregateAir(g, in.Air)
	}
	if in.Stats != nil {
		aggregateStats(g, in.Stats)
	}
	if in.Demographics != nil {
		aggregateDemographics(g, in.Demographics)
	}
	if in.Social != nil {
		aggregateSocial(g, in.Social)
	}

	header := goldColumnOrder(g, years)
	out := NewTable(header)
	for n := 1; n <= 20; n++ {
		rec := make([]string, len(header))
		for i, col := range header {
			rec[i] = g.cells[n][col]
		}
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// sale is one DVF row reduced to what the aggregation reads
type sale struct {
	nature  string
	kind    string
	value   float64
	valueOK bool
	surface float64 // built surface, else the Carrez surface of its lot
	rooms   float64
	roomsOK bool
}

func lotSurfaces(lots *Table) map[string]float64 {
	out := map[string]float64{}
	if lots == nil {
		return out
	}
	for _, row := range lots.Rows {
		id := lots.Value(row, "id_mutation")
		if _, seen := out[id]; seen {
			continue
		}
		if v, ok := ParseNumber(lots.Value(row, "surface_carrez")); ok && v > 0 {
			out[id] = v
		}
	}
	return out
}

func groupSales(t *Table, lots map[string]float64) map[int][]sale {
	out := make(map[int][]sale, 20)
	for _, row := range t.Rows {
		n, ok := DVFArrondissement(t, row)
		if !ok {
			continue
		}
		s := sale{
			nature: strings.TrimSpace(t.Value(row, "nature_mutation")),
			kind:   strings.TrimSpace(t.Value(row, "type_local")),
		}
		if !t.Has("nature_mutation") {
			s.nature = saleNature
		}
		s.value, s.valueOK = ParseNumber(t.Value(row, "valeur_fonciere"))
		if built, ok := ParseNumber(t.Value(row, "surface_reelle_bati")); ok && built > 0 {
			s.surface = built
		} else if carrez, ok := lots[t.Value(row, "id_mutation")]; ok {
			s.surface = carrez
		}
		s.rooms, s.roomsOK = ParseNumber(t.Value(row, "nombre_pieces_principales"))
		out[n] = append(out[n], s)
	}
	return out
}

// DVFArrondissement locates a DVF row from its postal code, its commune
// name ("Paris 8e Arrondissement") or its INSEE code (751NN)
func DVFArrondissement(t *Table, row []string) (int, bool) {
	if code := normalizeCode(t.Value(row, "code_postal")); len(code) == 5 && strings.HasPrefix(code, "75") {
		if n, err := strconv.Atoi(code[3:]); err == nil && dataset.ValidArrondissement(n) {
			return n, true
		}
	}
	if n, ok := DistrictFromName(t.Value(row, "nom_commune")); ok {
		return n, true
	}
	return DistrictFromINSEE(t.Value(row, "code_commune"))
}

// DistrictFromName extracts 8 from "Paris 8e Arrondissement" or "Paris 1er"
func DistrictFromName(name string) (int, bool) {
	m := districtNamePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || !dataset.ValidArrondissement(n) {
		return 0, false
	}
	return n, true
}

// DistrictFromINSEE extracts 13 from 75113
func DistrictFromINSEE(code string) (int, bool) {
	code = normalizeCode(code)
	if len(code) != 5 || !strings.HasPrefix(code, "751") {
		return 0, false
	}
	n, err := strconv.Atoi(code[3:])
	if err != nil || !dataset.ValidArrondissement(n) {
		return 0, false
	}
	return n, true
}

func normalizeCode(raw string) string {
	raw = strings.TrimSpace(raw)
	if n, ok := ParseInt(raw); ok {
		return strconv.FormatInt(n, 10)
	}
	return raw
}

func aggregateYear(g *goldTable, year int, byArr map[int][]sale) {
	for n := 1; n <= 20; n++ {
		rows := byArr[n]
		var sales []sale
		for _, s := range rows {
			if s.nature == saleNature {
				sales = append(sales, s)
			}
		}

		g.setInt(n, dataset.NbVentesCol(year), i64(int64(len(sales))))

		var prices, perM2 []float64
		for _, s := range sales {
			if !s.valueOK {
				continue
			}
			if s.value > minSalePrice && s.value < maxSalePrice {
				prices = append(prices, s.value)
			}
			if s.kind == apartmentLabel && s.surface > 0 {
				if ratio := s.value / s.surface; ratio > minPricePerM2 && ratio < maxPricePerM2 {
					perM2 = append(perM2, ratio)
				}
			}
		}
		g.setInt(n, dataset.PrixCol(year), truncatedMedian(prices))
		g.setInt(n, dataset.PrixM2Col(year), truncatedMedian(perM2))

		aggregateKinds(g, n, year, sales)
		aggregateRooms(g, n, year, sales)
	}
}

func aggregateKinds(g *goldTable, n, year int, sales []sale) {
	counts := make(map[string]int, len(dataset.PropertyKinds))
	total := 0
	for _, kind := range dataset.PropertyKinds {
		counts[kind] = 0
	}
	for _, s := range sales {
		if kind, ok := propertyKindLabels[s.kind]; ok {
			counts[kind]++
			total++
		}
	}
	for _, kind := range dataset.PropertyKinds {
		g.setInt(n, dataset.KindCountCol(kind, year), i64(int64(counts[kind])))
		g.setFloat(n, dataset.KindPctCol(kind, year), share(counts[kind], total))
	}
	g.setString(n, dataset.TypeDominantCol(year), analytics.DominantType(counts))
}

func aggregateRooms(g *goldTable, n, year int, sales []sale) {
	counts := make(map[string]int, len(dataset.RoomBuckets))
	total := 0
	for _, s := range sales {
		if (s.kind != apartmentLabel && s.kind != houseLabel) || !s.roomsOK || s.rooms <= 0 {
			continue
		}
		if bucket := analytics.RoomBucket(int(s.rooms)); bucket != "" {
			counts[bucket]++
			total++
		}
	}
	for _, bucket := range dataset.RoomBuckets {
		g.setInt(n, dataset.RoomCountCol(bucket, year), i64(int64(counts[bucket])))
		g.setFloat(n, dataset.RoomPctCol(bucket, year), share(counts[bucket], total))
	}
}

// aggregateTypology describes every 2024 transaction, sales or not
func aggregateTypology(g *goldTable, byArr map[int][]sale) {
	for n := 1; n <= 20; n++ {
		var apartments, houses int64
		var rooms []float64
		for _, s := range byArr[n] {
			switch s.kind {
			case apartmentLabel:
				apartments++
			case houseLabel:
				houses++
			}
			if s.roomsOK && s.rooms > 0 && s.rooms < maxMeanRooms {
				rooms = append(rooms, s.rooms)
			}
		}
		g.setInt(n, dataset.ColNbAppartements2024, &apartments)
		g.setInt(n, dataset.ColNbMaisons2024, &houses)
		g.setFloat(n, dataset.ColPctAppartements, share(int(apartments), int(apartments+houses)))
		if len(rooms) > 0 {
			g.setFloat(n, dataset.ColNbPiecesMoyen, f64(analytics.Round(analytics.Mean(rooms), 1)))
		} else {
			g.setFloat(n, dataset.ColNbPiecesMoyen, nil)
		}
	}
}

func aggregateEvolutions(g *goldTable, years []int) {
	from, to := dataset.EvolutionStartYear, dataset.EvolutionEndYear
	for n := 1; n <= 20; n++ {
		g.setFloat(n, dataset.ColEvolutionPrixGlobal,
			evolution(g.number(n, dataset.PrixCol(from)), g.number(n, dataset.PrixCol(to))))
		g.setFloat(n, dataset.ColEvolutionPrixM2Global,
			evolution(g.number(n, dataset.PrixM2Col(from)), g.number(n, dataset.PrixM2Col(to))))

		for _, kind := range []string{dataset.TypePrix, dataset.TypePrixM2, "volume"} {
			for i := 0; i+1 < len(years); i++ {
				y, next := years[i], years[i+1]
				col := dataset.PriceCol(kind, y)
				nextCol := dataset.PriceCol(kind, next)
				if kind == "volume" {
					col, nextCol = dataset.NbVentesCol(y), dataset.NbVentesCol(next)
				}
				g.setFloat(n, dataset.EvolutionCol(kind, y, next),
					evolution(g.number(n, col), g.number(n, nextCol)))
			}
		}

		series := make([]*float64, 0, len(years))
		for _, y := range years {
			series = append(series, g.number(n, dataset.PrixM2Col(y)))
		}
		trend := analytics.AnalyzeYearlyTrend(series)
		g.setString(n, dataset.ColTendancePrixM2, trend.Label)
		g.setFloat(n, dataset.ColEvolutionAnnuelle, trend.AverageChange)
		g.setFloat(n, dataset.ColVolatilitePrixM2, trend.Volatility)
	}
}

// aggregateSocialEstimate compares each 2024 price to the Paris median
func aggregateSocialEstimate(g *goldTable) {
	col := dataset.PrixM2Col(dataset.DefaultYear)
	var prices []float64
	for n := 1; n <= 20; n++ {
		if v := g.number(n, col); v != nil && *v != 0 {
			prices = append(prices, *v)
		}
	}
	if len(prices) == 0 {
		return
	}
	median := analytics.Median(prices)
	for n := 1; n <= 20; n++ {
		price := g.number(n, col)
		if price != nil && *price == 0 {
			price = nil
		}
		g.setString(n, dataset.ColEstimationSocial, analytics.EstimateSocialHousing(price, &median))
	}
}

func aggregateTransit(g *goldTable, t *Table) {
	for _, row := range t.Rows {
		n, ok := ParseInt(t.Value(row, "Arrondissement"))
		if !ok || !dataset.ValidArrondissement(int(n)) {
			continue
		}
		a := int(n)
		g.setInt(a, dataset.ColNbStationsMetro, intCell(t.Value(row, "Nombre_Stations")))
		g.setInt(a, dataset.ColTraficMetro, intCell(t.Value(row, "Trafic_Total")))
		g.setInt(a, dataset.ColNbLignesMetro, intCell(t.Value(row, "Nombre_Lignes_Metro")))
		g.setInt(a, dataset.ColNbLignesRER, intCell(t.Value(row, "Nombre_Lignes_RER")))
		g.setString(a, dataset.ColLignesMetro, t.Value(row, "Lignes_Metro"))
		g.setString(a, dataset.ColLignesRER, t.Value(row, "Lignes_RER"))
	}
}

func aggregateAir(g *goldTable, t *Table) {
	type acc struct {
		values    map[string][]float64
		qualities []string
	}
	byArr := map[int]*acc{}
	for _, row := range t.Rows {
		n, ok := DistrictFromName(t.Value(row, "arrondissement_nom"))
		if !ok {
			n, ok = DistrictFromINSEE(t.Value(row, "ninsee"))
		}
		if !ok {
			continue
		}
		a := byArr[n]
		if a == nil {
			a = &acc{values: map[string][]float64{}}
			byArr[n] = a
		}
		for _, p := range analytics.Pollutants {
			if v, ok := ParseNumber(t.Value(row, p)); ok {
				a.values[p] = append(a.values[p], v)
			}
		}
		if q := strings.TrimSpace(t.Value(row, "qualite_air")); q != "" {
			a.qualities = append(a.qualities, q)
		}
	}

	cols := map[string]string{analytics.NO2: dataset.ColNO2, analytics.PM10: dataset.ColPM10, analytics.O3: dataset.ColO3}
	for n := 1; n <= 20; n++ {
		a := byArr[n]
		if a == nil {
			continue
		}
		for _, p := range analytics.Pollutants {
			if vs := a.values[p]; len(vs) > 0 {
				g.setFloat(n, cols[p], f64(analytics.Round(analytics.Mean(vs), 1)))
			}
		}
		if mode := modal(a.qualities); mode != "" {
			g.setString(n, dataset.ColQualiteAir, mode)
		}
	}
}

// aggregateStats reads the 2020 census figures of the commune aggregate
func aggregateStats(g *goldTable, t *Table) {
	done := map[int]bool{}
	for _, row := range t.Rows {
		if year, ok := ParseInt(t.Value(row, "anneemut")); !ok || year != 2020 {
			continue
		}
		n, ok := DistrictFromINSEE(t.Value(row, "codgeo_2020"))
		if !ok {
			n, ok = DistrictFromName(t.Value(row, "nom_commune"))
		}
		if !ok || done[n] {
			continue
		}
		done[n] = true
		g.setInt(n, dataset.ColPopulation2018, truncCell(t.Value(row, "POP_2018")))
		g.setInt(n, dataset.ColMenages2018, truncCell(t.Value(row, "Nbre-menages_2018")))
		g.setInt(n, dataset.ColLogements2018, truncCell(t.Value(row, "Logement_2018")))
		g.setInt(n, dataset.ColPrixM2Stats, truncCell(t.Value(row, "vfm2_ventea")))
	}
}

func aggregateDemographics(g *goldTable, t *Table) {
	for _, row := range t.Rows {
		n, ok := DistrictFromINSEE(t.Value(row, "code_insee"))
		if !ok {
			continue
		}
		g.setFloat(n, dataset.ColPopulationTotale, numberCell(t.Value(row, "population_totale")))
		g.setFloat(n, dataset.ColSuperficieKm2, numberCell(t.Value(row, "superficie_km2")))
		g.setFloat(n, dataset.ColDensite, numberCell(t.Value(row, "densite_pop_km2")))
		g.setFloat(n, dataset.ColRevenuMedian, numberCell(t.Value(row, "revenu_median")))
	}
}

// aggregateSocial attaches the regional rate and, when the 2018 housing
// stock is known, the implied number of social dwellings
func aggregateSocial(g *goldTable, t *Table) {
	rates := SocialHousingRates(t)
	for n := 1; n <= 20; n++ {
		rate, ok := rates[n]
		if !ok {
			continue
		}
		g.setFloat(n, dataset.ColPartSociauxAPUR, f64(rate))
		var count *int64
		if stock := g.number(n, dataset.ColLogements2018); stock != nil {
			count = i64(int64(math.Round(rate / 100 * *stock)))
		}
		g.setInt(n, dataset.ColNbSociauxAPUR, count)
	}
}

// goldColumnOrder lists the produced columns in publication order, then
// anything else in production order
func goldColumnOrder(g *goldTable, years []int) []string {
	var order []string
	add := func(cols ...string) { order = append(order, cols...) }

	add(dataset.ColArrondissement)
	for _, y := range years {
		add(dataset.NbVentesCol(y), dataset.PrixCol(y), dataset.PrixM2Col(y))
	}
	add(dataset.ColEvolutionPrixGlobal, dataset.ColEvolutionPrixM2Global)
	for _, kind := range []string{dataset.TypePrix, dataset.TypePrixM2, "volume"} {
		for i := 0; i+1 < len(years); i++ {
			add(dataset.EvolutionCol(kind, years[i], years[i+1]))
		}
	}
	add(dataset.ColTendancePrixM2, dataset.ColEvolutionAnnuelle, dataset.ColVolatilitePrixM2)
	add(dataset.ColNbAppartements2024, dataset.ColNbMaisons2024, dataset.ColPctAppartements, dataset.ColNbPiecesMoyen)
	add(dataset.ColEstimationSocial)
	add(dataset.ColNbStationsMetro, dataset.ColTraficMetro, dataset.ColNbLignesMetro, dataset.ColNbLignesRER,
		dataset.ColLignesMetro, dataset.ColLignesRER)
	add(dataset.ColNO2, dataset.ColPM10, dataset.ColO3, dataset.ColQualiteAir)
	add(dataset.ColPopulation2018, dataset.ColMenages2018, dataset.ColLogements2018, dataset.ColPrixM2Stats)
	for _, y := range years {
		for _, kind := range dataset.PropertyKinds {
			add(dataset.KindCountCol(kind, y))
		}
		for _, kind := range dataset.PropertyKinds {
			add(dataset.KindPctCol(kind, y))
		}
		add(dataset.TypeDominantCol(y))
	}
	for _, y := range years {
		for _, b := range dataset.RoomBuckets {
			add(dataset.RoomCountCol(b, y))
		}
		for _, b := range dataset.RoomBuckets {
			add(dataset.RoomPctCol(b, y))
		}
	}
	add(dataset.ColPopulationTotale, dataset.ColSuperficieKm2, dataset.ColDensite, dataset.ColRevenuMedian)
	add(dataset.ColPartSociauxAPUR, dataset.ColNbSociauxAPUR)

	listed := make(map[string]bool, len(order))
	header := make([]string, 0, len(g.order))
	for _, col := range order {
		listed[col] = true
		if g.present[col] {
			header = append(header, col)
		}
	}
	for _, col := range g.order {
		if !listed[col] {
			header = append(header, col)
		}
	}
	return header
}

// evolution is the change from a to b in percent, rounded to one decimal
func evolution(a, b *float64) *float64 {
	return analytics.RoundPtr(analytics.PctChange(a, b), 1)
}

func truncatedMedian(values []float64) *int64 {
	if len(values) == 0 {
		return nil
	}
	return i64(int64(analytics.Median(values)))
}

func share(count, total int) *float64 {
	if total <= 0 {
		return nil
	}
	return f64(analytics.Round(float64(count)/float64(total)*100, 1))
}

// modal returns the most frequent value, the earliest seen on ties
func modal(values []string) string {
	counts := map[string]int{}
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func intCell(s string) *int64 {
	if v, ok := ParseInt(s); ok {
		return &v
	}
	return nil
}

func truncCell(s string) *int64 {
	if v, ok := ParseNumber(s); ok {
		return i64(int64(v))
	}
	return nil
}

func numberCell(s string) *float64 {
	if v, ok := ParseNumber(s); ok {
		return &v
	}
	return nil
}

func i64(v int64) *int64 { return &v }

func f64(v float64) *float64 { return &v }
