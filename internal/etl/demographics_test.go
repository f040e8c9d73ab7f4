package etl

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		idx, err := f.NewSheet(sheet)
		require.NoError(t, err)
		f.SetActiveSheet(idx)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), sheet+".xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadSheetHeaderRow(t *testing.T) {
	path := writeWorkbook(t, RevenueSheet, [][]any{
		{"Revenus déclarés"}, {"2018"}, {"source"}, {"champ"}, {"unité"},
		{"IRIS", "COM", "DEC_MED18"},
		{"751010101", "75101", 30000},
		{"751010102", "75101", 40000},
	})

	tbl, err := ReadSheet(path, RevenueSheet, RevenueHeaderRow)
	require.NoError(t, err)
	assert.Equal(t, []string{"IRIS", "COM", "DEC_MED18"}, tbl.Header)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "40000", tbl.Value(tbl.Rows[1], "DEC_MED18"))

	_, err = ReadSheet(path, RevenueSheet, 20)
	assert.Error(t, err)
}

func TestBuildDemographics(t *testing.T) {
	popPath := writeWorkbook(t, "Sheet1", [][]any{
		{"code_commune", "population_totale"},
		{113, 180000},
		{101, 16000},
	})
	population, err := ReadSheet(popPath, "", 1)
	require.NoError(t, err)

	surface := NewTable([]string{"Code_INSEE", "Surface"})
	surface.Append([]string{"75101", "1824613"})
	surface.Append([]string{"75113", "7149000"})

	revenue := NewTable([]string{"COM", "DEC_MED18"})
	revenue.Append([]string{"75101", "30000"})
	revenue.Append([]string{"75101", "40000"})

	out, err := BuildDemographics(population, surface, revenue)
	require.NoError(t, err)
	assert.Equal(t, DemographicsHeader, out.Header)
	require.Equal(t, 2, out.Len())

	assert.Equal(t, []string{"75101", "16000", "1.824613", "35000", "8769"}, out.Rows[0])
	assert.Equal(t, []string{"75113", "180000", "7.149", "", "25178.3"}, out.Rows[1])
}

func TestBuildDemographicsWithoutSurface(t *testing.T) {
	population := NewTable([]string{"code_commune", "population_totale"})
	population.Append([]string{"120", "195000"})

	out, err := BuildDemographics(population, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"75120", "195000", "", "", ""}, out.Rows[0])

	_, err = BuildDemographics(NewTable([]string{"code"}), nil, nil)
	assert.Error(t, err)
}
