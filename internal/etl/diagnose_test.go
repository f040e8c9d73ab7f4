package etl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnose(t *testing.T) {
	tbl := NewTable([]string{"a", "b", "c"})
	tbl.Append([]string{"1", "", "x"})
	tbl.Append([]string{"1", "", "x"})
	tbl.Append([]string{"2", "nan", "y"})
	tbl.Append([]string{"3", "4", ""})

	d := Diagnose(tbl)
	assert.Equal(t, 4, d.Rows)
	assert.Equal(t, 3, d.Columns)
	assert.Equal(t, 1, d.Duplicates)
	assert.Equal(t, []ColumnReport{
		{Name: "a", Missing: 0, MissingPct: 0},
		{Name: "b", Missing: 3, MissingPct: 75},
		{Name: "c", Missing: 1, MissingPct: 25},
	}, d.Missing)

	incomplete := d.Incomplete()
	require.Len(t, incomplete, 2)
	assert.Equal(t, "b", incomplete[0].Name)
	assert.Equal(t, "c", incomplete[1].Name)
}

func TestDiagnoseEmpty(t *testing.T) {
	d := Diagnose(NewTable([]string{"a"}))
	assert.Equal(t, 0, d.Rows)
	assert.Equal(t, 0.0, d.Missing[0].MissingPct)
	assert.Empty(t, d.Incomplete())
}

func TestDiagnoseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	require.NoError(t, os.WriteFile(path, []byte("a;b\n1;\n1;\n"), 0o644))

	d, err := DiagnoseFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "sample.csv", d.File)
	assert.Equal(t, int64(10), d.SizeBytes)
	assert.Equal(t, 2, d.Rows)
	assert.Equal(t, 1, d.Duplicates)
	assert.Equal(t, 2, d.Missing[1].Missing)

	_, err = DiagnoseFile(filepath.Join(t.TempDir(), "missing.csv"), 0)
	assert.Error(t, err)
}
