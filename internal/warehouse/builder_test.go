package warehouse

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parisdash/internal/config"
	"parisdash/internal/etl"
)

func newProcessor(t *testing.T) (*etl.Processor, *config.Paths) {
	t.Helper()
	paths := config.NewPaths(t.TempDir(), "", "", "", "")
	require.NoError(t, paths.EnsureDirectories())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return etl.NewProcessor(paths, logger), paths
}

func TestBuilderBuild(t *testing.T) {
	ctx := context.Background()
	p, paths := newProcessor(t)
	require.NoError(t, os.WriteFile(paths.BronzePath("75_2024.csv"), []byte(
		"id_mutation,date_mutation,nature_mutation,valeur_fonciere,code_postal,code_commune,"+
			"type_local,surface_reelle_bati,nombre_pieces_principales,lot1_numero,lot1_surface_carrez\n"+
			"2024-1,2024-01-05,Vente,480000,75001,75101,Appartement,40,2,3,38.5\n"+
			"2024-2,2024-02-01,Vente,600000,75011,75111,Appartement,50,3,,\n"), 0o644))

	_, err := p.ProcessDVF(ctx)
	require.NoError(t, err)
	_, err = p.ProcessGold(ctx)
	require.NoError(t, err)

	counts, err := NewBuilder(paths.WarehouseFile, p, nil).Build(ctx)
	require.NoError(t, err)
	assert.FileExists(t, paths.WarehouseFile)
	assert.Equal(t, int64(2), counts[TableTransactions])
	assert.Equal(t, int64(1), counts[TableLots])
	assert.Zero(t, counts[TableTransports])
	assert.Positive(t, counts[TableGold])

	store, err := Open(ctx, paths.WarehouseFile, nil)
	require.NoError(t, err)
	defer store.Close()

	var sales int
	require.NoError(t, store.DB().QueryRowContext(ctx,
		"SELECT CAST(valeur_num AS INTEGER) FROM gold_arrondissements WHERE arrondissement = 11 AND colonne = 'nb_ventes_2024'").
		Scan(&sales))
	assert.Equal(t, 1, sales)
}

func TestBuilderWithoutGold(t *testing.T) {
	p, paths := newProcessor(t)

	_, err := NewBuilder(paths.WarehouseFile, p, nil).Build(context.Background())
	require.Error(t, err)
	assert.True(t, etl.IsNoInput(err))
	assert.NoFileExists(t, paths.WarehouseFile)
}
