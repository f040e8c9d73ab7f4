package warehouse

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "warehouse", "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenAppliesMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dashboard.db")

	store, err := Open(ctx, path, nil)
	require.NoError(t, err)
	assert.FileExists(t, path)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, len(Tables))
	for table, n := range counts {
		assert.Zero(t, n, table)
	}
	require.NoError(t, store.Close())

	// reopening must not replay the schema
	store, err = Open(ctx, path, nil)
	require.NoError(t, err)
	defer store.Close()

	var applied int
	require.NoError(t, store.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ", nil)
	assert.Error(t, err)
}

func TestCountUnknownTable(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Count(context.Background(), "sqlite_master; DROP TABLE fact_lots")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestUpMigration(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "up and down",
			content:  "-- +migrate Up\nCREATE TABLE a(x);\n-- +migrate Down\nDROP TABLE a;",
			expected: "\nCREATE TABLE a(x);\n",
		},
		{
			name:     "up only",
			content:  "-- +migrate Up\nCREATE TABLE a(x);",
			expected: "\nCREATE TABLE a(x);",
		},
		{
			name:     "no sections",
			content:  "CREATE TABLE a(x);",
			expected: "CREATE TABLE a(x);",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, upMigration(tt.content))
		})
	}
}
