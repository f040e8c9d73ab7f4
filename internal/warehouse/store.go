package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "modernc.org/sqlite"

	"parisdash/internal/warehouse/migrations"
)

// Table names
const (
	TableTransactions = "fact_transactions"
	TableLots         = "fact_lots"
	TableStatsCommune = "dim_stats_commune"
	TableAirQuality   = "dim_qualite_air"
	TableTransports   = "dim_transports"
	TableGold         = "gold_arrondissements"
)

// Tables lists the warehouse tables in load order
var Tables = []string{
	TableTransactions,
	TableLots,
	TableStatsCommune,
	TableAirQuality,
	TableTransports,
	TableGold,
}

// ErrUnknownTable is returned for a table name outside Tables
var ErrUnknownTable = errors.New("unknown warehouse table")

// Store is the SQLite warehouse
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the database at path and applies the migrations
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("warehouse path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("create warehouse directory: %w", err)
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:     db,
		path:   cleanPath,
		logger: logger.With(slog.String("component", "warehouse")),
	}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file
func (s *Store) Path() string {
	return s.path
}

// DB exposes the handle for ad-hoc queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// Count returns the number of rows of a warehouse table
func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	if !slices.Contains(Tables, table) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Counts returns the row count of every table
func (s *Store) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		n, err := s.Count(ctx, table)
		if err != nil {
			return nil, err
		}
		counts[table] = n
	}
	return counts, nil
}

// replace empties table and refills it inside one transaction. fill calls
// insert once per row, with one argument per column.
func (s *Store) replace(ctx context.Context, table string, columns []string,
	fill func(insert func(args ...any) error) error) (n int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin %s: %w", table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("prepare %s: %w", table, err)
	}
	defer stmt.Close()

	err = fill(func(args ...any) error {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", table, err)
	}
	s.logger.InfoContext(ctx, "table_loaded", slog.String("table", table), slog.Int64("rows", n))
	return n, nil
}
