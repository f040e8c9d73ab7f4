package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parisdash/internal/etl"
)

// Builder rebuilds the warehouse file from the files of a processor
type Builder struct {
	path      string
	processor *etl.Processor
	logger    *slog.Logger
}

// NewBuilder creates a builder writing to path
func NewBuilder(path string, processor *etl.Processor, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		path:      path,
		processor: processor,
		logger:    logger.With(slog.String("component", "warehouse")),
	}
}

// Build reads the silver and gold files, reloads every table and returns
// the rows loaded per table
func (b *Builder) Build(ctx context.Context) (map[string]int64, error) {
	start := time.Now()

	in, err := b.processor.LoadGoldInputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load silver layer: %w", err)
	}
	gold, err := b.processor.LoadGold(ctx)
	if err != nil {
		return nil, fmt.Errorf("load gold layer: %w", err)
	}

	store, err := Open(ctx, b.path, b.logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	counts, err := store.Rebuild(ctx, Inputs{
		Sales:   in.Sales,
		Lots:    in.Lots,
		Stats:   in.Stats,
		Air:     in.Air,
		Transit: in.Transit,
		Gold:    gold,
	})
	if err != nil {
		return nil, err
	}

	b.logger.InfoContext(ctx, "warehouse_rebuilt",
		slog.String("file", store.Path()),
		slog.Any("tables", counts),
		slog.Duration("duration", time.Since(start)))
	return counts, nil
}
