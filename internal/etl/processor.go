package etl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"parisdash/internal/config"
	"parisdash/internal/exporter"
	"parisdash/internal/files"
)

// ErrNoInput is returned when a step finds none of its bronze files
var ErrNoInput = errors.New("no input file")

// Result describes what a processing step wrote
type Result struct {
	Rows  int      `json:"rows"`
	Files []string `json:"files"`
}

func (r *Result) add(path string, rows int) {
	r.Files = append(r.Files, filepath.Base(path))
	r.Rows += rows
}

// Processor runs the transformations against the data directories
type Processor struct {
	paths      *config.Paths
	writer     *exporter.CSVWriter
	discovery  *files.Discovery
	logger     *slog.Logger
	maxWorkers int
}

// NewProcessor creates a processor over paths
func NewProcessor(paths *config.Paths, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "etl"))
	return &Processor{
		paths:      paths,
		writer:     exporter.NewCSVWriter(paths).WithLogger(logger),
		discovery:  files.NewDiscovery(""),
		logger:     logger,
		maxWorkers: 4,
	}
}

// WithMaxWorkers bounds the number of DVF years cleaned at once
func (p *Processor) WithMaxWorkers(n int) *Processor {
	p.maxWorkers = max(n, 1)
	return p
}

// Paths returns the data layout of the processor
func (p *Processor) Paths() *config.Paths {
	return p.paths
}

// ProcessDVF cleans every yearly DVF extract and derives its lot table
func (p *Processor) ProcessDVF(ctx context.Context) (*Result, error) {
	years, err := p.discovery.FindYearFiles(p.paths.BronzeDir, config.DVFFilePattern)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoInput, config.DVFFilePattern, p.paths.BronzeDir)
	}

	var (
		mu     sync.Mutex
		result = &Result{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)
	for _, yf := range years {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := ReadCSV(yf.Path, ',', files.AutoDetect)
			if err != nil {
				return err
			}
			clean := CleanDVF(raw)
			lots := BuildLots(raw)

			stem := files.Stem(yf.Path)
			cleanName := stem + config.CleanSuffix
			lotsName := stem + config.LotsSuffix
			if err := p.writer.WriteTable(cleanName, clean.Header, clean.Rows); err != nil {
				return err
			}
			if err := p.writer.WriteTable(lotsName, lots.Header, lots.Rows); err != nil {
				return err
			}

			p.logger.InfoContext(gctx, "dvf_year_cleaned",
				slog.Int("year", yf.Year),
				slog.Int("raw_rows", raw.Len()),
				slog.Int("clean_rows", clean.Len()),
				slog.Int("lots", lots.Len()),
			)

			mu.Lock()
			result.add(cleanName, clean.Len())
			result.add(lotsName, 0)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessTransit aggregates the RATP station traffic per arrondissement
func (p *Processor) ProcessTransit(ctx context.Context) (*Result, error) {
	raw, err := p.readBronze(config.TransitFileName, ';', files.AutoDetect)
	if err != nil {
		return nil, err
	}
	out, err := AggregateTransit(raw)
	if err != nil {
		return nil, err
	}
	return p.writeSilver(ctx, config.TransitSilverName, out)
}

// ProcessAirQuality cleans the air quality measurements
func (p *Processor) ProcessAirQuality(ctx context.Context) (*Result, error) {
	raw, err := p.readBronze(config.AirQualityFileName, 0, files.AutoDetect)
	if err != nil {
		return nil, err
	}
	out, err := CleanAirQuality(raw)
	if err != nil {
		return nil, err
	}
	return p.writeSilver(ctx, config.AirQualitySilverName, out)
}

// ProcessCommuneStats cleans the yearly commune aggregates
func (p *Processor) ProcessCommuneStats(ctx context.Context) (*Result, error) {
	raw, err := p.readBronze(config.CommuneStatsFileName, ';', files.AutoDetect)
	if err != nil {
		return nil, err
	}
	out, err := CleanCommuneStats(raw)
	if err != nil {
		return nil, err
	}
	return p.writeSilver(ctx, config.CommuneStatsSilverName, out)
}

// ProcessDemographics joins the census workbook with the surfaces and the
// revenue workbook. Surface and revenue files are optional.
func (p *Processor) ProcessDemographics(ctx context.Context) (*Result, error) {
	path := p.paths.BronzePath(config.PopulationFileName)
	if !exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, path)
	}
	population, err := ReadSheet(path, "", 1)
	if err != nil {
		return nil, err
	}

	var surface, revenue *Table
	if path := p.paths.BronzePath(config.SurfaceFileName); exists(path) {
		surface, err = ReadCSV(path, ';', files.UTF8)
		if err != nil {
			p.logger.WarnContext(ctx, "surface_file_not_utf8", slog.String("file", path), slog.String("error", err.Error()))
			surface, err = ReadCSV(path, ';', files.Windows1252)
		}
		if err != nil {
			return nil, err
		}
	} else {
		p.logger.WarnContext(ctx, "optional_input_missing", slog.String("file", path))
	}
	if path := p.paths.BronzePath(config.RevenueFileName); exists(path) {
		if revenue, err = ReadSheet(path, RevenueSheet, RevenueHeaderRow); err != nil {
			return nil, err
		}
	} else {
		p.logger.WarnContext(ctx, "optional_input_missing", slog.String("file", path))
	}

	out, err := BuildDemographics(population, surface, revenue)
	if err != nil {
		return nil, err
	}
	return p.writeSilver(ctx, config.DemographicsSilverName, out)
}

// ProcessSocialHousing extracts the Paris rates of the regional file
func (p *Processor) ProcessSocialHousing(ctx context.Context) (*Result, error) {
	path := p.paths.BronzePath(config.SocialHousingFileName)
	if !exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, path)
	}
	raw, err := ReadSocialHousing(path)
	if err != nil {
		return nil, err
	}
	out, err := BuildSocialHousing(raw)
	if err != nil {
		return nil, err
	}
	return p.writeSilver(ctx, config.SocialHousingSilverName, out)
}

// LoadGoldInputs reads the silver layer. Missing files leave their table nil.
func (p *Processor) LoadGoldInputs(ctx context.Context) (GoldInputs, error) {
	in := GoldInputs{Sales: map[int]*Table{}, Lots: map[int]*Table{}}

	if err := p.loadYears(ctx, DVFSilverPattern(config.CleanSuffix), in.Sales); err != nil {
		return in, err
	}
	if err := p.loadYears(ctx, DVFSilverPattern(config.LotsSuffix), in.Lots); err != nil {
		return in, err
	}
	if len(in.Sales) == 0 {
		return in, fmt.Errorf("%w: *%s in %s", ErrNoInput, config.CleanSuffix, p.paths.SilverDir)
	}

	for name, dst := range map[string]**Table{
		config.TransitSilverName:       &in.Transit,
		config.AirQualitySilverName:    &in.Air,
		config.CommuneStatsSilverName:  &in.Stats,
		config.DemographicsSilverName:  &in.Demographics,
		config.SocialHousingSilverName: &in.Social,
	} {
		t, err := p.readSilver(ctx, name)
		if err != nil {
			return in, err
		}
		*dst = t
	}
	return in, nil
}

func (p *Processor) loadYears(ctx context.Context, pattern string, dst map[int]*Table) error {
	years, err := p.discovery.FindYearFiles(p.paths.SilverDir, pattern)
	if err != nil {
		return err
	}
	for _, yf := range years {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := ReadCSV(yf.Path, exporter.DefaultComma, files.UTF8)
		if err != nil {
			return err
		}
		dst[yf.Year] = t
	}
	return nil
}

// ProcessGold aggregates the silver layer into the gold file
func (p *Processor) ProcessGold(ctx context.Context) (*Result, error) {
	in, err := p.LoadGoldInputs(ctx)
	if err != nil {
		return nil, err
	}
	result := &Result{}
	if err := p.writeGold(ctx, p.paths.GoldFile, BuildGold(in), result); err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessAirGold aggregates the cleaned air measurements into the yearly
// and monthly gold tables
func (p *Processor) ProcessAirGold(ctx context.Context) (*Result, error) {
	path := p.paths.SilverPath(config.AirQualitySilverName)
	if !exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, path)
	}
	air, err := ReadCSV(path, exporter.DefaultComma, files.UTF8)
	if err != nil {
		return nil, err
	}
	annual, monthly, err := BuildAirGold(air)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if err := p.writeGold(ctx, p.paths.GoldPath(config.AirGoldAnnualName), annual, result); err != nil {
		return nil, err
	}
	if err := p.writeGold(ctx, p.paths.GoldPath(config.AirGoldMonthlyName), monthly, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessTransactions merges the cleaned DVF years into one gold table and
// writes its scaled copy
func (p *Processor) ProcessTransactions(ctx context.Context) (*Result, error) {
	sales := map[int]*Table{}
	if err := p.loadYears(ctx, DVFSilverPattern(config.CleanSuffix), sales); err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, fmt.Errorf("%w: *%s in %s", ErrNoInput, config.CleanSuffix, p.paths.SilverDir)
	}

	merged := MergeTransactions(sales)
	result := &Result{}
	if err := p.writeGold(ctx, p.paths.GoldPath(config.TransactionsName), merged, result); err != nil {
		return nil, err
	}
	if err := p.writeGold(ctx, p.paths.GoldPath(config.TransactionsScaledName), ScaleTransactions(merged), result); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Processor) writeGold(ctx context.Context, path string, t *Table, result *Result) error {
	if err := p.writer.WriteTable(path, t.Header, t.Rows); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "gold_written",
		slog.String("file", path),
		slog.Int("rows", t.Len()),
		slog.Int("columns", len(t.Header)),
	)
	result.add(path, t.Len())
	return nil
}

func (p *Processor) readBronze(name string, comma rune, enc files.Encoding) (*Table, error) {
	path := p.paths.BronzePath(name)
	if !exists(path) {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, path)
	}
	return ReadCSV(path, comma, enc)
}

// LoadGold reads the gold file written by ProcessGold
func (p *Processor) LoadGold(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !exists(p.paths.GoldFile) {
		return nil, fmt.Errorf("%w: %s", ErrNoInput, p.paths.GoldFile)
	}
	return ReadCSV(p.paths.GoldFile, exporter.DefaultComma, files.UTF8)
}

func (p *Processor) readSilver(ctx context.Context, name string) (*Table, error) {
	path := p.paths.SilverPath(name)
	if !exists(path) {
		p.logger.WarnContext(ctx, "silver_input_missing", slog.String("file", name))
		return nil, nil
	}
	return ReadCSV(path, exporter.DefaultComma, files.UTF8)
}

func (p *Processor) writeSilver(ctx context.Context, name string, t *Table) (*Result, error) {
	if err := p.writer.WriteTable(name, t.Header, t.Rows); err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "silver_written", slog.String("file", name), slog.Int("rows", t.Len()))
	result := &Result{}
	result.add(name, t.Len())
	return result, nil
}

// IsNoInput reports whether err comes from a missing input file
func IsNoInput(err error) bool {
	return errors.Is(err, ErrNoInput)
}

func exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// DVFSilverPattern globs the silver files derived from the DVF extracts,
// e.g. 75_*_clean.csv
func DVFSilverPattern(suffix string) string {
	return strings.TrimSuffix(config.DVFFilePattern, filepath.Ext(config.DVFFilePattern)) + suffix
}
