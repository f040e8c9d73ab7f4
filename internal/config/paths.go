package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the data paths of the pipeline and the API.
// Every ETL input and output is derived from DataDir.
type Paths struct {
	DataDir      string
	BronzeDir    string
	SilverDir    string
	GoldDir      string
	WarehouseDir string
	WebDir       string
	LogsDir      string

	GoldFile      string
	WarehouseFile string
}

// NewPaths builds the medallion layout under dataDir:
//
//	data/
//	  bronze/            raw downloads (DVF, RATP, air, INSEE, APUR)
//	  silver/            cleaned CSV files
//	  gold/              dashboard_arrondissements_paris.csv
//	    warehouse/       dashboard.db
func NewPaths(dataDir, goldFile, webDir, logsDir, warehouseFile string) *Paths {
	if goldFile == "" {
		goldFile = GoldFileName
	}
	if warehouseFile == "" {
		warehouseFile = WarehouseFileName
	}
	goldDir := filepath.Join(dataDir, GoldDirName)
	warehouseDir := filepath.Join(goldDir, WarehouseDirName)

	return &Paths{
		DataDir:       dataDir,
		BronzeDir:     filepath.Join(dataDir, BronzeDirName),
		SilverDir:     filepath.Join(dataDir, SilverDirName),
		GoldDir:       goldDir,
		WarehouseDir:  warehouseDir,
		WebDir:        webDir,
		LogsDir:       logsDir,
		GoldFile:      filepath.Join(goldDir, goldFile),
		WarehouseFile: filepath.Join(warehouseDir, warehouseFile),
	}
}

// EnsureDirectories creates the data directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.BronzeDir,
		p.SilverDir,
		p.GoldDir,
		p.WarehouseDir,
	}
	if p.LogsDir != "" {
		directories = append(directories, p.LogsDir)
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// BronzePath returns the path of a raw source file
func (p *Paths) BronzePath(name string) string {
	return filepath.Join(p.BronzeDir, name)
}

// SilverPath returns the path of a cleaned file
func (p *Paths) SilverPath(name string) string {
	return filepath.Join(p.SilverDir, name)
}

// GoldPath returns the path of an aggregated file
func (p *Paths) GoldPath(name string) string {
	return filepath.Join(p.GoldDir, name)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved layout
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("data", p.DataDir),
			slog.String("bronze", p.BronzeDir),
			slog.String("silver", p.SilverDir),
			slog.String("gold", p.GoldDir),
			slog.String("warehouse", p.WarehouseDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("gold", p.GoldFile),
			slog.Bool("gold_exists", FileExists(p.GoldFile)),
			slog.String("warehouse", p.WarehouseFile),
		))
}
