package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"parisdash/internal/config"
)

// DefaultComma separates the fields of every file the pipeline writes
const DefaultComma = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes pipeline tables under the data layout of config.Paths
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths, logger: slog.Default()}
}

// WithLogger sets the logger used to report written files
func (w *CSVWriter) WithLogger(logger *slog.Logger) *CSVWriter {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// WriteTable replaces filePath with a BOM-prefixed table. The rows go to a
// temporary file in the same directory which is renamed over the target, so
// the API never reads a half-written gold file.
func (w *CSVWriter) WriteTable(filePath string, header []string, rows [][]string) error {
	target := w.Path(filePath)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after the rename

	if err := writeRecords(tmp, header, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(target), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}

	w.logger.Info("CSV table written",
		slog.String("path", target),
		slog.Int("columns", len(header)),
		slog.Int("rows", len(rows)))
	return nil
}

func writeRecords(f *os.File, header []string, rows [][]string) error {
	if _, err := f.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	cw.Comma = DefaultComma
	if len(header) > 0 {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	for i, rec := range rows {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Path resolves filePath against the data layout. Absolute paths and paths
// already under the data directory are kept, "gold/", "bronze/" and
// "silver/" prefixes pick the layer and bare names go to silver.
func (w *CSVWriter) Path(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil || underDir(w.paths.DataDir, filePath) {
		return filePath
	}

	layers := []struct {
		dir     string
		resolve func(string) string
	}{
		{config.GoldDirName, w.paths.GoldPath},
		{config.BronzeDirName, w.paths.BronzePath},
		{config.SilverDirName, w.paths.SilverPath},
	}
	for _, l := range layers {
		if rest, ok := strings.CutPrefix(filePath, l.dir+"/"); ok {
			return l.resolve(rest)
		}
	}
	return w.paths.SilverPath(filePath)
}

func underDir(dir, path string) bool {
	if dir == "" || filepath.Clean(dir) == "." {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
