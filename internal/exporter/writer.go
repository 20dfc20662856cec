package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"jpxcli/internal/config"
	"jpxcli/internal/infrastructure"
)

// Writer renders datasets in the configured formats.
type Writer struct {
	cfg    config.ExportConfig
	logger *slog.Logger
}

// NewWriter creates a writer. An empty cfg.Format means CSV.
func NewWriter(cfg config.ExportConfig, logger *slog.Logger) *Writer {
	if cfg.Format == "" {
		cfg.Format = string(FormatCSV)
	}
	return &Writer{cfg: cfg, logger: infrastructure.WithComponent(logger, "exporter")}
}

// Format resolves name, falling back to the configured default.
func (w *Writer) Format(name string) (Format, error) {
	if name == "" {
		name = w.cfg.Format
	}
	return ParseFormat(name)
}

// Write renders ds to out.
func (w *Writer) Write(out io.Writer, format Format, ds Dataset) error {
	switch format {
	case FormatCSV:
		return writeCSV(out, ds.Table(), w.cfg.BOM)
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ds.Value())
	case FormatParquet:
		return ds.writeParquet(out)
	case FormatXLSX:
		return writeXLSX(out, ds.Name(), ds.Table())
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// WriteFile writes ds under the export directory, named after the dataset
// and date, and returns the path. format "" uses the configured default.
// The file is written to a temporary name first and renamed into place.
func (w *Writer) WriteFile(ds Dataset, date time.Time, format string) (string, error) {
	f, err := w.Format(format)
	if err != nil {
		return "", err
	}
	path := w.cfg.ExportPath(ds.Name(), date, string(f))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := w.Write(tmp, f, ds); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", f, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}

	w.logger.Info("export written",
		slog.String("path", path),
		slog.String("format", string(f)),
		slog.Int("rows", len(ds.Table().Rows)))
	return path, nil
}
