package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths holds the executable-relative default locations.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ReportsDir    string
	OutputDir     string
	LogsDir       string
}

// GetPaths returns the application paths relative to the executable location,
// never the current working directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	exeDir := filepath.Dir(exe)
	slog.Debug("Resolved executable directory",
		slog.String("exe_path", exe),
		slog.String("exe_dir", exeDir))

	// dist/
	//   data/reports/  downloaded JPX workbooks
	//   data/output/   exported tables
	//   logs/
	dataDir := filepath.Join(exeDir, "data")
	return &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		ReportsDir:    filepath.Join(dataDir, "reports"),
		OutputDir:     filepath.Join(dataDir, "output"),
		LogsDir:       filepath.Join(exeDir, "logs"),
	}, nil
}

// EnsureDirectories creates the configured directories if they don't exist
func (p PathsConfig) EnsureDirectories() error {
	for _, dir := range []string{p.ReportsDir, p.OutputDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// ExportPath returns the export file for a table, e.g.
// strikes_put_20260130.csv.
func (e ExportConfig) ExportPath(table string, date time.Time, format string) string {
	if format == "" {
		format = e.Format
	}
	name := fmt.Sprintf("%s_%s.%s", strings.ToLower(table), date.Format("20060102"), format)
	return filepath.Join(e.Dir, name)
}
