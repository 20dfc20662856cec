package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.ExecutableDir))
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "output"), paths.OutputDir)
	assert.Equal(t, filepath.Join(paths.ExecutableDir, "logs"), paths.LogsDir)
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p := PathsConfig{
		ReportsDir: filepath.Join(base, "data", "reports"),
		OutputDir:  filepath.Join(base, "data", "output"),
		LogsDir:    filepath.Join(base, "logs"),
	}
	require.NoError(t, p.EnsureDirectories())
	require.NoError(t, p.EnsureDirectories(), "idempotent")

	for _, dir := range []string{p.ReportsDir, p.OutputDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestExportPath(t *testing.T) {
	e := ExportConfig{Dir: "/out", Format: "csv"}
	date := time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, filepath.Join("/out", "strikes_put_20260130.csv"), e.ExportPath("Strikes_PUT", date, ""))
	assert.Equal(t, filepath.Join("/out", "participants_20260130.parquet"), e.ExportPath("participants", date, "parquet"))
}
