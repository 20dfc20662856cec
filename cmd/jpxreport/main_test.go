package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"jpxcli/pkg/contracts/domain"
)

// writeVolumeWorkbook saves a day-session volume report for 2026-01-09.
func writeVolumeWorkbook(t *testing.T, dir, name string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	rows := []struct {
		axis   string
		values []interface{}
	}{
		{"A1", []interface{}{"Trading Volume by Participant"}},
		{"A2", []interface{}{"Whole Day"}},
		{"A5", []interface{}{"Trade Date", nil, "20260109"}},
		{"A8", []interface{}{"Product", "Issue Code", "Contract Issue", "Rank", "Participant Code",
			"Participant Name (JP)", "Participant Name (EN)", "Volume"}},
		{"A9", []interface{}{"NK225F", "169030018", "NIKKEI 225 FUT 2603", 1, "11560", "ABC証券", "ABC Securities", 5000}},
		{"A10", []interface{}{"NK225E", "139020718", "NIKKEI 225 OOP P2602-38500", 1, "22222", "DEF証券", "DEF Securities", 21311}},
		{"A11", []interface{}{"NK225E", "139020718", "NIKKEI 225 OOP P2602-38500", 2, "11560", "ABC証券", "ABC Securities", 300}},
	}
	for _, r := range rows {
		values := r.values
		require.NoError(t, f.SetSheetRow(sheet, r.axis, &values))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// writeConfig points every path at dir and keeps logs off stdout.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	yaml := `
logging:
  level: error
  output: console
telemetry:
  metrics: false
paths:
  base_dir: ` + dir + `
export:
  bom: false
`
	path := filepath.Join(dir, "jpxreport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	wb := writeVolumeWorkbook(t, dir, "vol.xlsx")

	out, err := run(t, "--config", cfg, "parse", "volume", wb)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "participant_id")
	assert.Contains(t, out, "21311")
}

func TestParseCommand_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	wb := writeVolumeWorkbook(t, dir, "vol.xlsx")
	bad := filepath.Join(dir, "bad.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("junk"), 0644))

	out, err := run(t, "--config", cfg, "parse", "volume", "-f", "json", wb, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 workbooks failed")

	var recs []domain.ParticipantVolumeRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	assert.Len(t, recs, 3)
}

func TestParseCommand_Save(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	wb := writeVolumeWorkbook(t, dir, "vol.xlsx")

	out, err := run(t, "--config", cfg, "parse", "volume", "--save", "-f", "parquet", wb)
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, "volumes_20260109.parquet", filepath.Base(path))
	assert.FileExists(t, path)
}

func TestParseCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	_, err := run(t, "--config", cfg, "parse", "weekly", "x.xlsx")
	assert.Error(t, err)

	_, err = run(t, "--config", cfg, "parse", "volume", filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)

	_, err = run(t, "--config", cfg, "parse", "volume")
	assert.Error(t, err, "nothing to discover")

	_, err = run(t, "--config", cfg, "parse", "volume", "--from", "2026/01/01")
	assert.Error(t, err)
}

// reportsDir returns the reports directory the config written by
// writeConfig resolves to.
func reportsDir(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "data", "reports", "volume")
	require.NoError(t, os.MkdirAll(p, 0755))
	return p
}

func TestParseCommand_Discovers(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	vols := reportsDir(t, dir)
	writeVolumeWorkbook(t, vols, "20260109_volume_by_participant_whole_day.xlsx")
	writeVolumeWorkbook(t, vols, "20251230_volume_by_participant_whole_day.xlsx")

	out, err := run(t, "--config", cfg, "parse", "volume", "--from", "2026-01-01", "-f", "json")
	require.NoError(t, err)

	var recs []domain.ParticipantVolumeRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	assert.Len(t, recs, 3)
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	vols := reportsDir(t, dir)
	writeVolumeWorkbook(t, vols, "20260109_volume_by_participant_whole_day.xlsx")
	writeVolumeWorkbook(t, vols, "20260108_volume_by_participant_night.xlsx")
	require.NoError(t, os.WriteFile(filepath.Join(vols, "notes.txt"), []byte("x"), 0644))

	out, err := run(t, "--config", cfg, "scan")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "KIND")
	assert.Contains(t, lines[1], "2026-01-08")
	assert.Contains(t, lines[2], "volume")

	out, err = run(t, "--config", cfg, "scan", "--latest", "--json")
	require.NoError(t, err)
	var ws []struct {
		Name string            `json:"name"`
		Kind domain.ReportKind `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ws))
	require.Len(t, ws, 1)
	assert.Equal(t, "20260109_volume_by_participant_whole_day.xlsx", ws[0].Name)

	out, err = run(t, "--config", cfg, "scan", "--kind", "option-oi", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))

	_, err = run(t, "--config", cfg, "scan", "--from", "2026-01-09", "--to", "2026-01-01")
	assert.Error(t, err)
}

func TestStrikesCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	wb := writeVolumeWorkbook(t, dir, "vol.xlsx")

	out, err := run(t, "--config", cfg, "strikes", "--side", "put", "--preset", "all", "--volumes", wb, "-f", "json")
	require.NoError(t, err)

	var rows []domain.StrikeAggregateRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 38500, rows[0].StrikePrice)
	total, ok := rows[0].WeekTotalVolume.Get()
	require.True(t, ok)
	assert.Equal(t, 21611.0, total)
}

func TestStrikesCommand_FlagErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	wb := writeVolumeWorkbook(t, dir, "vol.xlsx")

	tests := []struct {
		name string
		args []string
	}{
		{"missing side", []string{"strikes", "--volumes", wb}},
		{"future side", []string{"strikes", "--side", "FUTURE", "--volumes", wb}},
		{"no figures", []string{"strikes", "--side", "PUT"}},
		{"both figures", []string{"strikes", "--side", "PUT", "--volumes", wb, "--positions", wb}},
		{"bad day", []string{"strikes", "--side", "PUT", "--volumes", wb, "--days", "2026/01/09"}},
		{"unknown preset", []string{"strikes", "--side", "PUT", "--volumes", wb, "--preset", "wide"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--config", cfg}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestWeeklyCommand_RequiresOpenInterest(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	_, err := run(t, "--config", cfg, "weekly")
	assert.Error(t, err)

	wb := writeVolumeWorkbook(t, dir, "vol.xlsx")
	_, err = run(t, "--config", cfg, "weekly", "--oi", wb)
	assert.Error(t, err, "a volume workbook is not a futures open interest report")
}

// writeDailyOIWorkbook saves a two-sheet daily open interest report for
// 2026-01-30 with the options table on the second sheet.
func writeDailyOIWorkbook(t *testing.T, dir, name string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue(f.GetSheetName(0), "A1", "Open Interest by Contract"))
	_, err := f.NewSheet("Options")
	require.NoError(t, err)

	header := []interface{}{"Contract Issue", "Trading Volume", "Open Interest (Current)", "Change", "Open Interest (Previous)"}
	rows := []struct {
		axis   string
		values []interface{}
	}{
		{"A1", []interface{}{"Nikkei 225 Options Open Interest"}},
		{"A2", []interface{}{"2026年01月30日"}},
		{"A5", []interface{}{"PUT"}},
		{"G5", []interface{}{"CALL"}},
		{"A6", header},
		{"G6", header},
		{"A7", []interface{}{"NIKKEI 225 P2603-38000", 10, 3000, 20, 2980}},
		{"G7", []interface{}{"NIKKEI 225 C2603-39000", 5, 4000, 10, 3990}},
	}
	for _, r := range rows {
		values := r.values
		require.NoError(t, f.SetSheetRow("Options", r.axis, &values))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestGEXCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	wb := writeDailyOIWorkbook(t, dir, "oi.xlsx")

	out, err := run(t, "--config", cfg, "gex", "--month", "2603", "--balances", wb, "--spot", "38500", "-f", "json")
	require.NoError(t, err)

	var p domain.GEXProfile
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "2603", p.ContractMonth)
	assert.Equal(t, "2026-03-13", p.Expiry.Format(domain.DateLayout))
	assert.Equal(t, 42, p.DaysToExpiry)
	require.Len(t, p.Rows, 2)
	assert.Equal(t, 3000.0, p.Rows[0].PutOI)
	assert.Less(t, p.TotalPutGEX, 0.0)
	assert.Greater(t, p.TotalCallGEX, 0.0)
	assert.True(t, p.FlipPoint.Valid())
}

func TestGEXCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	wb := writeDailyOIWorkbook(t, dir, "oi.xlsx")

	tests := []struct {
		name string
		args []string
	}{
		{"missing month", []string{"gex", "--balances", wb}},
		{"bad month", []string{"gex", "--month", "2613", "--balances", wb}},
		{"other month", []string{"gex", "--month", "2602", "--balances", wb}},
		{"both sources", []string{"gex", "--month", "2603", "--balances", wb, "--positions", wb}},
		{"bad as-of", []string{"gex", "--month", "2603", "--balances", wb, "--as-of", "30/01/2026"}},
		{"nothing to discover", []string{"gex", "--month", "2603"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--config", cfg}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "jpxreport v")
}
