package sheet

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLoadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(first, "A1", "（ 2026年01月30日現在 ）"))
	require.NoError(t, f.SetCellValue(first, "B2", 38500))
	require.NoError(t, f.SetCellValue(first, "C2", "=21311.0"))
	require.NoError(t, f.SetCellValue(first, "D2", time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(first, "E2", "11560"))

	_, err := f.NewSheet("Attachment1")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Attachment1", "A1", "NIKKEI 225 P2603-38000"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	wb, err := LoadWorkbook(&buf)
	require.NoError(t, err)
	require.Len(t, wb.Sheets, 2)

	g, err := wb.Sheet(0)
	require.NoError(t, err)

	assert.Equal(t, KindText, g.Cell(0, 0).Kind)
	assert.Equal(t, "（ 2026年01月30日現在 ）", g.Cell(0, 0).String())

	assert.Equal(t, KindNumber, g.Cell(1, 1).Kind)
	assert.Equal(t, 38500.0, g.Cell(1, 1).Number)

	formula := g.Cell(1, 2)
	assert.Equal(t, KindText, formula.Kind)
	v, ok := formula.Float()
	require.True(t, ok)
	assert.Equal(t, 21311.0, v)

	date := g.Cell(1, 3)
	require.Equal(t, KindDate, date.Kind)
	assert.Equal(t, "2026-01-30", date.Time.Format("2006-01-02"))

	pid := g.Cell(1, 4)
	assert.Equal(t, "11560", pid.String())

	assert.True(t, g.Cell(50, 50).IsBlank())

	second, err := wb.SheetByName("Attachment1")
	require.NoError(t, err)
	assert.Equal(t, "NIKKEI 225 P2603-38000", second.Cell(0, 0).String())

	_, err = wb.Sheet(5)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "C5", "20260206"))

	path := filepath.Join(t.TempDir(), "volume.xlsx")
	require.NoError(t, f.SaveAs(path))

	wb, err := LoadFile(path)
	require.NoError(t, err)
	g, err := wb.Sheet(0)
	require.NoError(t, err)
	assert.Equal(t, "20260206", g.Cell(4, 2).String())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestLoadWorkbook_InvalidBytes(t *testing.T) {
	_, err := LoadWorkbook(bytes.NewReader([]byte("not a zip")))
	assert.Error(t, err)
}
