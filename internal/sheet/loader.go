package sheet

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// maxExcelSerial is the serial number of 9999-12-31.
const maxExcelSerial = 2958465

// LoadWorkbook decodes xlsx bytes into typed grids, one per sheet, in
// workbook order.
func LoadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return FromFile(f)
}

// LoadFile decodes the workbook at path.
func LoadFile(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return FromFile(f)
}

// FromFile converts an open excelize file into a Workbook.
func FromFile(f *excelize.File) (*Workbook, error) {
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		formatted, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}

		g := &Grid{Name: name, Rows: make([][]Cell, len(raw))}
		for i, row := range raw {
			cells := make([]Cell, len(row))
			for j, v := range row {
				shown := ""
				if i < len(formatted) && j < len(formatted[i]) {
					shown = formatted[i][j]
				}
				cells[j] = typeCell(v, shown, date1904)
			}
			g.Rows[i] = cells
		}
		slog.Debug("sheet decoded",
			slog.String("sheet", name),
			slog.Int("rows", g.NumRows()),
			slog.Int("cols", g.NumCols()))
		wb.Sheets = append(wb.Sheets, g)
	}
	return wb, nil
}

// typeCell assigns a kind to a raw cell value. shown is the same value with
// the cell's number format applied, used to recognize date-formatted serials.
func typeCell(raw, shown string, date1904 bool) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Cell{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Cell{Kind: KindDate, Text: raw, Time: t}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Cell{Kind: KindText, Text: raw}
	}
	if looksLikeDate(shown, s) && v >= 1 && v <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(v, date1904); err == nil {
			return Cell{Kind: KindDate, Text: shown, Time: t}
		}
	}
	return Cell{Kind: KindNumber, Text: raw, Number: v}
}

func looksLikeDate(shown, raw string) bool {
	shown = strings.TrimSpace(shown)
	if shown == "" || shown == raw {
		return false
	}
	if _, err := strconv.ParseFloat(strings.ReplaceAll(shown, ",", ""), 64); err == nil {
		return false
	}
	return strings.ContainsAny(shown, "/-年")
}
