package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"jpxcli/pkg/contracts/domain"
)

const maxSheetName = 31

// writeXLSX renders the table on a single sheet with a frozen header row
// and first column. Highlighted rows (strikes inside the band, participants
// with a direction) get a fill.
func writeXLSX(out io.Writer, name string, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := name
	if len(sheet) > maxSheetName {
		sheet = sheet[:maxSheetName]
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{{Type: "bottom", Color: "#000000", Style: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	highlightStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFF2CC"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create highlight style: %w", err)
	}

	header := make([]interface{}, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if len(t.Header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			// Dates stay text so they read the same in every locale.
			if d, ok := c.(time.Time); ok {
				c = d.Format(domain.DateLayout)
			}
			cells[j] = c
		}
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
		if i < len(t.Highlight) && t.Highlight[i] {
			if err := f.SetRowStyle(sheet, i+2, i+2, highlightStyle); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}

	return f.Write(out)
}
