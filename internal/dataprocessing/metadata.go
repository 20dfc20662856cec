package dataprocessing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	apperrors "jpxcli/internal/errors"
	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

// MetadataConfig bounds the title band searched for report metadata.
type MetadataConfig struct {
	BandRows     int      `yaml:"band_rows" json:"band_rows"`
	BandCols     int      `yaml:"band_cols" json:"band_cols"`
	NightMarkers []string `yaml:"night_markers" json:"night_markers"`
}

// ReportMetadata is what the title band says about a report.
type ReportMetadata struct {
	ReportDate    time.Time         `json:"report_date"`
	Session       domain.SessionTag `json:"session"`
	ContractMonth string            `json:"contract_month,omitempty"`
	DateRow       int               `json:"date_row"`
	DateCol       int               `json:"date_col"`
}

var (
	kanjiDatePattern     = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`)
	separatedDatePattern = regexp.MustCompile(`(?:^|[^\d])(\d{4})([/.\-])(\d{1,2})([/.\-])(\d{1,2})(?:$|[^\d])`)
	compactDatePattern   = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	contractMonthPattern = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*限`)
)

// ExtractMetadata scans the title band row by row for the report date and
// session marker. The date grammar accepts 2026年01月30日, 2026/01/30,
// 2026-01-30, 2026.01.30, 20260130 and date-typed cells. A report without a
// session marker is a day-session report. No date is a
// MetadataNotFoundError; the date is never defaulted.
func ExtractMetadata(g *sheet.Grid, cfg MetadataConfig) (ReportMetadata, error) {
	rows, cols := cfg.BandRows, cfg.BandCols
	if rows <= 0 {
		rows = 8
	}
	if cols <= 0 {
		cols = 12
	}

	meta := ReportMetadata{Session: domain.SessionDay, DateRow: -1, DateCol: -1}
	night := false
	for r := 0; r < rows && r < g.NumRows(); r++ {
		for c := 0; c < cols; c++ {
			cell := g.Cell(r, c)
			if cell.IsBlank() {
				continue
			}
			if meta.DateRow < 0 {
				if d, ok := CellDate(cell); ok {
					meta.ReportDate, meta.DateRow, meta.DateCol = d, r, c
				}
			}
			if cell.Kind != sheet.KindText {
				continue
			}
			norm := cell.Normalized()
			if matchesAny(norm, cfg.NightMarkers) {
				night = true
			}
			if meta.ContractMonth == "" {
				if cm, ok := ContractMonthFromText(cell.Text); ok {
					meta.ContractMonth = cm
				}
			}
		}
	}

	if meta.DateRow < 0 {
		return ReportMetadata{}, &apperrors.MetadataNotFoundError{
			Field:   "date",
			Scanned: fmt.Sprintf("rows 1-%d, cols 1-%d of %q", rows, cols, g.Name),
		}
	}
	if night {
		meta.Session = domain.SessionNight
	}
	return meta, nil
}

// CellDate parses a date from one cell using the fixed date grammar.
func CellDate(cell sheet.Cell) (time.Time, bool) {
	switch cell.Kind {
	case sheet.KindDate:
		t := cell.Time
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	case sheet.KindNumber:
		if cell.Number >= 19000101 && cell.Number <= 29991231 && cell.Number == float64(int64(cell.Number)) {
			return parseDateText(strconv.FormatInt(int64(cell.Number), 10))
		}
		return time.Time{}, false
	case sheet.KindText:
		return parseDateText(cell.Text)
	}
	return time.Time{}, false
}

func parseDateText(s string) (time.Time, bool) {
	s = sheet.Normalize(s)
	if m := kanjiDatePattern.FindStringSubmatch(s); m != nil {
		return makeDate(m[1], m[2], m[3])
	}
	if m := separatedDatePattern.FindStringSubmatch(s); m != nil && m[2] == m[4] {
		return makeDate(m[1], m[3], m[5])
	}
	if m := compactDatePattern.FindStringSubmatch(s); m != nil {
		return makeDate(m[1], m[2], m[3])
	}
	return time.Time{}, false
}

func makeDate(ys, ms, ds string) (time.Time, bool) {
	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	if y < 1900 || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// ContractMonthFromText extracts a YYMM contract month from texts such as
// "2026年03月限月" or "プット（2026年02月限月）".
func ContractMonthFromText(s string) (string, bool) {
	m := contractMonthPattern.FindStringSubmatch(sheet.Normalize(s))
	if m == nil {
		return "", false
	}
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return "", false
	}
	return fmt.Sprintf("%s%02d", m[1][2:], month), true
}
