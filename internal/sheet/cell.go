package sheet

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"
)

// CellKind is the type the loader assigned to a cell value.
type CellKind int

const (
	KindBlank CellKind = iota
	KindText
	KindNumber
	KindDate
)

func (k CellKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	}
	return "blank"
}

// Cell is one typed spreadsheet value. Text always holds the raw text as
// stored in the workbook, including for numeric and date cells.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

// Blank returns an empty cell.
func Blank() Cell { return Cell{} }

// Text returns a text cell; whitespace-only input becomes blank.
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: KindText, Text: s}
}

// Number returns a numeric cell.
func Number(v float64) Cell {
	return Cell{Kind: KindNumber, Number: v, Text: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Date returns a date cell.
func Date(t time.Time) Cell {
	return Cell{Kind: KindDate, Time: t, Text: t.Format("2006-01-02")}
}

// IsBlank reports whether the cell holds no value.
func (c Cell) IsBlank() bool { return c.Kind == KindBlank }

// String returns the trimmed raw text of the cell.
func (c Cell) String() string { return strings.TrimSpace(c.Text) }

// Normalized returns the cell text folded for keyword matching:
// widths folded to canonical form, lower-cased, spaces collapsed.
func (c Cell) Normalized() string {
	return Normalize(c.Text)
}

// Float returns the numeric value of the cell. Text cells are parsed after
// stripping thousands separators and a leading formula marker ("=21311.0").
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case KindNumber:
		return c.Number, true
	case KindText:
		s := width.Fold.String(strings.TrimSpace(c.Text))
		s = strings.TrimPrefix(s, "=")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" || s == "-" {
			return 0, false
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// Normalize folds s for case- and width-insensitive comparison.
func Normalize(s string) string {
	s = width.Fold.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
