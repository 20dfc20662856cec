package sheet

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// Grid is the decoded content of one worksheet. Row and column indexes are
// zero-based; rows may be ragged.
type Grid struct {
	Name string
	Rows [][]Cell
}

// NewGrid returns an empty grid.
func NewGrid(name string) *Grid {
	return &Grid{Name: name}
}

// NumRows returns the number of rows in the grid.
func (g *Grid) NumRows() int { return len(g.Rows) }

// NumCols returns the width of the widest row.
func (g *Grid) NumCols() int {
	n := 0
	for _, r := range g.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// Cell returns the cell at (row, col). Out-of-range positions are blank.
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= len(g.Rows) || col < 0 || col >= len(g.Rows[row]) {
		return Cell{}
	}
	return g.Rows[row][col]
}

// RowBlank reports whether every cell of row within [from, to] is blank.
// A negative to means the end of the row.
func (g *Grid) RowBlank(row, from, to int) bool {
	if row < 0 || row >= len(g.Rows) {
		return true
	}
	r := g.Rows[row]
	if to < 0 || to >= len(r) {
		to = len(r) - 1
	}
	for c := from; c <= to; c++ {
		if !r[c].IsBlank() {
			return false
		}
	}
	return true
}

// Put stores c at (row, col), growing the grid as needed.
func (g *Grid) Put(row, col int, c Cell) *Grid {
	for len(g.Rows) <= row {
		g.Rows = append(g.Rows, nil)
	}
	for len(g.Rows[row]) <= col {
		g.Rows[row] = append(g.Rows[row], Cell{})
	}
	g.Rows[row][col] = c
	return g
}

// Set stores a Go value at an A1-style axis such as "C5". Strings become
// text cells, numeric types number cells and time.Time date cells.
func (g *Grid) Set(axis string, v interface{}) *Grid {
	col, row, err := excelize.CellNameToCoordinates(axis)
	if err != nil {
		panic(fmt.Sprintf("sheet: invalid axis %q: %v", axis, err))
	}
	return g.Put(row-1, col-1, ValueCell(v))
}

// SetRow stores values left to right starting at the given axis.
func (g *Grid) SetRow(axis string, values ...interface{}) *Grid {
	col, row, err := excelize.CellNameToCoordinates(axis)
	if err != nil {
		panic(fmt.Sprintf("sheet: invalid axis %q: %v", axis, err))
	}
	for i, v := range values {
		g.Put(row-1, col-1+i, ValueCell(v))
	}
	return g
}

// ValueCell converts a Go value into a typed cell.
func ValueCell(v interface{}) Cell {
	switch x := v.(type) {
	case nil:
		return Cell{}
	case Cell:
		return x
	case string:
		return Text(x)
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case time.Time:
		return Date(x)
	default:
		return Text(fmt.Sprint(x))
	}
}

// Workbook is an ordered list of decoded sheets.
type Workbook struct {
	Sheets []*Grid
}

// Sheet returns the sheet at index i.
func (w *Workbook) Sheet(i int) (*Grid, error) {
	if i < 0 || i >= len(w.Sheets) {
		return nil, fmt.Errorf("workbook has %d sheets, no sheet at index %d", len(w.Sheets), i)
	}
	return w.Sheets[i], nil
}

// SheetByName returns the named sheet.
func (w *Workbook) SheetByName(name string) (*Grid, error) {
	for _, g := range w.Sheets {
		if g.Name == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("sheet %q not found", name)
}
