package sheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGridSet(t *testing.T) {
	g := NewGrid("test").
		Set("C2", "プット（2026年02月限月）").
		SetRow("A10", 1, 38500, "11560", "ABC証券", 1200).
		Set("B12", time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 12, g.NumRows())
	assert.Equal(t, 5, g.NumCols())
	assert.Equal(t, KindText, g.Cell(1, 2).Kind)
	assert.Equal(t, 38500.0, g.Cell(9, 1).Number)
	assert.Equal(t, KindDate, g.Cell(11, 1).Kind)
	assert.True(t, g.RowBlank(10, 0, -1))
	assert.False(t, g.RowBlank(9, 0, -1))
	assert.True(t, g.RowBlank(9, 5, 8))
}

func TestCellFloat(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want float64
		ok   bool
	}{
		{"number", Number(12.5), 12.5, true},
		{"formula text", Text("=21311.0"), 21311, true},
		{"thousands", Text("1,234"), 1234, true},
		{"full width digits", Text("１２００"), 1200, true},
		{"dash", Text("-"), 0, false},
		{"word", Text("n/a"), 0, false},
		{"blank", Blank(), 0, false},
		{"date", Date(time.Now()), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.cell.Float()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "put", Normalize("ＰＵＴ"))
	assert.Equal(t, "nikkei 225 fut", Normalize("  NIKKEI　225   FUT "))
}
