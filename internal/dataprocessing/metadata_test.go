package dataprocessing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jpxcli/internal/errors"
	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

func TestCellDate(t *testing.T) {
	want := date(2026, time.January, 30)
	tests := []struct {
		name string
		cell sheet.Cell
		ok   bool
	}{
		{"kanji", sheet.Text("2026年1月30日"), true},
		{"kanji in parentheses", sheet.Text("（ 2026年01月30日現在 ）"), true},
		{"slash", sheet.Text("2026/01/30"), true},
		{"dash", sheet.Text("Trade Date: 2026-01-30"), true},
		{"dot", sheet.Text("2026.01.30"), true},
		{"compact text", sheet.Text("20260130"), true},
		{"compact number", sheet.Number(20260130), true},
		{"date cell", sheet.Date(time.Date(2026, 1, 30, 15, 45, 0, 0, time.UTC)), true},
		{"mixed separators", sheet.Text("2026/01-30"), false},
		{"impossible day", sheet.Text("2026/02/30"), false},
		{"strike", sheet.Number(38500), false},
		{"contract month", sheet.Text("2026年03月限月"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CellDate(tt.cell)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestExtractMetadata(t *testing.T) {
	cfg := DefaultConfig().Metadata

	t.Run("day report", func(t *testing.T) {
		meta, err := ExtractMetadata(optionGrid(), cfg)
		require.NoError(t, err)
		assert.True(t, date(2026, time.January, 30).Equal(meta.ReportDate))
		assert.Equal(t, domain.SessionDay, meta.Session)
		assert.Equal(t, "2602", meta.ContractMonth)
		assert.Equal(t, 1, meta.DateRow)
		assert.Equal(t, 0, meta.DateCol)
	})

	t.Run("night report", func(t *testing.T) {
		meta, err := ExtractMetadata(volumeGrid("Night Session"), cfg)
		require.NoError(t, err)
		assert.True(t, date(2026, time.January, 9).Equal(meta.ReportDate))
		assert.Equal(t, domain.SessionNight, meta.Session)
	})

	t.Run("first date in reading order wins", func(t *testing.T) {
		g := sheet.NewGrid("dates").
			Set("C1", "2026/01/23").
			Set("A2", "2026/01/30")
		meta, err := ExtractMetadata(g, cfg)
		require.NoError(t, err)
		assert.True(t, date(2026, time.January, 23).Equal(meta.ReportDate))
	})

	t.Run("date outside the band", func(t *testing.T) {
		g := sheet.NewGrid("late").
			Set("A1", "Open Interest").
			Set("A20", "2026/01/30")
		_, err := ExtractMetadata(g, cfg)

		var notFound *apperrors.MetadataNotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "date", notFound.Field)
		assert.True(t, errors.Is(err, apperrors.ErrMetadataNotFound))
	})
}

func TestContractMonthFromText(t *testing.T) {
	cm, ok := ContractMonthFromText("プット（2026年02月限月）")
	require.True(t, ok)
	assert.Equal(t, "2602", cm)

	cm, ok = ContractMonthFromText("２０２６年３月限")
	require.True(t, ok)
	assert.Equal(t, "2603", cm)

	_, ok = ContractMonthFromText("2026年01月30日")
	assert.False(t, ok)
}
