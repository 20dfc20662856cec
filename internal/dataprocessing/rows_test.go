package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

func parsePut(t *testing.T, g *sheet.Grid) ([]RawSectionRow, []Diagnostic) {
	t.Helper()
	cfg := DefaultConfig()
	secs, err := LocateSections(g, cfg.locator(domain.ReportOptionOI))
	require.NoError(t, err)
	require.Equal(t, "PUT", secs[0].Kind)
	cols, err := BuildColumnMap(g, secs[0], cfg.Headers, cfg.Markers, positionRequired)
	require.NoError(t, err)
	return ParseSection(g, secs[0], cols, cfg.rowOptions())
}

func findDiag(diags []Diagnostic, row int, sev Severity) (Diagnostic, bool) {
	for _, d := range diags {
		if d.Row == row && d.Severity == sev {
			return d, true
		}
	}
	return Diagnostic{}, false
}

func TestParseSection_Rows(t *testing.T) {
	rows, diags := parsePut(t, optionGrid())
	require.Len(t, rows, 5)

	first := rows[0]
	assert.Equal(t, 9, first.Row)
	assert.Equal(t, domain.SideShort, first.Side)
	assert.Equal(t, "11560", first.Text(RoleParticipantID))
	assert.True(t, domain.Some(300).Equal(first.Quantity(RoleQuantity)))

	carried := rows[2]
	assert.Equal(t, 10, carried.Row)
	assert.Equal(t, "22222", carried.Text(RoleParticipantID))
	strike, ok := carried.Int(RoleStrike)
	require.True(t, ok, "strike carries down from the merged block cell")
	assert.Equal(t, 38500, strike)

	last := rows[4]
	strike, _ = last.Int(RoleStrike)
	assert.Equal(t, 38750, strike)
	assert.Equal(t, domain.SideLong, last.Side)

	blank, ok := findDiag(diags, 12, SeverityInfo)
	require.True(t, ok)
	assert.Equal(t, "blank padding row", blank.Message)

	summary, ok := findDiag(diags, 14, SeverityInfo)
	require.True(t, ok)
	assert.Equal(t, "summary row skipped", summary.Message)

	for _, d := range diags {
		assert.NotEqual(t, SeverityWarning, d.Severity, d.Message)
	}
}

func TestParseSection_SummaryMarkerInParticipantName(t *testing.T) {
	g := optionGrid().
		Set("D13", "Total Securities").
		Set("G13", "小計証券").
		Set("A14", nil).Set("D14", "合　計")
	rows, diags := parsePut(t, g)

	require.Len(t, rows, 5, "a participant whose name contains a marker is kept")
	assert.Equal(t, 13, rows[3].Row)
	assert.Equal(t, "Total Securities", rows[3].Text(RoleParticipantName))
	assert.Equal(t, "小計証券", rows[4].Text(RoleParticipantName))

	summary, ok := findDiag(diags, 14, SeverityInfo)
	require.True(t, ok, "a name cell holding only the marker is still a summary row")
	assert.Equal(t, "summary row skipped", summary.Message)
}

func TestParseSection_UnparsableNumber(t *testing.T) {
	g := optionGrid().Set("E10", "n/a")
	rows, diags := parsePut(t, g)

	require.Len(t, rows, 5, "the row survives with the value absent")
	assert.Equal(t, "11560", rows[0].Text(RoleParticipantID))
	assert.False(t, rows[0].Quantity(RoleQuantity).Valid())

	d, ok := findDiag(diags, 10, SeverityWarning)
	require.True(t, ok)
	assert.Equal(t, 5, d.Col)
	assert.Contains(t, d.Message, "n/a")
}

func TestParseSection_ValuesWithoutParticipant(t *testing.T) {
	g := optionGrid().Set("H11", 50)
	rows, diags := parsePut(t, g)

	require.Len(t, rows, 5)
	d, ok := findDiag(diags, 11, SeverityWarning)
	require.True(t, ok)
	assert.Contains(t, d.Message, "LONG values without participant_id")
}

func TestParseSection_SideFlagColumn(t *testing.T) {
	cfg := DefaultConfig()
	g := sheet.NewGrid("flat").
		Set("A1", "2026/01/30").
		Set("A4", "日経225先物").
		SetRow("A5", "限月", "参加者コード", "参加者名", "売買区分", "建玉残高").
		SetRow("A6", "2026年03月限月", "11560", "ABC証券", "買建", 100).
		SetRow("A7", nil, "11560", "ABC証券", "売建", 40).
		SetRow("A8", nil, "12345", "XYZ証券", "?", 10)

	secs, err := LocateSections(g, cfg.locator(domain.ReportFuturesOI))
	require.NoError(t, err)
	require.Len(t, secs, 1)
	cols, err := BuildColumnMap(g, secs[0], cfg.Headers, cfg.Markers, positionRequired)
	require.NoError(t, err)

	rows, diags := ParseSection(g, secs[0], cols, cfg.rowOptions())
	require.Len(t, rows, 3)
	assert.Equal(t, domain.SideLong, rows[0].Side)
	assert.Equal(t, domain.SideShort, rows[1].Side)
	assert.Equal(t, domain.SideNone, rows[2].Side)

	d, ok := findDiag(diags, 8, SeverityWarning)
	require.True(t, ok)
	assert.Contains(t, d.Message, "side flag")
}

func TestNormalizeParticipantID(t *testing.T) {
	assert.Equal(t, "11560", normalizeParticipantID("11560.0"))
	assert.Equal(t, "00123", normalizeParticipantID("00123"))
	assert.Equal(t, "ABC12", normalizeParticipantID("ABC12"))
	assert.Equal(t, "12.5", normalizeParticipantID("12.5"))
}
