package dataprocessing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "jpxcli/internal/errors"
	"jpxcli/pkg/contracts/domain"
)

func TestHeaderSynonymsClassify(t *testing.T) {
	hs := DefaultConfig().Headers
	tests := []struct {
		header string
		want   ColumnRole
		ok     bool
	}{
		{"建玉残高", RoleQuantity, true},
		{"当日残高", RoleCurrentOI, true},
		{"当日建玉残高", RoleCurrentOI, true},
		{"前日建玉残高", RolePreviousOI, true},
		{"当日建玉残高（枚）", RoleCurrentOI, true},
		{"Open Interest (Current)", RoleCurrentOI, true},
		{"Open Interest (Previous)", RolePreviousOI, true},
		{"Trading Volume", RoleTradingVolume, true},
		{"Volume", RoleVolume, true},
		{"Participant Name (EN)", RoleParticipantNameEN, true},
		{"Participant Name (JP)", RoleParticipantName, true},
		{"参加者コード", RoleParticipantID, true},
		{"権利行使価格", RoleStrike, true},
		{"Remarks", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := hs.Classify(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderSynonymsWith(t *testing.T) {
	hs := DefaultConfig().Headers.With(map[string][]string{
		string(RoleQuantity): {"ポジション"},
		"memo":               {"備考"},
	})

	role, ok := hs.Classify("ポジション")
	require.True(t, ok)
	assert.Equal(t, RoleQuantity, role)

	role, ok = hs.Classify("備考")
	require.True(t, ok)
	assert.Equal(t, ColumnRole("memo"), role)

	_, ok = DefaultConfig().Headers.Classify("ポジション")
	assert.False(t, ok, "With must not modify the receiver")
}

func TestSideMarkers(t *testing.T) {
	m := DefaultConfig().Markers
	assert.Equal(t, domain.SideShort, m.Side("（売超参加者）"))
	assert.Equal(t, domain.SideLong, m.Side("（買超参加者）"))
	assert.Equal(t, domain.SideLong, m.Side("Buy"))
	assert.Equal(t, domain.SideNone, m.Side("Buy/Sell"))
	assert.Equal(t, domain.SideNone, m.Side("参加者名"))
}

func TestBuildColumnMap_FuturesGroups(t *testing.T) {
	cfg := DefaultConfig()
	g := futuresGrid()
	secs, err := LocateSections(g, cfg.locator(domain.ReportFuturesOI))
	require.NoError(t, err)

	cols, err := BuildColumnMap(g, secs[0], cfg.Headers, cfg.Markers, positionRequired)
	require.NoError(t, err)
	require.Len(t, cols.Groups, 2, "near and far month tables")

	near := cols.Groups[0]
	assert.Equal(t, []domain.PositionSide{domain.SideShort, domain.SideLong}, near.Sides())

	pid, ok := near.Find(RoleParticipantID, domain.SideShort)
	require.True(t, ok)
	assert.Equal(t, 2, pid.Index)
	pid, ok = near.Find(RoleParticipantID, domain.SideLong)
	require.True(t, ok)
	assert.Equal(t, 5, pid.Index)

	qty, ok := near.Find(RoleQuantity, domain.SideLong)
	require.True(t, ok)
	assert.Equal(t, 7, qty.Index)

	month, ok := near.Find(RoleContractMonth, domain.SideLong)
	require.True(t, ok, "side-less columns serve every side")
	assert.Equal(t, 1, month.Index)

	far := cols.Groups[1]
	qty, ok = far.Find(RoleQuantity, domain.SideShort)
	require.True(t, ok)
	assert.Equal(t, 14, qty.Index)
}

func TestBuildColumnMap_MarkersBelowHeader(t *testing.T) {
	cfg := DefaultConfig()
	g := optionGrid()
	secs, err := LocateSections(g, cfg.locator(domain.ReportOptionOI))
	require.NoError(t, err)

	cols, err := BuildColumnMap(g, secs[1], cfg.Headers, cfg.Markers, positionRequired)
	require.NoError(t, err)
	require.Len(t, cols.Groups, 1)

	pid, ok := cols.Groups[0].Find(RoleParticipantID, domain.SideLong)
	require.True(t, ok)
	assert.Equal(t, 15, pid.Index)
	assert.True(t, cols.Roles()[RoleStrike])
}

func TestBuildColumnMap_MissingRequiredColumn(t *testing.T) {
	cfg := DefaultConfig()
	g := futuresGrid().Set("E7", "備考").Set("H7", "備考")
	secs, err := LocateSections(g, cfg.locator(domain.ReportFuturesOI))
	require.NoError(t, err)

	_, err = BuildColumnMap(g, secs[0], cfg.Headers, cfg.Markers, positionRequired)
	var malformed *apperrors.MalformedSectionError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 7, malformed.Row)
	assert.Contains(t, malformed.Reason, string(RoleQuantity))
}
