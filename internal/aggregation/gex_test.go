package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpxcli/pkg/contracts/domain"
)

func TestSQDate(t *testing.T) {
	tests := map[string]time.Time{
		"2603": time.Date(2026, time.March, 13, 0, 0, 0, 0, time.UTC),
		"2605": time.Date(2026, time.May, 8, 0, 0, 0, 0, time.UTC),
		"2512": time.Date(2025, time.December, 12, 0, 0, 0, 0, time.UTC),
	}
	for month, want := range tests {
		got, err := SQDate(month)
		require.NoError(t, err, month)
		assert.Equal(t, want, got, month)
		assert.Equal(t, time.Friday, got.Weekday())
	}

	for _, bad := range []string{"", "263", "2613", "26AB", "202603"} {
		_, err := SQDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestBSGamma(t *testing.T) {
	assert.InDelta(t, 0.018762, bsGamma(100, 100, 1, 0.2, 0.05), 1e-6)
	assert.Zero(t, bsGamma(100, 100, 0, 0.2, 0.05), "expired")
	assert.Zero(t, bsGamma(100, 100, 1, 0, 0.05))
	assert.Zero(t, bsGamma(0, 100, 1, 0.2, 0.05))
}

func TestCalcGEXProfile(t *testing.T) {
	asOf := time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC)
	expiry, err := SQDate("2602")
	require.NoError(t, err)

	p := CalcGEXProfile(GEXRequest{
		ContractMonth: "2602",
		PutOI:         map[int]float64{37000: 5000, 38000: 3000},
		CallOI:        map[int]float64{39000: 4000, 40000: 6000},
		Spot:          38500,
		Expiry:        expiry,
		AsOf:          asOf,
	})

	assert.Equal(t, 14, p.DaysToExpiry)
	assert.Equal(t, DefaultSigma, p.Sigma)
	require.Len(t, p.Rows, 4)
	assert.Equal(t, []int{37000, 38000, 39000, 40000},
		[]int{p.Rows[0].StrikePrice, p.Rows[1].StrikePrice, p.Rows[2].StrikePrice, p.Rows[3].StrikePrice})

	assert.Less(t, p.Rows[0].NetGEX, 0.0)
	assert.Zero(t, p.Rows[0].CallGEX)
	assert.Greater(t, p.Rows[3].NetGEX, 0.0)
	assert.Zero(t, p.Rows[3].PutGEX)
	assert.InDelta(t, p.TotalCallGEX+p.TotalPutGEX, p.TotalNetGEX, 1e-6)

	flip, ok := p.FlipPoint.Get()
	require.True(t, ok)
	assert.Greater(t, flip, 38000.0)
	assert.Less(t, flip, 39000.0)
}

func TestCalcGEXProfile_PutsOnly(t *testing.T) {
	asOf := time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC)
	p := CalcGEXProfile(GEXRequest{
		PutOI:  map[int]float64{38000: 100, 38500: 200},
		Spot:   38500,
		Expiry: asOf.AddDate(0, 0, 14),
		AsOf:   asOf,
	})
	assert.Less(t, p.TotalNetGEX, 0.0)
	assert.Zero(t, p.TotalCallGEX)
	assert.False(t, p.FlipPoint.Valid(), "no sign change")
}

func TestCalcGEXProfile_Expired(t *testing.T) {
	asOf := time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC)
	expiry, err := SQDate("2603")
	require.NoError(t, err)

	p := CalcGEXProfile(GEXRequest{
		PutOI: map[int]float64{38000: 100}, CallOI: map[int]float64{39000: 100},
		Spot: 38500, Expiry: expiry, AsOf: asOf,
	})
	assert.Equal(t, 0, p.DaysToExpiry)
	for _, r := range p.Rows {
		assert.Zero(t, r.NetGEX)
	}
	assert.False(t, p.FlipPoint.Valid())
}

func TestFlipPoint_NearestSpot(t *testing.T) {
	rows := []domain.GEXRow{
		{StrikePrice: 37000, NetGEX: -10},
		{StrikePrice: 37500, NetGEX: 30},
		{StrikePrice: 38000, NetGEX: 10},
		{StrikePrice: 38500, NetGEX: -30},
	}
	flip, ok := flipPoint(rows, 38400).Get()
	require.True(t, ok)
	assert.InDelta(t, 38125, flip, 1e-9, "a quarter of the way from 38000 to 38500")

	flip, ok = flipPoint(rows, 37000).Get()
	require.True(t, ok)
	assert.InDelta(t, 37125, flip, 1e-9)
}

func TestCalcGEXSurface(t *testing.T) {
	asOf := time.Date(2026, time.January, 30, 0, 0, 0, 0, time.UTC)
	req := GEXRequest{
		PutOI:  map[int]float64{38000: 100},
		CallOI: map[int]float64{39000: 100},
		Expiry: asOf.AddDate(0, 0, 14),
		AsOf:   asOf,
	}
	s, err := CalcGEXSurface(req, 38500, 1000, 500)
	require.NoError(t, err)
	assert.Equal(t, []float64{37500, 38000, 38500, 39000, 39500}, s.Spots)
	assert.Equal(t, []int{38000, 39000}, s.Strikes)
	require.Len(t, s.Net, 5)
	assert.Less(t, s.Net[1][0], 0.0)
	assert.Greater(t, s.Net[3][1], 0.0)

	req.Spot = 38500
	p := CalcGEXProfile(req)
	assert.InDelta(t, p.Rows[0].NetGEX, s.Net[2][0], 1e-6, "the row at spot matches the profile")

	_, err = CalcGEXSurface(req, 38500, 1000, 0)
	assert.Error(t, err)
}

func TestOIFromBalances(t *testing.T) {
	bal := func(d int, month string, side domain.InstrumentType, strike int, oi domain.Quantity) domain.DailyOIBalance {
		return domain.DailyOIBalance{ReportDate: day(d), ContractMonth: month, InstrumentType: side, StrikePrice: strike, CurrentOI: oi}
	}
	balances := []domain.DailyOIBalance{
		bal(29, "2602", domain.InstrumentPut, 38000, domain.Some(900)),
		bal(30, "2602", domain.InstrumentPut, 38000, domain.Some(1000)),
		bal(30, "2602", domain.InstrumentPut, 37500, domain.Some(0)),
		bal(30, "2602", domain.InstrumentCall, 39000, domain.Some(700)),
		bal(30, "2602", domain.InstrumentCall, 39500, domain.None()),
		bal(31, "2603", domain.InstrumentCall, 39000, domain.Some(5)),
	}

	asOf, put, call := OIFromBalances(balances, "2602")
	assert.Equal(t, day(30), asOf)
	assert.Equal(t, map[int]float64{38000: 1000}, put)
	assert.Equal(t, map[int]float64{39000: 700}, call)
}

func TestOIFromPositions(t *testing.T) {
	recs := []domain.ParticipantPositionRecord{
		put(day(23), 38000, "A", domain.Some(10), domain.Some(4)),
		put(day(30), 38000, "A", domain.Some(10), domain.Some(4)),
		put(day(30), 38000, "B", domain.Some(5), domain.None()),
		put(day(30), 38500, "B", domain.None(), domain.Some(5)),
	}
	asOf, p, c := OIFromPositions(recs, "")
	assert.Equal(t, day(30), asOf)
	assert.Equal(t, map[int]float64{38000: 15}, p)
	assert.Empty(t, c)
}
