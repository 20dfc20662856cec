package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpxcli/pkg/contracts/domain"
)

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func put(date time.Time, strike int, pid string, long, short domain.Quantity) domain.ParticipantPositionRecord {
	return domain.ParticipantPositionRecord{
		ReportDate:     date,
		Product:        "NK225E",
		ContractMonth:  "2602",
		InstrumentType: domain.InstrumentPut,
		StrikePrice:    strike,
		ParticipantID:  pid,
		LongQuantity:   long,
		ShortQuantity:  short,
	}
}

func TestBand(t *testing.T) {
	b := Band{Center: 38500, Step: 250, Width: 2}
	assert.Equal(t, []int{38000, 38250, 38500, 38750, 39000}, b.Strikes())
	assert.True(t, b.Contains(39000))
	assert.False(t, b.Contains(39250))

	all := Band{Width: -1}
	assert.Nil(t, all.Strikes())
	assert.True(t, all.Contains(12345))

	assert.Nil(t, Band{Width: 5}.Strikes(), "no center, no padding")
}

func TestAggregateStrikes_NetExample(t *testing.T) {
	recs := []domain.ParticipantPositionRecord{
		put(day(30), 38500, "A", domain.Some(1200), domain.Some(300)),
		put(day(30), 38500, "B", domain.Some(0), domain.Some(400)),
	}
	rows, err := AggregateStrikes(StrikeRequest{
		Side:    domain.InstrumentPut,
		Days:    []time.Time{day(30)},
		Figures: FiguresFromPositions(recs),
		Band:    Band{Width: -1},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, 38500, rows[0].StrikePrice)
	assert.True(t, domain.Some(500).Equal(rows[0].Cell(day(30))))
	assert.True(t, domain.Some(500).Equal(rows[0].WeekTotalVolume))
	assert.False(t, rows[0].PriorWeekNetOpenInterest.Valid())
}

func TestAggregateStrikes_EmptyBandStrike(t *testing.T) {
	days := []time.Time{day(5), day(6), day(7), day(8), day(9)}
	vols := []domain.ParticipantVolumeRecord{{
		TradeDate: day(6), Product: "NK225E", ContractMonth: "2602",
		InstrumentType: domain.InstrumentPut, StrikePrice: 38500, ParticipantID: "A",
		VolumeTotal: domain.Some(30), VolumeDay: domain.Some(30),
	}}

	rows, err := AggregateStrikes(StrikeRequest{
		Side:    domain.InstrumentPut,
		Days:    days,
		Figures: FiguresFromVolumes(vols),
		Band:    Band{Center: 38500, Step: 250, Width: 1},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	quiet := rows[0]
	assert.Equal(t, 38250, quiet.StrikePrice)
	assert.True(t, quiet.InBand)
	require.Len(t, quiet.Daily, len(days))
	for _, c := range quiet.Daily {
		assert.False(t, c.Value.Valid(), "no data is absent, not zero")
	}
	assert.False(t, quiet.WeekTotalVolume.Valid())

	active := rows[1]
	assert.Equal(t, 38500, active.StrikePrice)
	assert.False(t, active.Cell(day(5)).Valid())
	assert.True(t, domain.Some(30).Equal(active.Cell(day(6))))
	assert.True(t, domain.Some(30).Equal(active.WeekTotalVolume))
}

func TestAggregateStrikes_RoundTrip(t *testing.T) {
	recs := []domain.ParticipantPositionRecord{
		put(day(26), 38000, "A", domain.Some(10.5), domain.None()),
		put(day(26), 38000, "B", domain.None(), domain.Some(3.25)),
		put(day(26), 38000, "C", domain.Some(7), domain.Some(7)),
		put(day(27), 38000, "A", domain.Some(11), domain.Some(1)),
		put(day(27), 38250, "B", domain.Some(2), domain.None()),
	}
	days := []time.Time{day(26), day(27)}
	rows, err := AggregateStrikes(StrikeRequest{
		Side: domain.InstrumentPut, Days: days, Figures: FiguresFromPositions(recs), Band: Band{Width: -1},
	})
	require.NoError(t, err)

	for _, row := range rows {
		for _, d := range days {
			want := domain.None()
			for _, r := range recs {
				if r.StrikePrice == row.StrikePrice && r.ReportDate.Equal(d) {
					want = want.Add(r.Net())
				}
			}
			assert.True(t, want.Equal(row.Cell(d)), "strike %d on %s", row.StrikePrice, d.Format(domain.DateLayout))
		}
	}
}

func TestAggregateStrikes_BaselineAndFilters(t *testing.T) {
	prior := []domain.ParticipantPositionRecord{
		put(day(23), 39000, "A", domain.Some(100), domain.Some(40)),
		put(day(23), 39000, "B", domain.None(), domain.Some(10)),
	}
	call := put(day(26), 38500, "A", domain.Some(5), domain.None())
	call.InstrumentType = domain.InstrumentCall
	outside := put(day(20), 38500, "A", domain.Some(5), domain.None())

	rows, err := AggregateStrikes(StrikeRequest{
		Side:     domain.InstrumentPut,
		Days:     []time.Time{day(26)},
		Figures:  FiguresFromPositions([]domain.ParticipantPositionRecord{call, outside}),
		Baseline: BaselineFromPositions(prior, domain.InstrumentPut),
		Band:     Band{Width: -1},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1, "other side and days outside the window are ignored")
	assert.Equal(t, 39000, rows[0].StrikePrice)
	assert.True(t, domain.Some(50).Equal(rows[0].PriorWeekNetOpenInterest))
	assert.False(t, rows[0].WeekTotalVolume.Valid())
}

func TestAggregateStrikes_ClosingOpenInterest(t *testing.T) {
	closing := []domain.ParticipantPositionRecord{
		put(day(30), 38500, "A", domain.Some(1200), domain.Some(300)),
		put(day(30), 38500, "B", domain.None(), domain.Some(400)),
		put(day(30), 40000, "A", domain.Some(25), domain.None()),
	}
	vols := []domain.ParticipantVolumeRecord{{
		TradeDate: day(28), Product: "NK225E", ContractMonth: "2602",
		InstrumentType: domain.InstrumentPut, StrikePrice: 38500, ParticipantID: "A",
		VolumeTotal: domain.Some(90), VolumeDay: domain.Some(90),
	}, {
		TradeDate: day(28), Product: "NK225E", ContractMonth: "2602",
		InstrumentType: domain.InstrumentPut, StrikePrice: 37000, ParticipantID: "A",
		VolumeTotal: domain.Some(5), VolumeDay: domain.Some(5),
	}}

	rows, err := AggregateStrikes(StrikeRequest{
		Side:    domain.InstrumentPut,
		Days:    []time.Time{day(28)},
		Figures: FiguresFromVolumes(vols),
		Closing: ClosingFromPositions(closing, domain.InstrumentPut),
		Band:    Band{Width: -1},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 37000, rows[0].StrikePrice)
	assert.False(t, rows[0].ClosingLong.Valid())
	assert.False(t, rows[0].ClosingNetOpenInterest.Valid(), "no closing report for the strike")

	assert.Equal(t, 38500, rows[1].StrikePrice)
	assert.True(t, domain.Some(1200).Equal(rows[1].ClosingLong))
	assert.True(t, domain.Some(700).Equal(rows[1].ClosingShort))
	assert.True(t, domain.Some(500).Equal(rows[1].ClosingNetOpenInterest))
	assert.True(t, domain.Some(90).Equal(rows[1].WeekTotalVolume))

	assert.Equal(t, 40000, rows[2].StrikePrice, "closing open interest alone gives a row")
	assert.True(t, domain.Some(25).Equal(rows[2].ClosingLong))
	assert.False(t, rows[2].ClosingShort.Valid())
	assert.True(t, domain.Some(25).Equal(rows[2].ClosingNetOpenInterest))
	assert.False(t, rows[2].WeekTotalVolume.Valid())
}

func TestAggregateStrikes_InvalidRequest(t *testing.T) {
	_, err := AggregateStrikes(StrikeRequest{Side: domain.InstrumentFuture})
	assert.Error(t, err)

	_, err = AggregateStrikes(StrikeRequest{Side: domain.InstrumentCall, Days: []time.Time{day(5), day(5)}})
	assert.Error(t, err)
}

func TestAggregateStrikes_Idempotent(t *testing.T) {
	req := StrikeRequest{
		Side:    domain.InstrumentPut,
		Days:    []time.Time{day(30)},
		Figures: FiguresFromPositions([]domain.ParticipantPositionRecord{put(day(30), 38500, "A", domain.Some(1), domain.None())}),
		Band:    Band{Center: 38500, Step: 250, Width: 3},
	}
	first, err := AggregateStrikes(req)
	require.NoError(t, err)
	second, err := AggregateStrikes(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
