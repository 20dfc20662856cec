package aggregation

import (
	"fmt"
	"sort"
	"time"

	"jpxcli/internal/calendar"
	"jpxcli/pkg/contracts/domain"
)

// Band is a display window of Width strikes either side of Center, Step
// apart. A negative Width selects every strike and pads nothing.
type Band struct {
	Center int `json:"center" yaml:"center" validate:"gte=0"`
	Step   int `json:"step" yaml:"step" validate:"gte=0"`
	Width  int `json:"width" yaml:"width"`
}

// All reports whether the band selects every strike.
func (b Band) All() bool { return b.Width < 0 }

// Strikes returns the strikes of the band in ascending order. An unbounded
// or unanchored band has none.
func (b Band) Strikes() []int {
	if b.All() || b.Center <= 0 || b.Step <= 0 {
		return nil
	}
	out := make([]int, 0, 2*b.Width+1)
	for i := -b.Width; i <= b.Width; i++ {
		if s := b.Center + i*b.Step; s > 0 {
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether strike falls inside the band.
func (b Band) Contains(strike int) bool {
	if b.All() {
		return true
	}
	if b.Center <= 0 || b.Step <= 0 {
		return false
	}
	d := strike - b.Center
	if d < 0 {
		d = -d
	}
	return d <= b.Width*b.Step
}

// Figure is one signed daily value for a strike and option side, already
// summed over participants.
type Figure struct {
	Date   time.Time
	Side   domain.InstrumentType
	Strike int
	Value  domain.Quantity
}

type figureKey struct {
	date   time.Time
	side   domain.InstrumentType
	strike int
}

func collect(index map[figureKey]domain.Quantity) []Figure {
	out := make([]Figure, 0, len(index))
	for k, v := range index {
		out = append(out, Figure{Date: k.date, Side: k.side, Strike: k.strike, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case !a.Date.Equal(b.Date):
			return a.Date.Before(b.Date)
		case a.Side != b.Side:
			return a.Side < b.Side
		}
		return a.Strike < b.Strike
	})
	return out
}

// FiguresFromPositions nets long minus short per (date, side, strike) over
// all participants. Futures records are ignored.
func FiguresFromPositions(recs []domain.ParticipantPositionRecord) []Figure {
	index := make(map[figureKey]domain.Quantity)
	for _, r := range recs {
		if !r.InstrumentType.IsOption() {
			continue
		}
		k := figureKey{calendar.Day(r.ReportDate), r.InstrumentType, r.StrikePrice}
		index[k] = index[k].Add(r.Net())
	}
	return collect(index)
}

// FiguresFromVolumes sums total volume per (date, side, strike).
func FiguresFromVolumes(recs []domain.ParticipantVolumeRecord) []Figure {
	index := make(map[figureKey]domain.Quantity)
	for _, r := range recs {
		if !r.InstrumentType.IsOption() {
			continue
		}
		k := figureKey{calendar.Day(r.TradeDate), r.InstrumentType, r.StrikePrice}
		index[k] = index[k].Add(r.VolumeTotal)
	}
	return collect(index)
}

// BaselineFromPositions returns the net open interest per strike of one
// side, typically from the report that closed the prior week.
func BaselineFromPositions(recs []domain.ParticipantPositionRecord, side domain.InstrumentType) map[int]domain.Quantity {
	out := make(map[int]domain.Quantity)
	for _, r := range recs {
		if r.InstrumentType != side {
			continue
		}
		out[r.StrikePrice] = out[r.StrikePrice].Add(r.Net())
	}
	return out
}

// OpenInterest is the long and short open interest of one strike summed
// over participants.
type OpenInterest struct {
	Long  domain.Quantity
	Short domain.Quantity
}

// Net returns long minus short.
func (o OpenInterest) Net() domain.Quantity { return o.Long.Sub(o.Short) }

// ClosingFromPositions sums long and short open interest per strike of one
// side, typically from the report that closes the week.
func ClosingFromPositions(recs []domain.ParticipantPositionRecord, side domain.InstrumentType) map[int]OpenInterest {
	out := make(map[int]OpenInterest)
	for _, r := range recs {
		if r.InstrumentType != side {
			continue
		}
		oi := out[r.StrikePrice]
		oi.Long = oi.Long.Add(r.LongQuantity)
		oi.Short = oi.Short.Add(r.ShortQuantity)
		out[r.StrikePrice] = oi
	}
	return out
}

// StrikeRequest is one strike ladder to build.
type StrikeRequest struct {
	Side     domain.InstrumentType
	Days     []time.Time
	Figures  []Figure
	Baseline map[int]domain.Quantity
	Closing  map[int]OpenInterest
	Band     Band
}

// AggregateStrikes folds daily figures into one row per strike for one
// option side, ascending by strike.
//
// A strike gets a row when it has a figure inside the window, a baseline
// or closing value, or lies in the band. Each row has one cell per
// requested day; a day without figures is absent, and so is the week total
// when every cell is. Baseline and closing open interest are copied as
// given.
func AggregateStrikes(req StrikeRequest) ([]domain.StrikeAggregateRow, error) {
	if !req.Side.IsOption() {
		return nil, fmt.Errorf("strike aggregation needs PUT or CALL, got %q", req.Side)
	}
	days := make([]time.Time, len(req.Days))
	pos := make(map[time.Time]int, len(req.Days))
	for i, d := range req.Days {
		d = calendar.Day(d)
		if _, dup := pos[d]; dup {
			return nil, fmt.Errorf("day %s requested twice", d.Format(domain.DateLayout))
		}
		days[i] = d
		pos[d] = i
	}

	cells := make(map[int][]domain.Quantity)
	row := func(strike int) []domain.Quantity {
		c, ok := cells[strike]
		if !ok {
			c = make([]domain.Quantity, len(days))
			cells[strike] = c
		}
		return c
	}
	for _, f := range req.Figures {
		if f.Side != req.Side || f.Strike <= 0 {
			continue
		}
		i, ok := pos[calendar.Day(f.Date)]
		if !ok {
			continue
		}
		c := row(f.Strike)
		c[i] = c[i].Add(f.Value)
	}
	for strike := range req.Baseline {
		if strike > 0 {
			row(strike)
		}
	}
	for strike := range req.Closing {
		if strike > 0 {
			row(strike)
		}
	}
	for _, strike := range req.Band.Strikes() {
		row(strike)
	}

	strikes := make([]int, 0, len(cells))
	for s := range cells {
		strikes = append(strikes, s)
	}
	sort.Ints(strikes)

	out := make([]domain.StrikeAggregateRow, 0, len(strikes))
	for _, s := range strikes {
		c := cells[s]
		daily := make([]domain.DailyCell, len(days))
		for i, d := range days {
			daily[i] = domain.DailyCell{Date: d, Value: c[i]}
		}
		closing := req.Closing[s]
		out = append(out, domain.StrikeAggregateRow{
			StrikePrice:              s,
			Side:                     req.Side,
			PriorWeekNetOpenInterest: req.Baseline[s],
			Daily:                    daily,
			WeekTotalVolume:          domain.SumQuantities(c...),
			ClosingLong:              closing.Long,
			ClosingShort:             closing.Short,
			ClosingNetOpenInterest:   closing.Net(),
			InBand:                   req.Band.Contains(s),
		})
	}
	return out, nil
}
