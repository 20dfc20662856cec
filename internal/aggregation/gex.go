package aggregation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"jpxcli/internal/calendar"
	"jpxcli/pkg/contracts/domain"
)

// Defaults for GEXRequest fields left at zero.
const (
	DefaultSigma      = 0.20
	DefaultRate       = 0.005
	DefaultMultiplier = 1000.0
)

// SQDate returns the special quotation date of a YYMM contract month: the
// second Friday of the month.
func SQDate(contractMonth string) (time.Time, error) {
	if len(contractMonth) != 4 {
		return time.Time{}, fmt.Errorf("contract month %q: want YYMM", contractMonth)
	}
	yy, err := strconv.Atoi(contractMonth[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("contract month %q: want YYMM", contractMonth)
	}
	mm, err := strconv.Atoi(contractMonth[2:])
	if err != nil || mm < 1 || mm > 12 {
		return time.Time{}, fmt.Errorf("contract month %q: month out of range", contractMonth)
	}
	first := time.Date(2000+yy, time.Month(mm), 1, 0, 0, 0, 0, time.UTC)
	toFriday := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, toFriday+7), nil
}

// GEXRequest is one gamma exposure profile to compute. Open interest is
// keyed by strike.
type GEXRequest struct {
	ContractMonth string
	PutOI         map[int]float64
	CallOI        map[int]float64
	Spot          float64
	Expiry        time.Time
	AsOf          time.Time
	Sigma         float64
	Rate          float64
	Multiplier    float64
}

func (r GEXRequest) withDefaults() GEXRequest {
	if r.Sigma == 0 {
		r.Sigma = DefaultSigma
	}
	if r.Rate == 0 {
		r.Rate = DefaultRate
	}
	if r.Multiplier == 0 {
		r.Multiplier = DefaultMultiplier
	}
	return r
}

// years is the time to expiry in years, never negative.
func (r GEXRequest) years() (float64, int) {
	days := int(calendar.Day(r.Expiry).Sub(calendar.Day(r.AsOf)).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return float64(days) / 365, days
}

func (r GEXRequest) strikes() []int {
	seen := make(map[int]bool, len(r.PutOI)+len(r.CallOI))
	var out []int
	for _, m := range []map[int]float64{r.PutOI, r.CallOI} {
		for k := range m {
			if k > 0 && !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Ints(out)
	return out
}

// CalcGEXProfile computes per-strike gamma exposure from the dealer's side:
// dealers are taken to be short the options customers hold, so calls add
// positive gamma and puts negative. Gamma is the Black-Scholes gamma at a
// flat volatility, zero at or past expiry.
func CalcGEXProfile(req GEXRequest) domain.GEXProfile {
	req = req.withDefaults()
	t, days := req.years()

	p := domain.GEXProfile{
		ContractMonth: req.ContractMonth,
		AsOf:          calendar.Day(req.AsOf),
		Expiry:        calendar.Day(req.Expiry),
		DaysToExpiry:  days,
		Spot:          req.Spot,
		Sigma:         req.Sigma,
		Rows:          []domain.GEXRow{},
	}
	for _, k := range req.strikes() {
		g := bsGamma(req.Spot, float64(k), t, req.Sigma, req.Rate)
		row := domain.GEXRow{StrikePrice: k, PutOI: req.PutOI[k], CallOI: req.CallOI[k]}
		row.CallGEX = g * row.CallOI * req.Spot * req.Multiplier
		row.PutGEX = -g * row.PutOI * req.Spot * req.Multiplier
		row.NetGEX = row.CallGEX + row.PutGEX

		p.TotalCallGEX += row.CallGEX
		p.TotalPutGEX += row.PutGEX
		p.TotalNetGEX += row.NetGEX
		p.Rows = append(p.Rows, row)
	}
	p.FlipPoint = flipPoint(p.Rows, req.Spot)
	return p
}

// CalcGEXSurface evaluates net exposure per strike for spot prices from
// center-span to center+span in steps of step.
func CalcGEXSurface(req GEXRequest, center, span, step float64) (domain.GEXSurface, error) {
	if step <= 0 || span < 0 {
		return domain.GEXSurface{}, fmt.Errorf("surface needs a positive step and a non-negative span")
	}
	if n := 2*span/step + 1; n > 1000 {
		return domain.GEXSurface{}, fmt.Errorf("surface of %.0f spot prices is too large", n)
	}
	req = req.withDefaults()
	t, _ := req.years()
	strikes := req.strikes()

	s := domain.GEXSurface{Strikes: strikes}
	for i := 0; ; i++ {
		spot := center - span + float64(i)*step
		if spot > center+span+step/2 {
			break
		}
		net := make([]float64, len(strikes))
		for j, k := range strikes {
			g := bsGamma(spot, float64(k), t, req.Sigma, req.Rate)
			net[j] = g * (req.CallOI[k] - req.PutOI[k]) * spot * req.Multiplier
		}
		s.Spots = append(s.Spots, spot)
		s.Net = append(s.Net, net)
	}
	return s, nil
}

// bsGamma is the Black-Scholes gamma, identical for calls and puts.
func bsGamma(spot, strike, t, sigma, rate float64) float64 {
	if t <= 0 || sigma <= 0 || spot <= 0 || strike <= 0 {
		return 0
	}
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(spot/strike) + (rate+sigma*sigma/2)*t) / (sigma * sqrtT)
	pdf := math.Exp(-d1*d1/2) / math.Sqrt(2*math.Pi)
	return pdf / (spot * sigma * sqrtT)
}

func flipPoint(rows []domain.GEXRow, spot float64) domain.Quantity {
	best := domain.None()
	bestDist := math.Inf(1)
	for i := 0; i+1 < len(rows); i++ {
		a, b := rows[i], rows[i+1]
		if a.NetGEX*b.NetGEX >= 0 {
			continue
		}
		frac := math.Abs(a.NetGEX) / (math.Abs(a.NetGEX) + math.Abs(b.NetGEX))
		flip := float64(a.StrikePrice) + frac*float64(b.StrikePrice-a.StrikePrice)
		if d := math.Abs(flip - spot); d < bestDist {
			best, bestDist = domain.Some(flip), d
		}
	}
	return best
}

// OIFromBalances takes per-strike open interest from the latest report date
// among the balances of one contract month. Strikes without positive open
// interest are left out.
func OIFromBalances(balances []domain.DailyOIBalance, contractMonth string) (asOf time.Time, put, call map[int]float64) {
	put, call = make(map[int]float64), make(map[int]float64)
	for _, b := range balances {
		if contractMonth != "" && b.ContractMonth != contractMonth {
			continue
		}
		if d := calendar.Day(b.ReportDate); d.After(asOf) {
			asOf = d
		}
	}
	for _, b := range balances {
		if (contractMonth != "" && b.ContractMonth != contractMonth) || !calendar.Day(b.ReportDate).Equal(asOf) {
			continue
		}
		v, ok := b.CurrentOI.Get()
		if !ok || v <= 0 || b.StrikePrice <= 0 {
			continue
		}
		switch b.InstrumentType {
		case domain.InstrumentPut:
			put[b.StrikePrice] += v
		case domain.InstrumentCall:
			call[b.StrikePrice] += v
		}
	}
	return asOf, put, call
}

// OIFromPositions sums the long open interest of participant records per
// strike, on the latest report date. Each contract has one long holder, so
// the long side stands in for total open interest.
func OIFromPositions(recs []domain.ParticipantPositionRecord, contractMonth string) (asOf time.Time, put, call map[int]float64) {
	put, call = make(map[int]float64), make(map[int]float64)
	for _, r := range recs {
		if contractMonth != "" && r.ContractMonth != contractMonth {
			continue
		}
		if d := calendar.Day(r.ReportDate); d.After(asOf) {
			asOf = d
		}
	}
	for _, r := range recs {
		if (contractMonth != "" && r.ContractMonth != contractMonth) || !calendar.Day(r.ReportDate).Equal(asOf) {
			continue
		}
		v, ok := r.LongQuantity.Get()
		if !ok || v <= 0 {
			continue
		}
		switch r.InstrumentType {
		case domain.InstrumentPut:
			put[r.StrikePrice] += v
		case domain.InstrumentCall:
			call[r.StrikePrice] += v
		}
	}
	return asOf, put, call
}
