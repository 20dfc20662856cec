package exporter

import (
	"io"
	"math"
	"strings"

	"jpxcli/pkg/contracts/domain"
)

// Table is the rectangular form of a dataset. Cells are nil, string,
// float64, int, bool or time.Time.
type Table struct {
	Header []string
	Rows   [][]interface{}
	// Highlight marks rows to emphasise in formats that support styling.
	Highlight []bool
}

// Dataset is one exportable result set.
type Dataset interface {
	// Name is the file stem and sheet name, e.g. "strikes_put".
	Name() string
	Table() Table
	// Value is what the JSON format encodes.
	Value() interface{}
	writeParquet(w io.Writer) error
}

type positions []domain.ParticipantPositionRecord

// PositionRecords exports open interest records.
func PositionRecords(recs []domain.ParticipantPositionRecord) Dataset { return positions(recs) }

func (positions) Name() string         { return "positions" }
func (p positions) Value() interface{} { return []domain.ParticipantPositionRecord(p) }

func (p positions) Table() Table {
	t := Table{Header: []string{
		"report_date", "product", "contract_month", "instrument_type", "strike_price",
		"participant_id", "participant_name", "long_quantity", "short_quantity", "net",
	}}
	for _, r := range p {
		t.Rows = append(t.Rows, []interface{}{
			r.ReportDate, r.Product, r.ContractMonth, string(r.InstrumentType), strike(r.StrikePrice),
			r.ParticipantID, r.ParticipantName, quantity(r.LongQuantity), quantity(r.ShortQuantity), quantity(r.Net()),
		})
	}
	return t
}

type volumes []domain.ParticipantVolumeRecord

// VolumeRecords exports participant volume records.
func VolumeRecords(recs []domain.ParticipantVolumeRecord) Dataset { return volumes(recs) }

func (volumes) Name() string         { return "volumes" }
func (v volumes) Value() interface{} { return []domain.ParticipantVolumeRecord(v) }

func (v volumes) Table() Table {
	t := Table{Header: []string{
		"trade_date", "product", "contract_month", "instrument_type", "strike_price", "rank",
		"participant_id", "participant_name", "participant_name_en",
		"volume_total", "volume_day_session", "volume_night_session",
	}}
	for _, r := range v {
		t.Rows = append(t.Rows, []interface{}{
			r.TradeDate, r.Product, r.ContractMonth, string(r.InstrumentType), strike(r.StrikePrice), r.Rank,
			r.ParticipantID, r.ParticipantName, r.ParticipantNameEN,
			quantity(r.VolumeTotal), quantity(r.VolumeDay), quantity(r.VolumeNight),
		})
	}
	return t
}

type balances []domain.DailyOIBalance

// DailyOIBalances exports per-strike daily open interest balances.
func DailyOIBalances(recs []domain.DailyOIBalance) Dataset { return balances(recs) }

func (balances) Name() string         { return "daily_oi" }
func (b balances) Value() interface{} { return []domain.DailyOIBalance(b) }

func (b balances) Table() Table {
	t := Table{Header: []string{
		"report_date", "contract_month", "instrument_type", "strike_price",
		"trading_volume", "current_oi", "net_change", "previous_oi",
	}}
	for _, r := range b {
		t.Rows = append(t.Rows, []interface{}{
			r.ReportDate, r.ContractMonth, string(r.InstrumentType), strike(r.StrikePrice),
			quantity(r.TradingVolume), quantity(r.CurrentOI), quantity(r.NetChange), quantity(r.PreviousOI),
		})
	}
	return t
}

type ladder struct {
	side domain.InstrumentType
	rows []domain.StrikeAggregateRow
}

// StrikeLadder exports the strike rows of one option side. Every row is
// expected to carry the same days.
func StrikeLadder(side domain.InstrumentType, rows []domain.StrikeAggregateRow) Dataset {
	return ladder{side: side, rows: rows}
}

func (l ladder) Name() string       { return "strikes_" + strings.ToLower(string(l.side)) }
func (l ladder) Value() interface{} { return l.rows }

func (l ladder) Table() Table {
	var days []domain.DailyCell
	if len(l.rows) > 0 {
		days = l.rows[0].Daily
	}
	t := Table{Header: append(append([]string{"strike_price", "side", "prior_week_net_oi"},
		dayHeaders(days)...), "week_total", "closing_oi_long", "closing_oi_short", "closing_oi_net", "in_band")}
	for _, r := range l.rows {
		row := []interface{}{r.StrikePrice, string(r.Side), quantity(r.PriorWeekNetOpenInterest)}
		for _, c := range r.Daily {
			row = append(row, quantity(c.Value))
		}
		row = append(row, quantity(r.WeekTotalVolume),
			quantity(r.ClosingLong), quantity(r.ClosingShort), quantity(r.ClosingNetOpenInterest), r.InBand)
		t.Rows = append(t.Rows, row)
		t.Highlight = append(t.Highlight, r.InBand)
	}
	return t
}

type weekly []domain.ParticipantAggregateRow

// ParticipantWeek exports one week of the participant view.
func ParticipantWeek(rows []domain.ParticipantAggregateRow) Dataset { return weekly(rows) }

func (weekly) Name() string         { return "weekly" }
func (w weekly) Value() interface{} { return []domain.ParticipantAggregateRow(w) }

func (w weekly) Table() Table {
	var days []domain.DailyCell
	if len(w) > 0 {
		days = w[0].Daily
	}
	header := []string{"participant_id", "participant_name", "start_oi_long", "start_oi_short", "start_oi_net"}
	header = append(header, dayHeaders(days)...)
	header = append(header, "week_total", "end_oi_long", "end_oi_short", "end_oi_net",
		"oi_net_change", "inferred_direction", "avg_20d", "max_20d")

	t := Table{Header: header}
	for _, r := range w {
		row := []interface{}{r.ParticipantID, r.ParticipantName,
			quantity(r.StartLong), quantity(r.StartShort), quantity(r.StartNet)}
		for _, c := range r.Daily {
			row = append(row, quantity(c.Value))
		}
		row = append(row, quantity(r.WeekTotalVolume),
			quantity(r.EndLong), quantity(r.EndShort), quantity(r.EndNet),
			quantity(r.NetChange), string(r.InferredDirection),
			quantity(r.Avg20d), quantity(r.Max20d))
		t.Rows = append(t.Rows, row)
		t.Highlight = append(t.Highlight, r.InferredDirection != "" && r.InferredDirection != domain.DirectionNeutral)
	}
	return t
}

type gex domain.GEXProfile

// GEXProfile exports the per-strike rows of a gamma exposure profile. The
// strike nearest the spot price is highlighted.
func GEXProfile(p domain.GEXProfile) Dataset { return gex(p) }

func (g gex) Name() string       { return "gex_" + g.ContractMonth }
func (g gex) Value() interface{} { return domain.GEXProfile(g) }

func (g gex) Table() Table {
	t := Table{Header: []string{"strike_price", "put_oi", "call_oi", "call_gex", "put_gex", "net_gex"}}
	nearest := -1
	for i, r := range g.Rows {
		if nearest < 0 || math.Abs(float64(r.StrikePrice)-g.Spot) < math.Abs(float64(g.Rows[nearest].StrikePrice)-g.Spot) {
			nearest = i
		}
		t.Rows = append(t.Rows, []interface{}{r.StrikePrice, r.PutOI, r.CallOI, r.CallGEX, r.PutGEX, r.NetGEX})
	}
	t.Highlight = make([]bool, len(g.Rows))
	if nearest >= 0 {
		t.Highlight[nearest] = true
	}
	return t
}

func dayHeaders(days []domain.DailyCell) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Date.Format(domain.DateLayout)
	}
	return out
}

// strike is nil for futures so they export as an empty cell.
func strike(s int) interface{} {
	if s <= 0 {
		return nil
	}
	return s
}
