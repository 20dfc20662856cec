package exporter

import (
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"jpxcli/pkg/contracts/domain"
)

// Parquet rows mirror the tables. Absent quantities are null; aggregate
// rows keep their days as a repeated group.

type positionRow struct {
	ReportDate      string   `parquet:"report_date"`
	Product         string   `parquet:"product"`
	ContractMonth   string   `parquet:"contract_month"`
	InstrumentType  string   `parquet:"instrument_type"`
	StrikePrice     int32    `parquet:"strike_price,optional"`
	ParticipantID   string   `parquet:"participant_id"`
	ParticipantName string   `parquet:"participant_name"`
	LongQuantity    *float64 `parquet:"long_quantity,optional"`
	ShortQuantity   *float64 `parquet:"short_quantity,optional"`
}

type volumeRow struct {
	TradeDate         string   `parquet:"trade_date"`
	Product           string   `parquet:"product"`
	ContractMonth     string   `parquet:"contract_month"`
	InstrumentType    string   `parquet:"instrument_type"`
	StrikePrice       int32    `parquet:"strike_price,optional"`
	Rank              int32    `parquet:"rank"`
	ParticipantID     string   `parquet:"participant_id"`
	ParticipantName   string   `parquet:"participant_name"`
	ParticipantNameEN string   `parquet:"participant_name_en"`
	VolumeTotal       *float64 `parquet:"volume_total,optional"`
	VolumeDay         *float64 `parquet:"volume_day_session,optional"`
	VolumeNight       *float64 `parquet:"volume_night_session,optional"`
}

type balanceRow struct {
	ReportDate     string   `parquet:"report_date"`
	ContractMonth  string   `parquet:"contract_month"`
	InstrumentType string   `parquet:"instrument_type"`
	StrikePrice    int32    `parquet:"strike_price"`
	TradingVolume  *float64 `parquet:"trading_volume,optional"`
	CurrentOI      *float64 `parquet:"current_oi,optional"`
	NetChange      *float64 `parquet:"net_change,optional"`
	PreviousOI     *float64 `parquet:"previous_oi,optional"`
}

type gexRow struct {
	StrikePrice int32   `parquet:"strike_price"`
	PutOI       float64 `parquet:"put_oi"`
	CallOI      float64 `parquet:"call_oi"`
	CallGEX     float64 `parquet:"call_gex"`
	PutGEX      float64 `parquet:"put_gex"`
	NetGEX      float64 `parquet:"net_gex"`
}

type dayRow struct {
	Date  string   `parquet:"date"`
	Value *float64 `parquet:"value,optional"`
}

type strikeRow struct {
	StrikePrice    int32    `parquet:"strike_price"`
	Side           string   `parquet:"side"`
	PriorWeekNetOI *float64 `parquet:"prior_week_net_oi,optional"`
	Daily          []dayRow `parquet:"daily,list"`
	WeekTotal      *float64 `parquet:"week_total,optional"`
	ClosingLong    *float64 `parquet:"closing_oi_long,optional"`
	ClosingShort   *float64 `parquet:"closing_oi_short,optional"`
	ClosingNetOI   *float64 `parquet:"closing_oi_net,optional"`
	InBand         bool     `parquet:"in_band"`
}

type participantRow struct {
	ParticipantID     string   `parquet:"participant_id"`
	ParticipantName   string   `parquet:"participant_name"`
	StartLong         *float64 `parquet:"start_oi_long,optional"`
	StartShort        *float64 `parquet:"start_oi_short,optional"`
	StartNet          *float64 `parquet:"start_oi_net,optional"`
	Daily             []dayRow `parquet:"daily,list"`
	WeekTotal         *float64 `parquet:"week_total,optional"`
	EndLong           *float64 `parquet:"end_oi_long,optional"`
	EndShort          *float64 `parquet:"end_oi_short,optional"`
	EndNet            *float64 `parquet:"end_oi_net,optional"`
	NetChange         *float64 `parquet:"oi_net_change,optional"`
	InferredDirection string   `parquet:"inferred_direction"`
	Avg20d            *float64 `parquet:"avg_20d,optional"`
	Max20d            *float64 `parquet:"max_20d,optional"`
}

func (p positions) writeParquet(w io.Writer) error {
	rows := make([]positionRow, len(p))
	for i, r := range p {
		rows[i] = positionRow{
			ReportDate: day(r.ReportDate), Product: r.Product, ContractMonth: r.ContractMonth,
			InstrumentType: string(r.InstrumentType), StrikePrice: int32(r.StrikePrice),
			ParticipantID: r.ParticipantID, ParticipantName: r.ParticipantName,
			LongQuantity: r.LongQuantity.Ptr(), ShortQuantity: r.ShortQuantity.Ptr(),
		}
	}
	return parquet.Write(w, rows)
}

func (v volumes) writeParquet(w io.Writer) error {
	rows := make([]volumeRow, len(v))
	for i, r := range v {
		rows[i] = volumeRow{
			TradeDate: day(r.TradeDate), Product: r.Product, ContractMonth: r.ContractMonth,
			InstrumentType: string(r.InstrumentType), StrikePrice: int32(r.StrikePrice), Rank: int32(r.Rank),
			ParticipantID: r.ParticipantID, ParticipantName: r.ParticipantName, ParticipantNameEN: r.ParticipantNameEN,
			VolumeTotal: r.VolumeTotal.Ptr(), VolumeDay: r.VolumeDay.Ptr(), VolumeNight: r.VolumeNight.Ptr(),
		}
	}
	return parquet.Write(w, rows)
}

func (b balances) writeParquet(w io.Writer) error {
	rows := make([]balanceRow, len(b))
	for i, r := range b {
		rows[i] = balanceRow{
			ReportDate: day(r.ReportDate), ContractMonth: r.ContractMonth,
			InstrumentType: string(r.InstrumentType), StrikePrice: int32(r.StrikePrice),
			TradingVolume: r.TradingVolume.Ptr(), CurrentOI: r.CurrentOI.Ptr(),
			NetChange: r.NetChange.Ptr(), PreviousOI: r.PreviousOI.Ptr(),
		}
	}
	return parquet.Write(w, rows)
}

func (l ladder) writeParquet(w io.Writer) error {
	rows := make([]strikeRow, len(l.rows))
	for i, r := range l.rows {
		rows[i] = strikeRow{
			StrikePrice: int32(r.StrikePrice), Side: string(r.Side),
			PriorWeekNetOI: r.PriorWeekNetOpenInterest.Ptr(),
			Daily:          dayRows(r.Daily),
			WeekTotal:      r.WeekTotalVolume.Ptr(),
			ClosingLong:    r.ClosingLong.Ptr(),
			ClosingShort:   r.ClosingShort.Ptr(),
			ClosingNetOI:   r.ClosingNetOpenInterest.Ptr(),
			InBand:         r.InBand,
		}
	}
	return parquet.Write(w, rows)
}

func (wk weekly) writeParquet(w io.Writer) error {
	rows := make([]participantRow, len(wk))
	for i, r := range wk {
		rows[i] = participantRow{
			ParticipantID: r.ParticipantID, ParticipantName: r.ParticipantName,
			StartLong: r.StartLong.Ptr(), StartShort: r.StartShort.Ptr(), StartNet: r.StartNet.Ptr(),
			Daily:     dayRows(r.Daily),
			WeekTotal: r.WeekTotalVolume.Ptr(),
			EndLong:   r.EndLong.Ptr(), EndShort: r.EndShort.Ptr(), EndNet: r.EndNet.Ptr(),
			NetChange: r.NetChange.Ptr(), InferredDirection: string(r.InferredDirection),
			Avg20d: r.Avg20d.Ptr(), Max20d: r.Max20d.Ptr(),
		}
	}
	return parquet.Write(w, rows)
}

func dayRows(cells []domain.DailyCell) []dayRow {
	out := make([]dayRow, len(cells))
	for i, c := range cells {
		out[i] = dayRow{Date: day(c.Date), Value: c.Value.Ptr()}
	}
	return out
}

func day(t time.Time) string { return t.Format(domain.DateLayout) }

func (g gex) writeParquet(w io.Writer) error {
	rows := make([]gexRow, len(g.Rows))
	for i, r := range g.Rows {
		rows[i] = gexRow{
			StrikePrice: int32(r.StrikePrice), PutOI: r.PutOI, CallOI: r.CallOI,
			CallGEX: r.CallGEX, PutGEX: r.PutGEX, NetGEX: r.NetGEX,
		}
	}
	return parquet.Write(w, rows)
}
