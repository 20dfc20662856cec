package domain

import "time"

// DailyCell is one trading day's figure in a weekly aggregate row.
// An absent Value means no data was available for that day.
type DailyCell struct {
	Date  time.Time `json:"date"`
	Value Quantity  `json:"value"`
}

// StrikeAggregateRow collapses all participants' figures for one strike and
// one option side over a reporting window. The closing fields hold the open
// interest of the report that closes the window and are absent until it is
// published.
type StrikeAggregateRow struct {
	StrikePrice              int            `json:"strike_price"`
	Side                     InstrumentType `json:"side"`
	PriorWeekNetOpenInterest Quantity       `json:"prior_week_net_open_interest"`
	Daily                    []DailyCell    `json:"daily"`
	WeekTotalVolume          Quantity       `json:"week_total_volume"`
	ClosingLong              Quantity       `json:"closing_oi_long"`
	ClosingShort             Quantity       `json:"closing_oi_short"`
	ClosingNetOpenInterest   Quantity       `json:"closing_oi_net"`
	InBand                   bool           `json:"in_band"`
}

// Cell returns the daily value for date, absent when the date is outside the window.
func (r StrikeAggregateRow) Cell(date time.Time) Quantity {
	for _, c := range r.Daily {
		if c.Date.Equal(date) {
			return c.Value
		}
	}
	return None()
}

// ParticipantAggregateRow is the weekly futures view for one participant.
type ParticipantAggregateRow struct {
	ParticipantID     string      `json:"participant_id"`
	ParticipantName   string      `json:"participant_name"`
	StartLong         Quantity    `json:"start_oi_long"`
	StartShort        Quantity    `json:"start_oi_short"`
	StartNet          Quantity    `json:"start_oi_net"`
	Daily             []DailyCell `json:"daily"`
	WeekTotalVolume   Quantity    `json:"week_total_volume"`
	EndLong           Quantity    `json:"end_oi_long"`
	EndShort          Quantity    `json:"end_oi_short"`
	EndNet            Quantity    `json:"end_oi_net"`
	NetChange         Quantity    `json:"oi_net_change"`
	InferredDirection Direction   `json:"inferred_direction,omitempty"`
	Avg20d            Quantity    `json:"avg_20d"`
	Max20d            Quantity    `json:"max_20d"`
}

// WeekDefinition is a trading week bounded by two open interest report dates.
// EndOIDate is nil for the in-progress week whose report is not yet published.
type WeekDefinition struct {
	StartOIDate time.Time   `json:"start_oi_date"`
	EndOIDate   *time.Time  `json:"end_oi_date,omitempty"`
	TradingDays []time.Time `json:"trading_days"`
	Label       string      `json:"label"`
}

// InProgress reports whether the closing report of the week is still pending.
func (w WeekDefinition) InProgress() bool { return w.EndOIDate == nil }
