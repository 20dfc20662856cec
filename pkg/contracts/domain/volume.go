package domain

import (
	"fmt"
	"math"
	"time"
)

// ParticipantVolumeRecord is one participant's traded volume for one
// instrument, attributed to the trading day its session belongs to.
type ParticipantVolumeRecord struct {
	TradeDate         time.Time      `json:"trade_date"`
	Product           string         `json:"product"`
	ContractMonth     string         `json:"contract_month"`
	InstrumentType    InstrumentType `json:"instrument_type"`
	StrikePrice       int            `json:"strike_price,omitempty"`
	ParticipantID     string         `json:"participant_id"`
	ParticipantName   string         `json:"participant_name"`
	ParticipantNameEN string         `json:"participant_name_en,omitempty"`
	Rank              int            `json:"rank"`
	VolumeTotal       Quantity       `json:"volume_total"`
	VolumeDay         Quantity       `json:"volume_day_session"`
	VolumeNight       Quantity       `json:"volume_night_session"`
}

// Validate checks the strike pairing and total = day + night.
func (r ParticipantVolumeRecord) Validate() error {
	if err := validateStrike(r.InstrumentType, r.StrikePrice); err != nil {
		return err
	}
	if r.ParticipantID == "" {
		return fmt.Errorf("volume record: participant id is required")
	}
	if r.Rank < 1 {
		return fmt.Errorf("volume record %s: rank must be 1-based, got %d", r.ParticipantID, r.Rank)
	}
	total, ok := r.VolumeTotal.Get()
	if !ok {
		return nil
	}
	parts := SumQuantities(r.VolumeDay, r.VolumeNight).Or(0)
	if math.Abs(total-parts) > Tolerance {
		return fmt.Errorf("volume record %s: total %v != day %v + night %v",
			r.ParticipantID, total, r.VolumeDay, r.VolumeNight)
	}
	return nil
}

// ContractKey groups volume records that are ranked against each other.
func (r ParticipantVolumeRecord) ContractKey() string {
	return fmt.Sprintf("%s|%s|%s|%d|%s", r.TradeDate.Format(DateLayout), r.Product, r.ContractMonth, r.StrikePrice, r.InstrumentType)
}

// DateLayout is the canonical calendar date layout.
const DateLayout = "2006-01-02"

// DailyOIBalance is the per-strike open interest balance published daily.
type DailyOIBalance struct {
	ReportDate     time.Time      `json:"report_date"`
	ContractMonth  string         `json:"contract_month"`
	InstrumentType InstrumentType `json:"instrument_type"`
	StrikePrice    int            `json:"strike_price"`
	TradingVolume  Quantity       `json:"trading_volume"`
	CurrentOI      Quantity       `json:"current_oi"`
	NetChange      Quantity       `json:"net_change"`
	PreviousOI     Quantity       `json:"previous_oi"`
}
