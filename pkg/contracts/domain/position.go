package domain

import (
	"fmt"
	"time"
)

// ParticipantPositionRecord is one participant's open interest for one
// instrument on one report date. Records are values: copy, never share.
type ParticipantPositionRecord struct {
	ReportDate      time.Time      `json:"report_date"`
	Product         string         `json:"product"`
	ContractMonth   string         `json:"contract_month"` // YYMM
	InstrumentType  InstrumentType `json:"instrument_type"`
	StrikePrice     int            `json:"strike_price,omitempty"` // 0 when absent
	ParticipantID   string         `json:"participant_id"`
	ParticipantName string         `json:"participant_name"`
	LongQuantity    Quantity       `json:"long_quantity"`
	ShortQuantity   Quantity       `json:"short_quantity"`
}

// NewPositionRecord builds a record and checks its invariants.
func NewPositionRecord(r ParticipantPositionRecord) (ParticipantPositionRecord, error) {
	if err := r.Validate(); err != nil {
		return ParticipantPositionRecord{}, err
	}
	return r, nil
}

// Validate checks the strike/instrument pairing and that one side is present.
func (r ParticipantPositionRecord) Validate() error {
	if err := validateStrike(r.InstrumentType, r.StrikePrice); err != nil {
		return err
	}
	if r.ParticipantID == "" {
		return fmt.Errorf("position record: participant id is required")
	}
	if !r.LongQuantity.Valid() && !r.ShortQuantity.Valid() {
		return fmt.Errorf("position record %s: both long and short quantities are absent", r.ParticipantID)
	}
	return nil
}

// HasStrike reports whether the record carries a strike price.
func (r ParticipantPositionRecord) HasStrike() bool { return r.StrikePrice > 0 }

// Net returns long minus short. An absent side contributes nothing.
func (r ParticipantPositionRecord) Net() Quantity {
	return r.LongQuantity.Sub(r.ShortQuantity)
}

func validateStrike(t InstrumentType, strike int) error {
	switch t {
	case InstrumentPut, InstrumentCall:
		if strike <= 0 {
			return fmt.Errorf("%s record requires a positive strike price, got %d", t, strike)
		}
	case InstrumentFuture:
		if strike != 0 {
			return fmt.Errorf("FUTURE record must not carry a strike price, got %d", strike)
		}
	default:
		return fmt.Errorf("unknown instrument type %q", t)
	}
	return nil
}
