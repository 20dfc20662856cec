package domain

import (
	"fmt"
	"strings"
)

// InstrumentType identifies the kind of derivative a record refers to.
type InstrumentType string

const (
	InstrumentFuture InstrumentType = "FUTURE"
	InstrumentPut    InstrumentType = "PUT"
	InstrumentCall   InstrumentType = "CALL"
)

// IsOption reports whether the instrument carries a strike price.
func (t InstrumentType) IsOption() bool {
	return t == InstrumentPut || t == InstrumentCall
}

// ParseInstrumentType accepts FUTURE, PUT or CALL in any case.
func ParseInstrumentType(s string) (InstrumentType, error) {
	switch InstrumentType(strings.ToUpper(strings.TrimSpace(s))) {
	case InstrumentFuture:
		return InstrumentFuture, nil
	case InstrumentPut:
		return InstrumentPut, nil
	case InstrumentCall:
		return InstrumentCall, nil
	}
	return "", fmt.Errorf("unknown instrument type %q", s)
}

// SessionTag identifies the trading session a report covers.
type SessionTag string

const (
	SessionDay   SessionTag = "DAY"
	SessionNight SessionTag = "NIGHT"
)

// PositionSide is the side of an open interest figure.
type PositionSide string

const (
	SideNone  PositionSide = ""
	SideLong  PositionSide = "LONG"
	SideShort PositionSide = "SHORT"
)

// Direction is the inferred weekly positioning of a participant.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// ReportKind names the report variants the parsers understand.
type ReportKind string

const (
	ReportFuturesOI ReportKind = "futures-oi"
	ReportOptionOI  ReportKind = "option-oi"
	ReportVolume    ReportKind = "volume"
	ReportDailyOI   ReportKind = "daily-oi"
)

// ParseReportKind validates a report kind string.
func ParseReportKind(s string) (ReportKind, error) {
	switch k := ReportKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ReportFuturesOI, ReportOptionOI, ReportVolume, ReportDailyOI:
		return k, nil
	}
	return "", fmt.Errorf("unknown report kind %q", s)
}
