package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// Sentinels for errors.Is checks. Each typed error below unwraps to one of them.
var (
	ErrSectionNotFound   = stderrors.New("section not found")
	ErrMalformedSection  = stderrors.New("malformed section")
	ErrMetadataNotFound  = stderrors.New("report metadata not found")
	ErrDuplicateRecord   = stderrors.New("duplicate record")
	ErrUnknownTradingDay = stderrors.New("unknown trading day")
)

// SectionNotFoundError is returned when a mandatory section kind is absent from a sheet.
type SectionNotFoundError struct {
	Kind  string
	Sheet string
}

func (e *SectionNotFoundError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("section %q not found in sheet %q", e.Kind, e.Sheet)
	}
	return fmt.Sprintf("section %q not found", e.Kind)
}

func (e *SectionNotFoundError) Unwrap() error { return ErrSectionNotFound }

// AppError exposes the error as an application error of type PARSING.
func (e *SectionNotFoundError) AppError() *AppError {
	return NewParsingError(e.Error(), ErrSectionNotFound).WithContext("kind", e.Kind)
}

// MalformedSectionError reports a layout that matches no known variant
// unambiguously: overlapping sections, a title matching two kinds, or a
// header row missing required columns.
type MalformedSectionError struct {
	Kind   string
	Row    int
	Col    int
	Reason string
}

func (e *MalformedSectionError) Error() string {
	var b strings.Builder
	b.WriteString("malformed section")
	if e.Kind != "" {
		fmt.Fprintf(&b, " %q", e.Kind)
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " at row %d", e.Row)
		if e.Col > 0 {
			fmt.Fprintf(&b, " col %d", e.Col)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func (e *MalformedSectionError) Unwrap() error { return ErrMalformedSection }

func (e *MalformedSectionError) AppError() *AppError {
	return NewParsingError(e.Error(), ErrMalformedSection).
		WithContext("row", e.Row).
		WithContext("col", e.Col)
}

// MetadataNotFoundError is returned when the title band holds no report date.
type MetadataNotFoundError struct {
	Field   string
	Scanned string
}

func (e *MetadataNotFoundError) Error() string {
	if e.Scanned != "" {
		return fmt.Sprintf("report %s not found (scanned %s)", e.Field, e.Scanned)
	}
	return fmt.Sprintf("report %s not found", e.Field)
}

func (e *MetadataNotFoundError) Unwrap() error { return ErrMetadataNotFound }

func (e *MetadataNotFoundError) AppError() *AppError {
	return NewParsingError(e.Error(), ErrMetadataNotFound).WithContext("field", e.Field)
}

// DuplicateRecordError signals the same participant and side twice for one
// key inside a section, which means the columns were misaligned.
type DuplicateRecordError struct {
	Key   string
	Side  string
	Row   int
	First int
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("duplicate %s entry for %s at row %d (first seen at row %d)", e.Side, e.Key, e.Row, e.First)
}

func (e *DuplicateRecordError) Unwrap() error { return ErrDuplicateRecord }

func (e *DuplicateRecordError) AppError() *AppError {
	return NewParsingError(e.Error(), ErrDuplicateRecord).WithContext("key", e.Key)
}

// UnknownTradingDayError is returned when the trading calendar cannot resolve
// the trading day following Date.
type UnknownTradingDayError struct {
	Date time.Time
}

func (e *UnknownTradingDayError) Error() string {
	return fmt.Sprintf("no known trading day after %s", e.Date.Format("2006-01-02"))
}

func (e *UnknownTradingDayError) Unwrap() error { return ErrUnknownTradingDay }

func (e *UnknownTradingDayError) AppError() *AppError {
	return NewAppError(ErrTypeCalendar, e.Error(), ErrUnknownTradingDay)
}

// IsLayoutError reports whether err belongs to the parse taxonomy.
func IsLayoutError(err error) bool {
	return stderrors.Is(err, ErrSectionNotFound) ||
		stderrors.Is(err, ErrMalformedSection) ||
		stderrors.Is(err, ErrMetadataNotFound) ||
		stderrors.Is(err, ErrDuplicateRecord) ||
		stderrors.Is(err, ErrUnknownTradingDay)
}
