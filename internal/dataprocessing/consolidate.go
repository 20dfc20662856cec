package dataprocessing

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	apperrors "jpxcli/internal/errors"
	"jpxcli/pkg/contracts/domain"
)

var yymmPattern = regexp.MustCompile(`^\d{4}$`)

// SectionContext supplies the values a section does not carry per row.
type SectionContext struct {
	Kind          string
	ReportDate    time.Time
	Product       string
	ContractMonth string
	Instrument    domain.InstrumentType
}

type positionKey struct {
	product    string
	month      string
	instrument domain.InstrumentType
	strike     int
	pid        string
}

func (k positionKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%d|%s", k.product, k.month, k.instrument, k.strike, k.pid)
}

func (k positionKey) less(o positionKey) bool {
	switch {
	case k.product != o.product:
		return k.product < o.product
	case k.month != o.month:
		return k.month < o.month
	case k.instrument != o.instrument:
		return k.instrument < o.instrument
	case k.strike != o.strike:
		return k.strike < o.strike
	}
	return k.pid < o.pid
}

type pending struct {
	rec      domain.ParticipantPositionRecord
	longRow  int
	shortRow int
}

// Consolidate merges the long and short rows of one section into one
// position record per (product, contract month, instrument, strike,
// participant). A side that never appears stays absent. The same side twice
// for one key is a DuplicateRecordError. The result is sorted by key, so it
// does not depend on row order.
func Consolidate(rows []RawSectionRow, ctx SectionContext) ([]domain.ParticipantPositionRecord, []Diagnostic, error) {
	merged := make(map[positionKey]*pending)
	var diags []Diagnostic

	for _, row := range rows {
		key, err := rowKey(row, ctx)
		if err != nil {
			return nil, nil, err
		}
		p, ok := merged[key]
		if !ok {
			p = &pending{
				rec: domain.ParticipantPositionRecord{
					ReportDate:     ctx.ReportDate,
					Product:        key.product,
					ContractMonth:  key.month,
					InstrumentType: key.instrument,
					StrikePrice:    key.strike,
					ParticipantID:  key.pid,
				},
				longRow:  -1,
				shortRow: -1,
			}
			merged[key] = p
		}
		if p.rec.ParticipantName == "" {
			p.rec.ParticipantName = row.Text(RoleParticipantName)
		}

		qty := row.Quantity(RoleQuantity)
		switch row.Side {
		case domain.SideLong:
			if p.longRow >= 0 {
				return nil, nil, &apperrors.DuplicateRecordError{
					Key: key.String(), Side: string(domain.SideLong), Row: row.Row + 1, First: p.longRow + 1,
				}
			}
			p.longRow = row.Row
			p.rec.LongQuantity = qty
		case domain.SideShort:
			if p.shortRow >= 0 {
				return nil, nil, &apperrors.DuplicateRecordError{
					Key: key.String(), Side: string(domain.SideShort), Row: row.Row + 1, First: p.shortRow + 1,
				}
			}
			p.shortRow = row.Row
			p.rec.ShortQuantity = qty
		default:
			return nil, nil, &apperrors.MalformedSectionError{
				Kind: ctx.Kind, Row: row.Row + 1,
				Reason: "row carries no position side",
			}
		}
	}

	keys := make([]positionKey, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	out := make([]domain.ParticipantPositionRecord, 0, len(keys))
	for _, k := range keys {
		p := merged[k]
		rec, err := domain.NewPositionRecord(p.rec)
		if err != nil {
			row := max(p.longRow, p.shortRow) + 1
			diags = append(diags, Diagnostic{
				Section: ctx.Kind, Row: row, Severity: SeverityWarning,
				Message: fmt.Sprintf("position dropped: %v", err),
			})
			continue
		}
		out = append(out, rec)
	}
	return out, diags, nil
}

func rowKey(row RawSectionRow, ctx SectionContext) (positionKey, error) {
	key := positionKey{
		product:    ctx.Product,
		month:      ctx.ContractMonth,
		instrument: ctx.Instrument,
		pid:        row.Text(RoleParticipantID),
	}
	if p := row.Text(RoleProduct); p != "" {
		key.product = p
	}
	if m, ok := contractMonthOf(row.Text(RoleContractMonth)); ok {
		key.month = m
	}
	if key.month == "" {
		return positionKey{}, &apperrors.MalformedSectionError{
			Kind: ctx.Kind, Row: row.Row + 1, Reason: "contract month not found",
		}
	}
	if ctx.Instrument.IsOption() {
		strike, ok := row.Int(RoleStrike)
		if !ok || strike <= 0 {
			return positionKey{}, &apperrors.MalformedSectionError{
				Kind: ctx.Kind, Row: row.Row + 1, Reason: "missing strike price",
			}
		}
		key.strike = strike
	}
	return key, nil
}

// contractMonthOf accepts "2026年03月限月" or a bare YYMM.
func contractMonthOf(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if cm, ok := ContractMonthFromText(s); ok {
		return cm, true
	}
	if yymmPattern.MatchString(s) {
		return s, true
	}
	return "", false
}
