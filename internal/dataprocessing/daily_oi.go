package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"

	apperrors "jpxcli/internal/errors"
	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

// DailyOIReport is the per-strike open interest balance of one day.
type DailyOIReport struct {
	Metadata    ReportMetadata          `json:"metadata"`
	Balances    []domain.DailyOIBalance `json:"balances"`
	Diagnostics []Diagnostic            `json:"diagnostics,omitempty"`
}

var dailyOIRequired = []ColumnRole{RoleContract, RoleCurrentOI}

// ParseDailyOI parses the daily open interest balance workbook. The option
// balance lives on cfg.DailyOISheet with PUT and CALL tables side by side;
// their rows are not aligned and contract months are separated by summary
// rows.
func ParseDailyOI(wb *sheet.Workbook, cfg Config) (*DailyOIReport, error) {
	g, err := wb.Sheet(cfg.DailyOISheet)
	if err != nil {
		return nil, &apperrors.SectionNotFoundError{Kind: string(domain.ReportDailyOI), Sheet: fmt.Sprintf("#%d", cfg.DailyOISheet+1)}
	}
	meta, err := ExtractMetadata(g, cfg.Metadata)
	if err != nil {
		return nil, err
	}
	sections, err := LocateSections(g, cfg.locator(domain.ReportDailyOI))
	if err != nil {
		return nil, err
	}

	rep := &DailyOIReport{Metadata: meta}
	for _, sec := range sections {
		want, err := domain.ParseInstrumentType(sec.Kind)
		if err != nil {
			return nil, err
		}
		cols, err := BuildColumnMap(g, sec, cfg.Headers, cfg.Markers, dailyOIRequired)
		if err != nil {
			return nil, err
		}
		opts := cfg.rowOptions()
		opts.Identity = RoleContract
		rows, diags := ParseSection(g, sec, cols, opts)
		rep.Diagnostics = append(rep.Diagnostics, diags...)
		for _, row := range rows {
			desc, ok := ParseContractDescriptor(row.Text(RoleContract))
			if !ok || desc.Instrument != want {
				rep.Diagnostics = append(rep.Diagnostics, Diagnostic{
					Sheet: g.Name, Section: sec.Kind, Row: row.Row + 1, Severity: SeverityWarning,
					Message: fmt.Sprintf("contract %q is not a %s option", row.Text(RoleContract), want),
				})
				continue
			}
			rep.Balances = append(rep.Balances, domain.DailyOIBalance{
				ReportDate:     meta.ReportDate,
				ContractMonth:  desc.ContractMonth,
				InstrumentType: desc.Instrument,
				StrikePrice:    desc.Strike,
				TradingVolume:  row.Quantity(RoleTradingVolume),
				CurrentOI:      row.Quantity(RoleCurrentOI),
				NetChange:      row.Quantity(RoleNetChange),
				PreviousOI:     row.Quantity(RolePreviousOI),
			})
		}
	}

	sort.SliceStable(rep.Balances, func(i, j int) bool {
		a, b := rep.Balances[i], rep.Balances[j]
		if a.ContractMonth != b.ContractMonth {
			return a.ContractMonth < b.ContractMonth
		}
		if a.InstrumentType != b.InstrumentType {
			return a.InstrumentType < b.InstrumentType
		}
		return a.StrikePrice < b.StrikePrice
	})

	cfg.logger().Info("daily open interest parsed",
		slog.String("date", meta.ReportDate.Format(domain.DateLayout)),
		slog.Int("balances", len(rep.Balances)))
	return rep, nil
}
