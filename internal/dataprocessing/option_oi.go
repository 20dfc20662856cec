package dataprocessing

import (
	"fmt"
	"log/slog"

	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

// ParseOptionOI parses the weekly index option open interest report: a PUT
// table and a CALL table side by side, each made of strike blocks whose
// strike sits in a merged cell at the top of the block.
func ParseOptionOI(g *sheet.Grid, cfg Config) (*PositionReport, error) {
	meta, err := ExtractMetadata(g, cfg.Metadata)
	if err != nil {
		return nil, err
	}
	sections, err := LocateSections(g, cfg.locator(domain.ReportOptionOI))
	if err != nil {
		return nil, err
	}

	rep := &PositionReport{Kind: domain.ReportOptionOI, Metadata: meta, Sections: sections}
	for _, sec := range sections {
		instrument, err := domain.ParseInstrumentType(sec.Kind)
		if err != nil || !instrument.IsOption() {
			return nil, fmt.Errorf("option section kind %q is not PUT or CALL", sec.Kind)
		}
		month := meta.ContractMonth
		if cm, ok := ContractMonthFromText(sec.Title); ok {
			month = cm
		}
		recs, diags, err := parsePositionSection(g, sec, cfg, SectionContext{
			Kind:          sec.Kind,
			ReportDate:    meta.ReportDate,
			Product:       cfg.OptionProduct,
			ContractMonth: month,
			Instrument:    instrument,
		}, append([]ColumnRole{RoleStrike}, positionRequired...))
		if err != nil {
			return nil, fmt.Errorf("option section %s: %w", sec.Kind, err)
		}
		rep.Records = append(rep.Records, recs...)
		rep.Diagnostics = append(rep.Diagnostics, diags...)
	}
	sortPositions(rep.Records)

	cfg.logger().Info("option open interest parsed",
		slog.String("date", meta.ReportDate.Format(domain.DateLayout)),
		slog.Int("records", len(rep.Records)),
		slog.Int("diagnostics", len(rep.Diagnostics)))
	return rep, nil
}
