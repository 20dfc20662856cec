package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"

	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

// PositionReport is the parsed content of an open interest report.
type PositionReport struct {
	Kind        domain.ReportKind                  `json:"kind"`
	Metadata    ReportMetadata                     `json:"metadata"`
	Sections    []Section                          `json:"sections"`
	Records     []domain.ParticipantPositionRecord `json:"records"`
	Diagnostics []Diagnostic                       `json:"diagnostics,omitempty"`
}

var positionRequired = []ColumnRole{RoleParticipantID, RoleQuantity}

// ParseFuturesOI parses the weekly futures open interest report. Each
// product section holds a near-month and a far-month table side by side,
// each listing net sellers and net buyers.
func ParseFuturesOI(g *sheet.Grid, cfg Config) (*PositionReport, error) {
	meta, err := ExtractMetadata(g, cfg.Metadata)
	if err != nil {
		return nil, err
	}
	sections, err := LocateSections(g, cfg.locator(domain.ReportFuturesOI))
	if err != nil {
		return nil, err
	}

	rep := &PositionReport{Kind: domain.ReportFuturesOI, Metadata: meta}
	for _, sec := range sections {
		if !cfg.wantProduct(sec.Kind) {
			cfg.logger().Debug("futures section skipped", slog.String("product", sec.Kind))
			continue
		}
		recs, diags, err := parsePositionSection(g, sec, cfg, SectionContext{
			Kind:       sec.Kind,
			ReportDate: meta.ReportDate,
			Product:    sec.Kind,
			Instrument: domain.InstrumentFuture,
		}, append([]ColumnRole{RoleContractMonth}, positionRequired...))
		if err != nil {
			return nil, fmt.Errorf("futures section %s: %w", sec.Kind, err)
		}
		rep.Sections = append(rep.Sections, sec)
		rep.Records = append(rep.Records, recs...)
		rep.Diagnostics = append(rep.Diagnostics, diags...)
	}
	sortPositions(rep.Records)

	cfg.logger().Info("futures open interest parsed",
		slog.String("date", meta.ReportDate.Format(domain.DateLayout)),
		slog.Int("sections", len(rep.Sections)),
		slog.Int("records", len(rep.Records)),
		slog.Int("diagnostics", len(rep.Diagnostics)))
	return rep, nil
}

func parsePositionSection(g *sheet.Grid, sec Section, cfg Config, ctx SectionContext, required []ColumnRole) ([]domain.ParticipantPositionRecord, []Diagnostic, error) {
	cols, err := BuildColumnMap(g, sec, cfg.Headers, cfg.Markers, required)
	if err != nil {
		return nil, nil, err
	}
	rows, diags := ParseSection(g, sec, cols, cfg.rowOptions())
	recs, cdiags, err := Consolidate(rows, ctx)
	if err != nil {
		return nil, nil, err
	}
	for i := range cdiags {
		cdiags[i].Sheet = g.Name
	}
	return recs, append(diags, cdiags...), nil
}

func sortPositions(recs []domain.ParticipantPositionRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		return positionKey{a.Product, a.ContractMonth, a.InstrumentType, a.StrikePrice, a.ParticipantID}.
			less(positionKey{b.Product, b.ContractMonth, b.InstrumentType, b.StrikePrice, b.ParticipantID})
	})
}
