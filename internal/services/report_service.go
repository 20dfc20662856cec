package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"jpxcli/internal/calendar"
	"jpxcli/internal/dataprocessing"
	apperrors "jpxcli/internal/errors"
	"jpxcli/internal/infrastructure"
	"jpxcli/internal/sheet"
	"jpxcli/pkg/contracts/domain"
)

// ReportInput is one workbook to parse.
type ReportInput struct {
	Name string
	Kind domain.ReportKind
	Data []byte
}

// ParsedReport is the normalized content of one workbook. Only the slice
// matching Kind is populated.
type ParsedReport struct {
	Name        string                             `json:"name"`
	Kind        domain.ReportKind                  `json:"kind"`
	Metadata    dataprocessing.ReportMetadata      `json:"metadata"`
	TradeDate   *time.Time                         `json:"trade_date,omitempty"`
	Positions   []domain.ParticipantPositionRecord `json:"positions,omitempty"`
	Volumes     []domain.ParticipantVolumeRecord   `json:"volumes,omitempty"`
	Balances    []domain.DailyOIBalance            `json:"balances,omitempty"`
	Diagnostics []dataprocessing.Diagnostic        `json:"diagnostics"`
}

// BatchResult is the outcome of one input of a batch. Exactly one of Report
// and Err is set.
type BatchResult struct {
	Name   string
	Report *ParsedReport
	Err    error
}

// ReportServiceOptions configures a ReportService.
type ReportServiceOptions struct {
	Parsing dataprocessing.Config
	// Calendar dates night-session volume reports; nil leaves them undatable.
	Calendar       *calendar.Calendar
	MaxConcurrency int
	Tracer         trace.Tracer
	Metrics        *infrastructure.ReportMetrics
	Logger         *slog.Logger
}

// ReportService decodes and parses JPX participant workbooks.
type ReportService struct {
	parsing  dataprocessing.Config
	calendar calendar.Lookup
	limit    int
	tracer   trace.Tracer
	metrics  *infrastructure.ReportMetrics
	logger   *slog.Logger
}

// NewReportService creates a report service.
func NewReportService(opts ReportServiceOptions) *ReportService {
	logger := infrastructure.WithComponent(opts.Logger, "report_service")
	s := &ReportService{
		parsing: opts.Parsing,
		limit:   opts.MaxConcurrency,
		tracer:  opts.Tracer,
		metrics: opts.Metrics,
		logger:  logger,
	}
	if s.parsing.Logger == nil {
		s.parsing.Logger = logger
	}
	if opts.Calendar != nil {
		s.calendar = opts.Calendar
	}
	if s.tracer == nil {
		s.tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	if s.limit <= 0 {
		s.limit = 1
	}
	return s
}

// Parse decodes one workbook and runs the parser for its kind.
func (s *ReportService) Parse(ctx context.Context, in ReportInput) (*ParsedReport, error) {
	ctx, span := s.tracer.Start(ctx, "report.parse",
		trace.WithAttributes(
			attribute.String("report.kind", string(in.Kind)),
			attribute.String("report.name", in.Name),
			attribute.Int("report.bytes", len(in.Data)),
		))
	defer span.End()

	start := time.Now()
	report, err := s.parse(ctx, in)
	diagnostics := 0
	if report != nil {
		diagnostics = len(report.Diagnostics)
	}
	s.metrics.RecordParse(ctx, string(in.Kind), time.Since(start), diagnostics, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "report parse failed",
			slog.String("name", in.Name),
			slog.String("kind", string(in.Kind)),
			slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(attribute.Int("report.diagnostics", diagnostics))
	s.logger.InfoContext(ctx, "report parsed",
		slog.String("name", in.Name),
		slog.String("kind", string(in.Kind)),
		slog.String("report_date", report.Metadata.ReportDate.Format(domain.DateLayout)),
		slog.Int("records", report.Len()),
		slog.Int("diagnostics", diagnostics),
		slog.Duration("duration", time.Since(start)))
	return report, nil
}

func (s *ReportService) parse(ctx context.Context, in ReportInput) (*ParsedReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := domain.ParseReportKind(string(in.Kind)); err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}
	wb, err := sheet.LoadWorkbook(bytes.NewReader(in.Data))
	if err != nil {
		return nil, apperrors.NewParsingError("failed to decode workbook", err).WithContext("name", in.Name)
	}
	return s.ParseWorkbook(in.Name, in.Kind, wb)
}

// ParseWorkbook runs the parser for kind on an already decoded workbook.
// Single-sheet reports read the first sheet.
func (s *ReportService) ParseWorkbook(name string, kind domain.ReportKind, wb *sheet.Workbook) (*ParsedReport, error) {
	out := &ParsedReport{Name: name, Kind: kind}

	if kind == domain.ReportDailyOI {
		rep, err := dataprocessing.ParseDailyOI(wb, s.parsing)
		if err != nil {
			return nil, err
		}
		out.Metadata, out.Balances, out.Diagnostics = rep.Metadata, rep.Balances, rep.Diagnostics
		return out, nil
	}

	g, err := wb.Sheet(0)
	if err != nil {
		return nil, apperrors.NewParsingError("workbook has no sheets", err)
	}

	switch kind {
	case domain.ReportFuturesOI, domain.ReportOptionOI:
		parse := dataprocessing.ParseFuturesOI
		if kind == domain.ReportOptionOI {
			parse = dataprocessing.ParseOptionOI
		}
		rep, err := parse(g, s.parsing)
		if err != nil {
			return nil, err
		}
		out.Metadata, out.Positions, out.Diagnostics = rep.Metadata, rep.Records, rep.Diagnostics
	case domain.ReportVolume:
		rep, err := dataprocessing.ParseVolume(g, s.parsing, s.calendar)
		if err != nil {
			return nil, err
		}
		td := rep.TradeDate
		out.Metadata, out.TradeDate, out.Volumes, out.Diagnostics = rep.Metadata, &td, rep.Records, rep.Diagnostics
	default:
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown report kind %q", kind))
	}
	return out, nil
}

// ParseBatch parses the inputs concurrently, at most MaxConcurrency at a
// time. Results keep input order and one failing workbook does not stop the
// others.
func (s *ReportService) ParseBatch(ctx context.Context, inputs []ReportInput) []BatchResult {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := s.tracer.Start(ctx, "report.parse_batch",
		trace.WithAttributes(attribute.Int("batch.size", len(inputs))))
	defer span.End()

	results := make([]BatchResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)

	for i, in := range inputs {
		results[i].Name = in.Name
		g.Go(func() error {
			results[i].Report, results[i].Err = s.Parse(gctx, in)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.InfoContext(ctx, "batch parsed",
		slog.Int("files", len(inputs)),
		slog.Int("failed", failed))
	return results
}

// ParseFiles reads and parses workbooks of one kind from disk. Results keep
// the order of paths.
func (s *ReportService) ParseFiles(ctx context.Context, kind domain.ReportKind, paths []string) []BatchResult {
	results := make([]BatchResult, len(paths))
	inputs := make([]ReportInput, 0, len(paths))
	slots := make([]int, 0, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			results[i] = BatchResult{
				Name: filepath.Base(p),
				Err:  apperrors.NewStorageError("failed to read workbook", err).WithContext("path", p),
			}
			continue
		}
		inputs = append(inputs, ReportInput{Name: filepath.Base(p), Kind: kind, Data: data})
		slots = append(slots, i)
	}
	for j, r := range s.ParseBatch(ctx, inputs) {
		results[slots[j]] = r
	}
	return results
}

// Len is the number of records of the report's kind.
func (r *ParsedReport) Len() int {
	return len(r.Positions) + len(r.Volumes) + len(r.Balances)
}
