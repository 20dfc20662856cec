package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"jpxcli/internal/aggregation"
	"jpxcli/internal/calendar"
	"jpxcli/internal/config"
	apperrors "jpxcli/internal/errors"
	"jpxcli/internal/infrastructure"
	"jpxcli/pkg/contracts/domain"
)

// statsLookback is the number of trading days behind the 20-day statistics.
const statsLookback = 20

// AggregationServiceOptions configures an AggregationService.
type AggregationServiceOptions struct {
	Display config.DisplayConfig
	GEX     config.GEXConfig
	// Calendar supplies trading days; without one the dates present in the
	// records stand in.
	Calendar *calendar.Calendar
	Tracer   trace.Tracer
	Logger   *slog.Logger
}

// AggregationService builds the weekly views from parsed records.
type AggregationService struct {
	display  config.DisplayConfig
	gex      config.GEXConfig
	calendar *calendar.Calendar
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewAggregationService creates an aggregation service.
func NewAggregationService(opts AggregationServiceOptions) *AggregationService {
	s := &AggregationService{
		display:  opts.Display,
		gex:      opts.GEX,
		calendar: opts.Calendar,
		tracer:   opts.Tracer,
		logger:   infrastructure.WithComponent(opts.Logger, "aggregation_service"),
	}
	if s.tracer == nil {
		s.tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	return s
}

// WeeklyInput selects one week of the futures participant view.
type WeeklyInput struct {
	OpenInterest  []domain.ParticipantPositionRecord
	Volumes       []domain.ParticipantVolumeRecord
	Product       string
	ContractMonth string
	// Week indexes the available weeks, newest first.
	Week int
}

// WeeklyView is one week of the participant view plus the weeks available.
type WeeklyView struct {
	Week  domain.WeekDefinition            `json:"week"`
	Weeks []string                         `json:"weeks"`
	Rows  []domain.ParticipantAggregateRow `json:"rows"`
}

// Weekly aggregates open interest and volumes per participant for one week.
func (s *AggregationService) Weekly(ctx context.Context, in WeeklyInput) (*WeeklyView, error) {
	_, span := s.tracer.Start(ctx, "aggregate.weekly",
		trace.WithAttributes(
			attribute.String("product", in.Product),
			attribute.String("contract_month", in.ContractMonth),
			attribute.Int("week", in.Week),
		))
	defer span.End()

	oiDates := make([]time.Time, 0, len(in.OpenInterest))
	for _, r := range in.OpenInterest {
		oiDates = append(oiDates, r.ReportDate)
	}
	trading := s.tradingDays(oiDates, volumeDates(in.Volumes))

	weeks := aggregation.BuildWeeks(oiDates, trading.Days(), s.display.MaxWeeks)
	if len(weeks) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "no open interest report dates to build weeks from", ErrNoInputs)
	}
	if in.Week < 0 || in.Week >= len(weeks) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("week %d", in.Week))
	}
	week := weeks[in.Week]

	req := aggregation.ParticipantRequest{
		Week:          week,
		Product:       in.Product,
		ContractMonth: in.ContractMonth,
		StartOI:       onDate(in.OpenInterest, week.StartOIDate),
		Volumes:       in.Volumes,
	}
	if week.EndOIDate != nil {
		req.EndOI = onDate(in.OpenInterest, *week.EndOIDate)
	}

	first := week.StartOIDate.AddDate(0, 0, 1)
	if len(week.TradingDays) > 0 {
		first = week.TradingDays[0]
	}
	req.Stats = aggregation.Stats20d(trading.Before(first, statsLookback), futureVolumes(filterVolumes(in.Volumes, in.Product, in.ContractMonth)))

	rows := aggregation.AggregateParticipants(req)

	labels := make([]string, len(weeks))
	for i, w := range weeks {
		labels[i] = w.Label
	}

	s.logger.DebugContext(ctx, "weekly view built",
		slog.String("week", week.Label),
		slog.Int("participants", len(rows)))
	return &WeeklyView{Week: week, Weeks: labels, Rows: rows}, nil
}

// StrikesInput selects a strike ladder. Figures come from Volumes when
// given, otherwise from the net open interest of Positions.
type StrikesInput struct {
	Side          domain.InstrumentType
	Product       string
	ContractMonth string
	// ParticipantIDs limits every source to these participants; empty
	// keeps them all.
	ParticipantIDs []string
	// Days are the ladder columns. Empty means every trading day from the
	// first to the last date with figures on either side.
	Days      []time.Time
	Positions []domain.ParticipantPositionRecord
	Volumes   []domain.ParticipantVolumeRecord
	// Baseline is the prior week's closing open interest.
	Baseline []domain.ParticipantPositionRecord
	// Closing is the open interest report that closes the week.
	Closing []domain.ParticipantPositionRecord
	Preset  string
	Center  int
}

// Strikes builds the strike ladder for one option side.
func (s *AggregationService) Strikes(ctx context.Context, in StrikesInput) ([]domain.StrikeAggregateRow, error) {
	_, span := s.tracer.Start(ctx, "aggregate.strikes",
		trace.WithAttributes(
			attribute.String("side", string(in.Side)),
			attribute.String("preset", in.Preset),
		))
	defer span.End()

	if !in.Side.IsOption() {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("strike ladder needs PUT or CALL, got %q", in.Side))
	}
	if len(in.Volumes) > 0 && len(in.Positions) > 0 {
		return nil, apperrors.NewAppValidationError("strike ladder takes volumes or positions, not both")
	}
	band, err := s.display.Band(in.Preset, in.Center)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}

	ids := participantSet(in.ParticipantIDs)
	positions := func(recs []domain.ParticipantPositionRecord) []domain.ParticipantPositionRecord {
		return positionsOf(filterPositions(recs, in.Product, in.ContractMonth), ids)
	}

	var figures []aggregation.Figure
	if len(in.Volumes) > 0 {
		figures = aggregation.FiguresFromVolumes(volumesOf(filterVolumes(in.Volumes, in.Product, in.ContractMonth), ids))
	} else {
		figures = aggregation.FiguresFromPositions(positions(in.Positions))
	}

	days := in.Days
	if len(days) == 0 {
		days = s.figureWindow(figures)
	}

	rows, err := aggregation.AggregateStrikes(aggregation.StrikeRequest{
		Side:     in.Side,
		Days:     calendar.New(days).Days(),
		Figures:  figures,
		Baseline: aggregation.BaselineFromPositions(positions(in.Baseline), in.Side),
		Closing:  aggregation.ClosingFromPositions(positions(in.Closing), in.Side),
		Band:     band,
	})
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}

	s.logger.DebugContext(ctx, "strike ladder built",
		slog.String("side", string(in.Side)),
		slog.Int("strikes", len(rows)),
		slog.Int("days", len(days)))
	return rows, nil
}

// GEXInput selects a gamma exposure profile. Open interest comes from
// Balances when given, otherwise from the long side of Positions. Zero
// model inputs fall back to the configured ones.
type GEXInput struct {
	ContractMonth string
	Balances      []domain.DailyOIBalance
	Positions     []domain.ParticipantPositionRecord
	Spot          float64
	Sigma         float64
	Rate          float64
	// AsOf overrides the date of the open interest as the valuation date.
	AsOf time.Time
	// SurfaceSpan and SurfaceStep request a spot by strike surface around
	// Spot; a zero step skips it.
	SurfaceSpan float64
	SurfaceStep float64
}

// GEXView is a gamma exposure profile and the optional surface.
type GEXView struct {
	Profile domain.GEXProfile  `json:"profile"`
	Surface *domain.GEXSurface `json:"surface,omitempty"`
}

// GEX computes the gamma exposure profile of one contract month, valued
// at its special quotation date.
func (s *AggregationService) GEX(ctx context.Context, in GEXInput) (*GEXView, error) {
	_, span := s.tracer.Start(ctx, "aggregate.gex",
		trace.WithAttributes(attribute.String("contract_month", in.ContractMonth)))
	defer span.End()

	expiry, err := aggregation.SQDate(in.ContractMonth)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error())
	}
	if len(in.Balances) > 0 && len(in.Positions) > 0 {
		return nil, apperrors.NewAppValidationError("gamma exposure takes balances or positions, not both")
	}

	var (
		asOf      time.Time
		put, call map[int]float64
	)
	if len(in.Balances) > 0 {
		asOf, put, call = aggregation.OIFromBalances(in.Balances, in.ContractMonth)
	} else {
		asOf, put, call = aggregation.OIFromPositions(in.Positions, in.ContractMonth)
	}
	if len(put)+len(call) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation,
			fmt.Sprintf("no open interest for contract month %s", in.ContractMonth), ErrNoInputs)
	}
	if !in.AsOf.IsZero() {
		asOf = in.AsOf
	}

	req := aggregation.GEXRequest{
		ContractMonth: in.ContractMonth,
		PutOI:         put,
		CallOI:        call,
		Spot:          orDefault(in.Spot, s.gex.Spot),
		Expiry:        expiry,
		AsOf:          asOf,
		Sigma:         orDefault(in.Sigma, s.gex.Sigma),
		Rate:          orDefault(in.Rate, s.gex.Rate),
		Multiplier:    s.gex.Multiplier,
	}
	if req.Spot <= 0 || req.Sigma < 0 {
		return nil, apperrors.NewAppValidationError("spot must be positive and sigma non-negative")
	}

	view := &GEXView{Profile: aggregation.CalcGEXProfile(req)}
	if in.SurfaceStep > 0 {
		surface, err := aggregation.CalcGEXSurface(req, req.Spot, in.SurfaceSpan, in.SurfaceStep)
		if err != nil {
			return nil, apperrors.NewAppValidationError(err.Error())
		}
		view.Surface = &surface
	}

	s.logger.DebugContext(ctx, "gamma exposure computed",
		slog.String("contract_month", in.ContractMonth),
		slog.Int("strikes", len(view.Profile.Rows)),
		slog.Int("days_to_expiry", view.Profile.DaysToExpiry))
	return view, nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// tradingDays is the configured calendar, or the union of the given dates.
func (s *AggregationService) tradingDays(dates ...[]time.Time) *calendar.Calendar {
	if s.calendar != nil {
		return s.calendar
	}
	var all []time.Time
	for _, d := range dates {
		all = append(all, d...)
	}
	return calendar.New(all)
}

func volumeDates(vols []domain.ParticipantVolumeRecord) []time.Time {
	out := make([]time.Time, 0, len(vols))
	for _, v := range vols {
		out = append(out, v.TradeDate)
	}
	return out
}

func onDate(recs []domain.ParticipantPositionRecord, d time.Time) []domain.ParticipantPositionRecord {
	d = calendar.Day(d)
	var out []domain.ParticipantPositionRecord
	for _, r := range recs {
		if calendar.Day(r.ReportDate).Equal(d) {
			out = append(out, r)
		}
	}
	return out
}

func filterPositions(recs []domain.ParticipantPositionRecord, product, month string) []domain.ParticipantPositionRecord {
	if product == "" && month == "" {
		return recs
	}
	var out []domain.ParticipantPositionRecord
	for _, r := range recs {
		if (product == "" || r.Product == product) && (month == "" || r.ContractMonth == month) {
			out = append(out, r)
		}
	}
	return out
}

func filterVolumes(vols []domain.ParticipantVolumeRecord, product, month string) []domain.ParticipantVolumeRecord {
	if product == "" && month == "" {
		return vols
	}
	var out []domain.ParticipantVolumeRecord
	for _, v := range vols {
		if (product == "" || v.Product == product) && (month == "" || v.ContractMonth == month) {
			out = append(out, v)
		}
	}
	return out
}

func futureVolumes(vols []domain.ParticipantVolumeRecord) []domain.ParticipantVolumeRecord {
	var out []domain.ParticipantVolumeRecord
	for _, v := range vols {
		if v.InstrumentType == domain.InstrumentFuture {
			out = append(out, v)
		}
	}
	return out
}

// figureWindow spans the first to the last figure date in trading days, so
// a day without activity still gets a column.
func (s *AggregationService) figureWindow(figures []aggregation.Figure) []time.Time {
	if len(figures) == 0 {
		return nil
	}
	dates := make([]time.Time, len(figures))
	first, last := figures[0].Date, figures[0].Date
	for i, f := range figures {
		dates[i] = f.Date
		if f.Date.Before(first) {
			first = f.Date
		}
		if f.Date.After(last) {
			last = f.Date
		}
	}
	return append([]time.Time{first}, s.tradingDays(dates).TradingDaysBetween(first, last)...)
}

func participantSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func positionsOf(recs []domain.ParticipantPositionRecord, ids map[string]bool) []domain.ParticipantPositionRecord {
	if ids == nil {
		return recs
	}
	var out []domain.ParticipantPositionRecord
	for _, r := range recs {
		if ids[r.ParticipantID] {
			out = append(out, r)
		}
	}
	return out
}

func volumesOf(vols []domain.ParticipantVolumeRecord, ids map[string]bool) []domain.ParticipantVolumeRecord {
	if ids == nil {
		return vols
	}
	var out []domain.ParticipantVolumeRecord
	for _, v := range vols {
		if ids[v.ParticipantID] {
			out = append(out, v)
		}
	}
	return out
}
