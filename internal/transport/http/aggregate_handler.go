package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "jpxcli/internal/errors"
	"jpxcli/internal/exporter"
	"jpxcli/internal/middleware"
	"jpxcli/internal/services"
	"jpxcli/pkg/contracts/domain"
)

// AggregateHandler builds strike ladders and weekly participant views from
// records posted in the request body.
type AggregateHandler struct {
	aggregates Aggregator
	validator  *middleware.Validator
	exporter   *exporter.Writer
	errs       *apperrors.ErrorHandler
	logger     *slog.Logger
}

// NewAggregateHandler creates an aggregate handler.
func NewAggregateHandler(aggregates Aggregator, v *middleware.Validator, ex *exporter.Writer, errs *apperrors.ErrorHandler, logger *slog.Logger) *AggregateHandler {
	return &AggregateHandler{
		aggregates: aggregates,
		validator:  v,
		exporter:   ex,
		errs:       errs,
		logger:     logger.With(slog.String("handler", "aggregates")),
	}
}

// Routes sets up the aggregate routes
func (h *AggregateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/strikes", h.Strikes)
	r.Post("/weekly", h.Weekly)
	r.Post("/gex", h.GEX)
	return r
}

// StrikesRequest is the body of POST /api/v1/aggregates/strikes. Figures
// come from Volumes or, when absent, from the net open interest of
// Positions.
type StrikesRequest struct {
	Side          string                             `json:"side" validate:"required,option_side"`
	Product       string                             `json:"product,omitempty" validate:"omitempty,max=32"`
	ContractMonth string                             `json:"contract_month,omitempty" validate:"omitempty,yymm"`
	Days          []string                           `json:"days,omitempty" validate:"omitempty,max=31,unique,dive,isodate"`
	Preset        string                             `json:"preset,omitempty" validate:"omitempty,max=32"`
	Center        int                                `json:"center" validate:"gte=0"`
	Volumes       []domain.ParticipantVolumeRecord   `json:"volumes,omitempty" validate:"required_without=Positions"`
	Positions     []domain.ParticipantPositionRecord `json:"positions,omitempty" validate:"excluded_with=Volumes"`
	Baseline      []domain.ParticipantPositionRecord `json:"baseline,omitempty"`
	Closing       []domain.ParticipantPositionRecord `json:"closing,omitempty"`
	// ParticipantIDs limits the ladder to these participant codes.
	ParticipantIDs []string `json:"participant_ids,omitempty" validate:"omitempty,max=200,unique,dive,required,max=16"`
}

// StrikesResponse is one strike ladder.
type StrikesResponse struct {
	Side domain.InstrumentType       `json:"side"`
	Rows []domain.StrikeAggregateRow `json:"rows"`
}

// WeeklyRequest is the body of POST /api/v1/aggregates/weekly.
type WeeklyRequest struct {
	OpenInterest  []domain.ParticipantPositionRecord `json:"open_interest" validate:"required,min=1"`
	Volumes       []domain.ParticipantVolumeRecord   `json:"volumes,omitempty"`
	Product       string                             `json:"product,omitempty" validate:"omitempty,max=32"`
	ContractMonth string                             `json:"contract_month,omitempty" validate:"omitempty,yymm"`
	Week          int                                `json:"week" validate:"gte=0"`
}

// Strikes handles POST /api/v1/aggregates/strikes
func (h *AggregateHandler) Strikes(w http.ResponseWriter, r *http.Request) {
	format, download, err := exportFormat(r)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var req StrikesRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	var recErrs recordErrors
	if err := recErrs.volumes("volumes", req.Volumes).positions("positions", req.Positions).positions("baseline", req.Baseline).positions("closing", req.Closing).err(); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	side, _ := domain.ParseInstrumentType(req.Side)
	days := make([]time.Time, len(req.Days))
	for i, d := range req.Days {
		days[i], _ = time.Parse(domain.DateLayout, d)
	}

	rows, err := h.aggregates.Strikes(r.Context(), services.StrikesInput{
		Side:           side,
		Product:        req.Product,
		ContractMonth:  req.ContractMonth,
		ParticipantIDs: req.ParticipantIDs,
		Days:           days,
		Positions:      req.Positions,
		Volumes:        req.Volumes,
		Baseline:       req.Baseline,
		Closing:        req.Closing,
		Preset:         req.Preset,
		Center:         req.Center,
	})
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if download {
		if err := writeExport(w, h.exporter, format, exporter.StrikeLadder(side, rows)); err != nil {
			h.errs.HandleError(w, r, err)
		}
		return
	}
	render.JSON(w, r, StrikesResponse{Side: side, Rows: rows})
}

// Weekly handles POST /api/v1/aggregates/weekly
func (h *AggregateHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	format, download, err := exportFormat(r)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var req WeeklyRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	var recErrs recordErrors
	if err := recErrs.positions("open_interest", req.OpenInterest).volumes("volumes", req.Volumes).err(); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	view, err := h.aggregates.Weekly(r.Context(), services.WeeklyInput{
		OpenInterest:  req.OpenInterest,
		Volumes:       req.Volumes,
		Product:       req.Product,
		ContractMonth: req.ContractMonth,
		Week:          req.Week,
	})
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if download {
		if err := writeExport(w, h.exporter, format, exporter.ParticipantWeek(view.Rows)); err != nil {
			h.errs.HandleError(w, r, err)
		}
		return
	}
	render.JSON(w, r, view)
}

// GEXRequest is the body of POST /api/v1/aggregates/gex. Open interest
// comes from Balances or, when absent, from the long side of Positions.
// Zero model inputs take the configured defaults.
type GEXRequest struct {
	ContractMonth string                             `json:"contract_month" validate:"required,yymm"`
	Balances      []domain.DailyOIBalance            `json:"balances,omitempty" validate:"required_without=Positions"`
	Positions     []domain.ParticipantPositionRecord `json:"positions,omitempty" validate:"excluded_with=Balances"`
	Spot          float64                            `json:"spot,omitempty" validate:"gte=0"`
	Sigma         float64                            `json:"sigma,omitempty" validate:"gte=0,lte=5"`
	Rate          float64                            `json:"rate,omitempty" validate:"gte=-1,lte=1"`
	AsOf          string                             `json:"as_of,omitempty" validate:"omitempty,isodate"`
	SurfaceSpan   float64                            `json:"surface_span,omitempty" validate:"gte=0"`
	SurfaceStep   float64                            `json:"surface_step,omitempty" validate:"gte=0"`
}

// GEX handles POST /api/v1/aggregates/gex
func (h *AggregateHandler) GEX(w http.ResponseWriter, r *http.Request) {
	format, download, err := exportFormat(r)
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var req GEXRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}
	var recErrs recordErrors
	if err := recErrs.positions("positions", req.Positions).err(); err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	var asOf time.Time
	if req.AsOf != "" {
		asOf, _ = time.Parse(domain.DateLayout, req.AsOf)
	}
	view, err := h.aggregates.GEX(r.Context(), services.GEXInput{
		ContractMonth: req.ContractMonth,
		Balances:      req.Balances,
		Positions:     req.Positions,
		Spot:          req.Spot,
		Sigma:         req.Sigma,
		Rate:          req.Rate,
		AsOf:          asOf,
		SurfaceSpan:   req.SurfaceSpan,
		SurfaceStep:   req.SurfaceStep,
	})
	if err != nil {
		h.errs.HandleError(w, r, err)
		return
	}

	if download {
		if err := writeExport(w, h.exporter, format, exporter.GEXProfile(view.Profile)); err != nil {
			h.errs.HandleError(w, r, err)
		}
		return
	}
	render.JSON(w, r, view)
}

// recordErrors checks the invariants of posted records and reports the
// first offending record of each list.
type recordErrors []apperrors.ValidationError

func (e *recordErrors) volumes(field string, vols []domain.ParticipantVolumeRecord) *recordErrors {
	for i, v := range vols {
		if err := v.Validate(); err != nil {
			*e = append(*e, apperrors.ValidationError{Field: fmt.Sprintf("%s[%d]", field, i), Message: err.Error()})
			break
		}
	}
	return e
}

func (e *recordErrors) positions(field string, recs []domain.ParticipantPositionRecord) *recordErrors {
	for i, p := range recs {
		if err := p.Validate(); err != nil {
			*e = append(*e, apperrors.ValidationError{Field: fmt.Sprintf("%s[%d]", field, i), Message: err.Error()})
			break
		}
	}
	return e
}

func (e recordErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return apperrors.NewValidationErrors(e)
}
