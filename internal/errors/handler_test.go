package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func TestErrorToProblem_ParseTaxonomy(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/option-oi", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "section not found",
			err:        &SectionNotFoundError{Kind: "PUT", Sheet: "Sheet1"},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeReportLayout,
		},
		{
			name:       "wrapped malformed section",
			err:        fmt.Errorf("parse option report: %w", &MalformedSectionError{Kind: "CALL", Row: 2, Col: 3, Reason: "overlap"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeReportLayout,
		},
		{
			name:       "metadata not found",
			err:        &MetadataNotFoundError{Field: "date"},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeReportMetadata,
		},
		{
			name:       "duplicate record",
			err:        &DuplicateRecordError{Key: "38500|11560", Side: "LONG", Row: 12, First: 10},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeReportDuplicate,
		},
		{
			name:       "unknown trading day",
			err:        &UnknownTradingDayError{Date: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeCalendar,
		},
		{
			name:       "api error",
			err:        ErrUnsupportedReport,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUnsupported,
		},
		{
			name:       "unreadable workbook",
			err:        NewParsingError("failed to decode workbook", fmt.Errorf("zip: not a valid zip file")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeUnsupported,
		},
		{
			name:       "app validation",
			err:        NewAppValidationError("side must be PUT or CALL"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, "/api/v1/reports/option-oi", p.Instance)
		})
	}
}

func TestHandleError_WritesProblemJSON(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/futures-oi", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, &MetadataNotFoundError{Field: "date", Scanned: "rows 1-8"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeReportMetadata, body["type"])
	assert.Equal(t, "date", body["field"])
	assert.Contains(t, body["detail"], "rows 1-8")
}

func TestMiddleware_RecoversPanic(t *testing.T) {
	h := newTestHandler()
	handler := middleware.RequestID(h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotEmpty(t, body["trace_id"])
	assert.NotContains(t, body, "stack")
}

func TestMiddleware_PanicAfterResponseStarted(t *testing.T) {
	h := newTestHandler()
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		panic("late")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "partial", rec.Body.String())
}

func TestMiddleware_AbortHandlerPropagates(t *testing.T) {
	h := newTestHandler()
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestAPIError_WithDetails(t *testing.T) {
	err := ErrUnsupportedReport.WithDetails("unknown report kind \"weekly\"", []string{"volume"})

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "UNSUPPORTED_REPORT", err.ErrorCode)
	assert.Equal(t, "unknown report kind \"weekly\"", err.Message)
	assert.Nil(t, ErrUnsupportedReport.Details, "predefined error is not mutated")
	assert.Equal(t, "Unsupported report kind", ErrUnsupportedReport.Message)
}

func TestTypeOfAndIsLayoutError(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &UnknownTradingDayError{Date: time.Now()})
	typ, ok := TypeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrTypeCalendar, typ)
	assert.True(t, IsLayoutError(err))

	typ, ok = TypeOf(NewConfigError("bad", nil))
	require.True(t, ok)
	assert.Equal(t, ErrTypeConfig, typ)

	_, ok = TypeOf(fmt.Errorf("plain"))
	assert.False(t, ok)
	assert.False(t, IsLayoutError(fmt.Errorf("plain")))
}
