package http

import (
	"net/http"

	apperrors "jpxcli/internal/errors"
)

// MetricsHandler serves the Prometheus registry of the meter provider.
type MetricsHandler struct {
	exposition http.Handler
	errs       *apperrors.ErrorHandler
}

// NewMetricsHandler wraps the exposition handler; nil means metrics are
// disabled and the endpoint answers 404.
func NewMetricsHandler(exposition http.Handler, errs *apperrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{exposition: exposition, errs: errs}
}

// ServeHTTP handles GET /metrics
func (h *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.exposition == nil {
		h.errs.HandleError(w, r, apperrors.NewNotFoundError("metrics (disabled in configuration)"))
		return
	}
	h.exposition.ServeHTTP(w, r)
}
