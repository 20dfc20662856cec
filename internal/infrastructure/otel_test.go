package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jpxcli/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTel_Metrics(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{ServiceName: "test", Traces: "none", Metrics: true}, "dev", quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)

	m, err := NewReportMetrics(providers.Meter)
	require.NoError(t, err)
	ctx := context.Background()
	m.RecordParse(ctx, "volume", 150*time.Millisecond, 2, nil)
	m.RecordParse(ctx, "option-oi", time.Second, 0, errors.New("boom"))
	m.RecordHTTP(ctx, "/healthz", http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "reports_parsed_total")
	assert.Contains(t, body, "report_diagnostics_total")
	assert.Contains(t, body, `kind="volume"`)
	assert.Contains(t, body, `outcome="error"`)
}

func TestInitializeOTel_Disabled(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{ServiceName: "test"}, "dev", quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)

	m, err := NewReportMetrics(providers.Meter)
	require.NoError(t, err)
	m.RecordParse(context.Background(), "volume", time.Second, 1, nil)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnknownExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{Traces: "zipkin"}, "dev", quietLogger())
	assert.Error(t, err)
}

func TestReportMetrics_Nil(t *testing.T) {
	var m *ReportMetrics
	assert.NotPanics(t, func() {
		m.RecordParse(context.Background(), "volume", time.Second, 1, nil)
		m.RecordHTTP(context.Background(), "/", http.MethodGet, 200, time.Second)
	})
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{ServiceName: "test", Traces: "stdout"}, "dev", quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "test-operation")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
	assert.Empty(t, TraceIDFromContext(context.Background()))
	assert.NotPanics(t, func() { RecordError(ctx, errors.New("failed")) })
}
