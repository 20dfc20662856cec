package http

import (
	"context"

	"jpxcli/internal/services"
	"jpxcli/pkg/contracts/domain"
)

// ReportParser parses uploaded workbooks.
type ReportParser interface {
	Parse(ctx context.Context, in services.ReportInput) (*services.ParsedReport, error)
	ParseBatch(ctx context.Context, inputs []services.ReportInput) []services.BatchResult
}

// Aggregator builds the weekly views and the gamma exposure profile.
type Aggregator interface {
	Weekly(ctx context.Context, in services.WeeklyInput) (*services.WeeklyView, error)
	Strikes(ctx context.Context, in services.StrikesInput) ([]domain.StrikeAggregateRow, error)
	GEX(ctx context.Context, in services.GEXInput) (*services.GEXView, error)
}

// HealthChecker reports service health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
