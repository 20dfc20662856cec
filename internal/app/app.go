package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"jpxcli/internal/calendar"
	"jpxcli/internal/config"
	apperrors "jpxcli/internal/errors"
	"jpxcli/internal/exporter"
	"jpxcli/internal/infrastructure"
	customMiddleware "jpxcli/internal/middleware"
	"jpxcli/internal/services"
	handlers "jpxcli/internal/transport/http"
)

// AppName names the service in logs and telemetry.
const AppName = "jpxreport"

// Components are the configured services shared by the HTTP server and the
// command line.
type Components struct {
	Config     *config.Config
	Logger     *slog.Logger
	OTel       *infrastructure.OTelProviders
	Metrics    *infrastructure.ReportMetrics
	Calendar   *calendar.Calendar
	Reports    *services.ReportService
	Aggregates *services.AggregationService
	Exporter   *exporter.Writer
}

// NewComponents wires the services from configuration. The caller owns
// Shutdown.
func NewComponents(cfg *config.Config, logger *slog.Logger, version string) (*Components, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewReportMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	cal, err := cfg.Calendar.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build trading calendar: %w", err)
	}
	if cal == nil {
		logger.Warn("No trading calendar configured; night-session volume reports cannot be dated")
	}

	c := &Components{
		Config:   cfg,
		Logger:   logger,
		OTel:     otelProviders,
		Metrics:  metrics,
		Calendar: cal,
		Exporter: exporter.NewWriter(cfg.Export, logger),
	}
	c.Reports = services.NewReportService(services.ReportServiceOptions{
		Parsing:        cfg.Parsing.Dataprocessing(),
		Calendar:       cal,
		MaxConcurrency: cfg.Parsing.MaxConcurrency,
		Tracer:         otelProviders.Tracer,
		Metrics:        metrics,
		Logger:         logger,
	})
	c.Aggregates = services.NewAggregationService(services.AggregationServiceOptions{
		Display:  cfg.Display,
		GEX:      cfg.GEX,
		Calendar: cal,
		Tracer:   otelProviders.Tracer,
		Logger:   logger,
	})
	return c, nil
}

// Shutdown flushes telemetry.
func (c *Components) Shutdown(ctx context.Context) error {
	if c.OTel == nil {
		return nil
	}
	return c.OTel.Shutdown(ctx)
}

// Application represents the HTTP service
type Application struct {
	*Components
	Version string
	Health  *services.HealthService
	Errors  *apperrors.ErrorHandler
	Router  *chi.Mux
	Server  *http.Server
}

// NewApplication creates the HTTP service on top of freshly wired
// components.
func NewApplication(cfg *config.Config, logger *slog.Logger, version string) (*Application, error) {
	if err := cfg.Paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	components, err := NewComponents(cfg, logger, version)
	if err != nil {
		return nil, err
	}

	app := &Application{
		Components: components,
		Version:    version,
		Health:     services.NewHealthService(version, cfg.Paths, components.Calendar != nil, components.Logger),
		Errors:     apperrors.NewErrorHandler(components.Logger, false),
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// setupRouter configures the HTTP router with all routes and middleware
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTel.Tracer, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(a.Errors.Middleware)
	r.Use(customMiddleware.SecurityHeaders)

	if rl := a.Config.Security.RateLimit; rl.Enabled {
		r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Errors, a.Logger).Handler)
	}

	r.NotFound(a.Errors.NotFound)
	r.MethodNotAllowed(a.Errors.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	r.Get("/healthz", healthHandler.HealthCheck)
	r.Get("/readyz", healthHandler.ReadinessCheck)
	r.Get("/livez", healthHandler.LivenessCheck)
	r.Get("/version", healthHandler.Version)
	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTel.PrometheusHTTP, a.Errors))

	a.setupAPIRoutes(r)
	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router) {
	reportHandler := handlers.NewReportHandler(a.Reports, a.Exporter, a.Errors, a.Logger)
	aggregateHandler := handlers.NewAggregateHandler(a.Aggregates, customMiddleware.NewValidator(a.Logger), a.Exporter, a.Errors, a.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.WriteTimeout))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.MaxBodySize(a.Config.Security.MaxUploadBytes, a.Errors))
			r.Mount("/reports", reportHandler.Routes())
			r.Mount("/aggregates", aggregateHandler.Routes())
		})
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving in the background. A listener failure calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", a.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level),
		slog.Bool("calendar", a.Calendar != nil),
		slog.Bool("metrics", a.Config.Telemetry.Metrics))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := a.Components.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx, stop); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")
	return a.Stop(ctx)
}
