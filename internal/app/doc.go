// Package app wires configuration, logging, telemetry and the report
// services together.
//
// Components is the shared core: the report parser, the aggregation service
// and the exporter, all built from one config.Config. The command line uses
// Components directly; Application puts an HTTP server in front of it.
//
// # Routes
//
//	GET  /healthz /readyz /livez /version
//	GET  /metrics                      Prometheus exposition, 404 when disabled
//	POST /api/v1/reports/{kind}        upload and parse workbooks
//	POST /api/v1/aggregates/strikes    strike ladder from posted records
//	POST /api/v1/aggregates/weekly     weekly participant view
//	POST /api/v1/aggregates/gex        gamma exposure by strike
//
// # Middleware order
//
//	RequestID, RealIP, OTel, StructuredLogger, ErrorHandler.Middleware
//	(panic recovery), SecurityHeaders, then the per-client RateLimiter when
//	enabled. API routes add a timeout and the upload size limit.
//
// # Shutdown
//
// Run blocks until SIGINT or SIGTERM, drains the server within
// ServerConfig.ShutdownTimeout and flushes the telemetry providers. Errors
// are returned to the caller; the package never calls os.Exit.
package app
