// Package services orchestrates the workbook parsers and aggregators for the
// HTTP and CLI layers.
//
// ReportService decodes workbooks, dispatches them to the parser of their
// report kind and records spans and metrics. ParseBatch parses several
// workbooks concurrently with a bounded errgroup; every input gets its own
// result slot, so one malformed workbook does not hide the others.
//
// AggregationService turns parsed records into the weekly participant view
// and the per-side strike ladders, using the configured trading calendar and
// band presets.
//
// HealthService backs the liveness and readiness endpoints.
package services
