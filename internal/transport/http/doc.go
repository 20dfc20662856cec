// Package http implements the HTTP handlers of the report API. Handlers stay
// thin: they decode and validate the request, call a service and render the
// result. Errors are rendered as RFC 7807 problem details by the shared
// error handler; workbook layout errors come back as 422.
//
// # Routes
//
//	POST /api/v1/reports/{kind}      xlsx body or multipart "file" parts
//	POST /api/v1/aggregates/strikes  strike ladder from records in the body
//	POST /api/v1/aggregates/weekly   weekly participant view
//	POST /api/v1/aggregates/gex      gamma exposure profile and surface
//	GET  /healthz, /readyz, /livez, /version
//	GET  /metrics                    Prometheus exposition
//
// Every route that returns rows accepts ?format=csv|json|parquet|xlsx and
// then answers with a file download instead of the JSON envelope.
//
// # Testing
//
// Handlers are tested with httptest against the real services.
package http
