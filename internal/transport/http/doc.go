// Package http exposes market health reports and aggregation runs over a
// JSON API built on chi and render.
//
// Handlers stay thin: they decode and validate the request, call a
// service and render the result. Failures are rendered as RFC 7807
// problem details by errors.ErrorHandler.
//
//	GET  /api/v1/report/latest                 latest report
//	GET  /api/v1/report/latest/projects.csv    project list as CSV
//	GET  /api/v1/report/latest/workbook.xlsx   Excel workbook
//	GET  /api/v1/history                       past snapshots
//	POST /api/v1/runs                          start a run (?wait=true blocks)
//	GET  /api/v1/runs/current                  status of the active or last run
//	GET  /api/v1/regions                       region diagnostics
//	GET  /api/v1/regions/{code}                one region with its projects
//	GET  /api/health                           process health
//	GET  /api/version                          build information
package http
