// Package services sits between the transports (HTTP, CLI) and the
// aggregation engine.
//
// ReportService owns the run lifecycle: it takes the cross-process run
// lock, loads the previous snapshot, runs the engine, persists the new
// snapshot and publishes the latest report. HealthService reports process
// and run status for the health endpoint.
package services
