// Package app wires configuration, observability, storage, the aggregation
// engine and the HTTP surface into one Application.
//
// # Initialization Flow
//
//	1. Resolve paths and ensure the data directories exist
//	2. Initialize OpenTelemetry and the pipeline metrics
//	3. Build region providers and the series collector
//	4. Open the snapshot store and the cross-process run lock
//	5. Create the engine, services and WebSocket hub
//	6. Build the chi router and the HTTP server
//
// The caller owns the logger and configuration. Nothing in this package
// calls os.Exit; Serve returns when its context is cancelled and Close
// releases every resource New acquired.
package app
