package config

import "time"

// Application constants
const (
	AppName    = "InfraPulse"
	AppVersion = "0.3.0"

	// DefaultUserAgent identifies the aggregator to agency web servers
	DefaultUserAgent = "InfraPulse/0.3 (Construction Market Intelligence)"

	// Rate Limiting
	DefaultRateLimit = 10 // requests per second on the HTTP API
	DefaultBurstSize = 20

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	SeriesHTTPTimeout   = 15 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// Operation Timeouts
	DefaultRunTimeout = 10 * time.Minute

	// ReportStaleAfter marks the latest report stale in health checks
	ReportStaleAfter = 36 * time.Hour
)
