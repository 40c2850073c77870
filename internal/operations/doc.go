// Package operations runs the aggregation pipeline as an ordered list of
// steps sharing one RunState:
//
//	resolve -> normalize -> dedup -> coverage -> weight -> series -> score -> composite
//
// Each step records its status, duration and counters in a StepState. The
// StatusBroadcaster keeps the latest RunSnapshot and pushes every change to
// a WebSocketHub. Engine.Run returns the MarketHealthReport of a completed
// run; degraded sources show up in the report, never as a run error.
package operations
