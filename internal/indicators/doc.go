// Package indicators scores the seven market indicators that feed the
// composite health score.
//
// # Indicators
//
//	dot_pipeline             (weighted pipeline / time-weighted baseline) x multiplier
//	housing_permits          midpoint + YoY change x slope
//	construction_spending    midpoint + YoY change x slope
//	migration                midpoint + population-weighted change x slope
//	construction_employment  midpoint + YoY change x slope
//	input_cost               blend of per-commodity price stability
//	infrastructure_funding   (scheduled funding / baseline) x multiplier
//
// Every score is clamped to [0,10] and rounded to one decimal. Missing or
// short history never fails: the scorer returns the neutral score (5.0) with
// a stable trend.
//
// # Trend
//
// Trend compares this run's raw value with the value recorded in the previous
// run's snapshot. A relative change above the configured threshold (5% by
// default) is Up, below its negation is Down, anything else, a missing
// snapshot, or a non-positive prior is Stable.
//
// # Actions
//
// Recommended actions come from ordered ActionTables keyed either on the
// score or on the underlying change ratio. Tables and constants are plain
// configuration; see DefaultParams.
package indicators
