// Package series collects the economic time series that feed every
// indicator except the project pipeline: FRED housing permits, construction
// employment and highway construction spending, EIA weekly fuel prices,
// Census population estimates and the legislated funding schedule.
//
// Each provider may be unavailable (no API key, network failure, short
// history). The Collector then substitutes the configured fallback series
// and tags the input with the fallback confidence source.
package series
