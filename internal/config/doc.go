// Package config provides centralized configuration management for InfraPulse.
// Every tunable constant of the aggregation run lives here: region tables,
// provider tiers, scoring parameters, composite weights and bands, the
// time-decay table and the economic series fallbacks.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML file named by INFRAPULSE_CONFIG_FILE
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// Scalar settings follow the pattern INFRAPULSE_<SECTION>_<FIELD>:
//
//	INFRAPULSE_SERVER_PORT=8080
//	INFRAPULSE_LOGGING_LEVEL=debug
//	INFRAPULSE_SOURCES_CONCURRENCY=4
//	INFRAPULSE_PATHS_SNAPSHOT_FORMAT=json
//
// API keys are also read from their conventional names, FRED_API_KEY and
// EIA_API_KEY. Tables (regions, indicators, composite, time_weight) are only
// configurable through the YAML file.
//
// # Validation
//
// Load validates struct tags with go-playground/validator and then checks
// the cross-field rules: unique region codes, apportionment ratios in (0,1]
// summing to 1, positive composite weights and descending status bands.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	paths, err := cfg.Paths.Resolve()
package config
