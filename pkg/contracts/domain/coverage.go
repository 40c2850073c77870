package domain

// RegionCoverage is one region's share of the market and what was observed for it
type RegionCoverage struct {
	Region             string  `json:"region" validate:"required"`
	ApportionmentRatio float64 `json:"apportionment_ratio" validate:"gt=0,lte=1"`
	HasData            bool    `json:"has_data"`
	RecordCount        int     `json:"record_count"`
	CapturedTotal      float64 `json:"captured_total"`
	// EstimatedTotal equals CapturedTotal for regions with data and the
	// extrapolated share for regions without.
	EstimatedTotal float64 `json:"estimated_total"`
	Estimated      bool    `json:"estimated"`
}

// CoverageSummary is the market-wide extrapolation breakdown
type CoverageSummary struct {
	Regions           []RegionCoverage `json:"regions" validate:"dive"`
	CapturedRatio     float64          `json:"captured_ratio"`
	CapturedRawTotal  float64          `json:"captured_raw_total"`
	ExtrapolatedTotal float64          `json:"extrapolated_total"`
	Extrapolated      bool             `json:"extrapolated"`
}

// AttemptOutcome classifies one provider attempt
type AttemptOutcome string

const (
	OutcomeSuccess    AttemptOutcome = "success"
	OutcomeHTTPError  AttemptOutcome = "http-error"
	OutcomeParseError AttemptOutcome = "parse-error"
	OutcomeEmpty      AttemptOutcome = "empty"
)

// SourceAttempt is one entry of a region's diagnostic trail
type SourceAttempt struct {
	Provider   string         `json:"provider"`
	Outcome    AttemptOutcome `json:"outcome"`
	Bytes      int            `json:"bytes"`
	Rows       int            `json:"rows"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

// RegionResolution records which provider served a region and what was tried
type RegionResolution struct {
	Region   string          `json:"region"`
	Provider string          `json:"provider,omitempty"`
	Attempts []SourceAttempt `json:"attempts"`
	Stubbed  bool            `json:"stubbed"`
}

// PipelineSummary explains how the pipeline indicator input was derived
type PipelineSummary struct {
	RawValue             float64 `json:"raw_value"`
	WeightedValue        float64 `json:"weighted_value"`
	WeightRatio          float64 `json:"weight_ratio"`
	NominalBaseline      float64 `json:"nominal_baseline"`
	TimeWeightedBaseline float64 `json:"time_weighted_baseline"`
	DuplicatesRemoved    int     `json:"duplicates_removed"`
	RowsDropped          int     `json:"rows_dropped"`
}
