package operations

import "time"

// Step identifiers, in execution order
const (
	StepIDResolve   = "resolve"
	StepIDNormalize = "normalize"
	StepIDDedup     = "dedup"
	StepIDCoverage  = "coverage"
	StepIDWeight    = "weight"
	StepIDSeries    = "series"
	StepIDScore     = "score"
	StepIDComposite = "composite"
)

// Step names
const (
	StepNameResolve   = "Source Resolution"
	StepNameNormalize = "Field Normalization"
	StepNameDedup     = "Deduplication"
	StepNameCoverage  = "Coverage Extrapolation"
	StepNameWeight    = "Time Weighting"
	StepNameSeries    = "Economic Series"
	StepNameScore     = "Indicator Scoring"
	StepNameComposite = "Composite Health"
)

// WebSocket event types
const (
	EventTypeRunStatus   = "run:status"
	EventTypeRunProgress = "run:progress"
	EventTypeRunComplete = "run:complete"
	EventTypeRunError    = "run:error"
)

// DefaultRunTimeout bounds a whole aggregation run
const DefaultRunTimeout = 10 * time.Minute

// RunRequest asks for one aggregation run
type RunRequest struct {
	// ID is generated when empty
	ID string `json:"id,omitempty" validate:"omitempty,uuid"`
	// ReferenceTime anchors time weighting; zero means now
	ReferenceTime time.Time `json:"reference_time,omitempty"`
	// Regions limits the run to a subset of configured region codes
	Regions []string `json:"regions,omitempty" validate:"omitempty,dive,len=2,uppercase"`
}

// Validate checks the request fields
func (r RunRequest) Validate() error {
	return validate.Struct(r)
}

// RunResponse summarizes a finished run
type RunResponse struct {
	ID       string        `json:"id"`
	Status   RunStatus     `json:"status"`
	Duration time.Duration `json:"duration"`
	Steps    []StepView    `json:"steps"`
	Error    string        `json:"error,omitempty"`
}
