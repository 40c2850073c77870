package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MarketHealthReport is the versioned output of one aggregation run
type MarketHealthReport struct {
	Schema        string             `json:"schema" validate:"required"`
	Version       string             `json:"version" validate:"required"`
	RunID         string             `json:"run_id" validate:"required,uuid"`
	GeneratedAt   time.Time          `json:"generated_at" validate:"required"`
	ReferenceTime time.Time          `json:"reference_time" validate:"required"`
	Projects      []ProjectRecord    `json:"projects"`
	Coverage      CoverageSummary    `json:"coverage"`
	Resolutions   []RegionResolution `json:"resolutions"`
	Pipeline      PipelineSummary    `json:"pipeline"`
	Health        CompositeHealth    `json:"health"`
}

// Validate checks the report against its schema invariants
func (r *MarketHealthReport) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	for _, p := range r.Projects {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	return r.Health.Validate()
}

// ProjectsByRegion groups the project list by region code
func (r *MarketHealthReport) ProjectsByRegion() map[string][]ProjectRecord {
	out := make(map[string][]ProjectRecord)
	for _, p := range r.Projects {
		out[p.Region] = append(out[p.Region], p)
	}
	return out
}

// Resolution returns the diagnostic trail for one region
func (r *MarketHealthReport) Resolution(region string) (RegionResolution, bool) {
	for _, res := range r.Resolutions {
		if res.Region == region {
			return res, true
		}
	}
	return RegionResolution{}, false
}

// Snapshot holds the raw indicator values of a completed run.
// The next run compares against it to derive trends.
type Snapshot struct {
	RunID        string                    `json:"run_id"`
	TakenAt      time.Time                 `json:"taken_at"`
	Values       map[IndicatorName]float64 `json:"values"`
	OverallScore float64                   `json:"overall_score"`
}

// Value returns the stored raw value for an indicator
func (s *Snapshot) Value(name IndicatorName) (float64, bool) {
	if s == nil || s.Values == nil {
		return 0, false
	}
	v, ok := s.Values[name]
	return v, ok
}

// SnapshotFromReport captures the raw values of a report
func SnapshotFromReport(r *MarketHealthReport) *Snapshot {
	values := make(map[IndicatorName]float64, len(r.Health.IndicatorScores))
	for name, s := range r.Health.IndicatorScores {
		values[name] = s.RawValue
	}
	return &Snapshot{
		RunID:        r.RunID,
		TakenAt:      r.GeneratedAt,
		Values:       values,
		OverallScore: r.Health.OverallScore,
	}
}
