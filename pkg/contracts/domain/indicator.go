package domain

import (
	"fmt"
	"math"
)

// IndicatorName identifies one of the seven market indicators
type IndicatorName string

const (
	IndicatorDOTPipeline            IndicatorName = "dot_pipeline"
	IndicatorHousingPermits         IndicatorName = "housing_permits"
	IndicatorConstructionSpending   IndicatorName = "construction_spending"
	IndicatorMigration              IndicatorName = "migration"
	IndicatorConstructionEmployment IndicatorName = "construction_employment"
	IndicatorInputCost              IndicatorName = "input_cost"
	IndicatorInfrastructureFunding  IndicatorName = "infrastructure_funding"
)

// AllIndicators lists the indicators in report order
func AllIndicators() []IndicatorName {
	return []IndicatorName{
		IndicatorDOTPipeline,
		IndicatorHousingPermits,
		IndicatorConstructionSpending,
		IndicatorMigration,
		IndicatorConstructionEmployment,
		IndicatorInputCost,
		IndicatorInfrastructureFunding,
	}
}

// IsValid reports whether the name is one of the seven indicators
func (n IndicatorName) IsValid() bool {
	for _, known := range AllIndicators() {
		if n == known {
			return true
		}
	}
	return false
}

// Trend is the direction of an indicator since the previous run
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// ConfidenceSource records where an indicator's input came from
type ConfidenceSource string

const (
	SourceLiveAPI  ConfidenceSource = "live_api"
	SourceCache    ConfidenceSource = "cache"
	SourceFallback ConfidenceSource = "fallback"
)

// IndicatorScore is the scored result of one indicator
type IndicatorScore struct {
	Name              IndicatorName      `json:"name" validate:"required"`
	RawValue          float64            `json:"raw_value"`
	Score             float64            `json:"score" validate:"min=0,max=10"`
	Trend             Trend              `json:"trend" validate:"oneof=up down stable"`
	RecommendedAction string             `json:"recommended_action"`
	ConfidenceSource  ConfidenceSource   `json:"confidence_source" validate:"oneof=live_api cache fallback"`
	ChangePct         float64            `json:"change_pct"`
	Details           map[string]float64 `json:"details,omitempty"`
}

// Validate checks the score invariants
func (s IndicatorScore) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("indicator %s: %w", s.Name, err)
	}
	if math.IsNaN(s.Score) {
		return fmt.Errorf("indicator %s: score is NaN", s.Name)
	}
	return nil
}
