package domain

import (
	"fmt"
	"time"
)

// HealthStatus is the banded interpretation of the overall score
type HealthStatus string

const (
	HealthGrowth    HealthStatus = "growth"
	HealthStable    HealthStatus = "stable"
	HealthWatchlist HealthStatus = "watchlist"
	HealthDefensive HealthStatus = "defensive"
)

// CompositeHealth is the weighted roll-up of all indicator scores
type CompositeHealth struct {
	IndicatorScores map[IndicatorName]IndicatorScore `json:"indicator_scores"`
	OverallScore    float64                          `json:"overall_score" validate:"min=0,max=10"`
	OverallStatus   HealthStatus                     `json:"overall_status" validate:"oneof=growth stable watchlist defensive"`
	GeneratedAt     time.Time                        `json:"generated_at"`
}

// Ordered returns the indicator scores in report order, skipping missing ones
func (c CompositeHealth) Ordered() []IndicatorScore {
	out := make([]IndicatorScore, 0, len(c.IndicatorScores))
	for _, name := range AllIndicators() {
		if s, ok := c.IndicatorScores[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that all seven indicators are present and well-formed
func (c CompositeHealth) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("composite health: %w", err)
	}
	for _, name := range AllIndicators() {
		s, ok := c.IndicatorScores[name]
		if !ok {
			return fmt.Errorf("composite health: missing indicator %s", name)
		}
		if err := s.Validate(); err != nil {
			return err
		}
	}
	for name := range c.IndicatorScores {
		if !name.IsValid() {
			return fmt.Errorf("composite health: unknown indicator %s", name)
		}
	}
	return nil
}
