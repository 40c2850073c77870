package indicators

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError represents a parameter validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// RatioParams scores value/baseline x multiplier
type RatioParams struct {
	Baseline   float64     `yaml:"baseline" json:"baseline"`
	Multiplier float64     `yaml:"multiplier" json:"multiplier"`
	Actions    ActionTable `yaml:"actions" json:"actions"`
}

// ChangeParams scores midpoint + change x slope
type ChangeParams struct {
	Midpoint float64     `yaml:"midpoint" json:"midpoint"`
	Slope    float64     `yaml:"slope" json:"slope"`
	Actions  ActionTable `yaml:"actions" json:"actions"`
}

// Commodity is one weighted price series of the input-cost indicator
type Commodity struct {
	Name     string  `yaml:"name" json:"name"`
	Weight   float64 `yaml:"weight" json:"weight"`
	Baseline float64 `yaml:"baseline" json:"baseline"`
}

// InputCostParams blends per-commodity stability scores
type InputCostParams struct {
	Commodities []Commodity `yaml:"commodities" json:"commodities"`
	// StabilityScale converts a stability factor into a sub-score
	StabilityScale float64     `yaml:"stability_scale" json:"stability_scale"`
	Actions        ActionTable `yaml:"actions" json:"actions"`
}

// Params holds every tunable scoring constant
type Params struct {
	TrendThreshold float64 `yaml:"trend_threshold" json:"trend_threshold"`
	NeutralScore   float64 `yaml:"neutral_score" json:"neutral_score"`

	Pipeline               RatioParams     `yaml:"dot_pipeline" json:"dot_pipeline"`
	HousingPermits         ChangeParams    `yaml:"housing_permits" json:"housing_permits"`
	ConstructionSpending   ChangeParams    `yaml:"construction_spending" json:"construction_spending"`
	Migration              ChangeParams    `yaml:"migration" json:"migration"`
	ConstructionEmployment ChangeParams    `yaml:"construction_employment" json:"construction_employment"`
	InputCost              InputCostParams `yaml:"input_cost" json:"input_cost"`
	InfrastructureFunding  RatioParams     `yaml:"infrastructure_funding" json:"infrastructure_funding"`
}

// DefaultParams returns the canonical scoring constants
func DefaultParams() Params {
	return Params{
		TrendThreshold: 0.05,
		NeutralScore:   5.0,
		Pipeline: RatioParams{
			Baseline:   6_000_000_000,
			Multiplier: 7.0,
			Actions: scoreTable("Defensive mode - monitor opportunities",
				atLeast(7.5, "Expand highway capacity - strong pipeline"),
				atLeast(5.5, "Maintain position"),
			),
		},
		HousingPermits: ChangeParams{
			Midpoint: 5.0,
			Slope:    20,
			Actions: changeTable("Consolidate plants", "Monitor trends",
				above(0.07, "Ready-mix expansion opportunity"),
				above(0, "Monitor trends"),
				above(-0.10, "Selective investment"),
			),
		},
		ConstructionSpending: ChangeParams{
			Midpoint: 5.0,
			Slope:    15,
			Actions: changeTable("Cost focus", "Selective investment",
				above(0.10, "All-segment growth"),
				above(0, "Selective investment"),
			),
		},
		Migration: ChangeParams{
			Midpoint: 5.0,
			Slope:    10,
			Actions: changeTable("Market consolidation", "Maintain footprint",
				above(0.01, "Geographic expansion"),
				above(-0.01, "Maintain footprint"),
			),
		},
		ConstructionEmployment: ChangeParams{
			Midpoint: 5.0,
			Slope:    25,
			Actions: scoreTable("Reduce staff",
				atLeast(7, "Expand workforce"),
				atLeast(4, "Stable operations"),
			),
		},
		InputCost: InputCostParams{
			Commodities: []Commodity{
				{Name: "gasoline", Weight: 0.60, Baseline: 3.20},
				{Name: "diesel", Weight: 0.40, Baseline: 4.00},
			},
			StabilityScale: 10,
			Actions: scoreTable("Pass-through only",
				atLeast(7, "Lock contracts"),
				atLeast(4, "Hedge 6 months"),
			),
		},
		InfrastructureFunding: RatioParams{
			Baseline:   5_500_000_000,
			Multiplier: 7.0,
			Actions: scoreTable("Focus existing assets",
				atLeast(7, "Major expansion"),
				atLeast(5, "Selective growth"),
			),
		},
	}
}

// Validate checks the scoring constants
func (p Params) Validate() error {
	var errs []error
	if p.TrendThreshold < 0 || math.IsNaN(p.TrendThreshold) {
		errs = append(errs, ValidationError{Field: "trend_threshold", Message: "must be non-negative", Value: p.TrendThreshold})
	}
	if p.NeutralScore < 0 || p.NeutralScore > 10 {
		errs = append(errs, ValidationError{Field: "neutral_score", Message: "must be within [0,10]", Value: p.NeutralScore})
	}

	for field, rp := range map[string]RatioParams{
		"dot_pipeline":           p.Pipeline,
		"infrastructure_funding": p.InfrastructureFunding,
	} {
		if rp.Baseline <= 0 {
			errs = append(errs, ValidationError{Field: field + ".baseline", Message: "must be positive", Value: rp.Baseline})
		}
		if rp.Multiplier <= 0 {
			errs = append(errs, ValidationError{Field: field + ".multiplier", Message: "must be positive", Value: rp.Multiplier})
		}
		if err := rp.Actions.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s.actions: %w", field, err))
		}
	}

	for field, cp := range map[string]ChangeParams{
		"housing_permits":         p.HousingPermits,
		"construction_spending":   p.ConstructionSpending,
		"migration":               p.Migration,
		"construction_employment": p.ConstructionEmployment,
	} {
		if cp.Slope <= 0 {
			errs = append(errs, ValidationError{Field: field + ".slope", Message: "must be positive", Value: cp.Slope})
		}
		if err := cp.Actions.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s.actions: %w", field, err))
		}
	}

	if len(p.InputCost.Commodities) == 0 {
		errs = append(errs, ValidationError{Field: "input_cost.commodities", Message: "at least one commodity required", Value: 0})
	}
	for _, c := range p.InputCost.Commodities {
		if c.Weight <= 0 || c.Baseline <= 0 {
			errs = append(errs, ValidationError{Field: "input_cost." + c.Name, Message: "weight and baseline must be positive", Value: c})
		}
	}
	if p.InputCost.StabilityScale <= 0 {
		errs = append(errs, ValidationError{Field: "input_cost.stability_scale", Message: "must be positive", Value: p.InputCost.StabilityScale})
	}
	if err := p.InputCost.Actions.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("input_cost.actions: %w", err))
	}

	return errors.Join(errs...)
}
