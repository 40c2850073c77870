package indicators

import "infrapulse/pkg/contracts/domain"

// PipelineInput is the aggregated project pipeline of one run
type PipelineInput struct {
	RawValue             float64
	WeightedValue        float64
	TimeWeightedBaseline float64
	Source               domain.ConfidenceSource
}

// ChangeInput is a current value and the comparable prior-year value
type ChangeInput struct {
	Current float64
	Prior   float64
	Source  domain.ConfidenceSource
}

// PopulationChange is one region's population and its change over the year
type PopulationChange struct {
	Region     string  `yaml:"region" json:"region"`
	Population float64 `yaml:"population" json:"population"`
	Change     float64 `yaml:"change" json:"change"`
}

// MigrationInput is the per-region population data
type MigrationInput struct {
	Regions []PopulationChange
	Source  domain.ConfidenceSource
}

// InputCostInput holds trailing price windows keyed by commodity name,
// oldest first
type InputCostInput struct {
	Prices map[string][]float64
	Source domain.ConfidenceSource
}

// FundingInput is the legislated funding for the current fiscal year
type FundingInput struct {
	Amount     float64
	FiscalYear int
	Source     domain.ConfidenceSource
}

// Inputs bundles everything needed to score one run
type Inputs struct {
	Pipeline               PipelineInput
	HousingPermits         ChangeInput
	ConstructionSpending   ChangeInput
	Migration              MigrationInput
	ConstructionEmployment ChangeInput
	InputCost              InputCostInput
	InfrastructureFunding  FundingInput
}
