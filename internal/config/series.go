package config

import (
	"time"

	"infrapulse/internal/indicators"
)

// SeriesConfig configures the economic time-series providers. An empty API
// key marks that provider unavailable and its fallback is used instead.
type SeriesConfig struct {
	FREDAPIKey  string        `yaml:"fred_api_key" envconfig:"FRED_API_KEY"`
	EIAAPIKey   string        `yaml:"eia_api_key" envconfig:"EIA_API_KEY"`
	FREDURL     string        `yaml:"fred_url" envconfig:"FRED_URL" validate:"required,url"`
	EIAURL      string        `yaml:"eia_url" envconfig:"EIA_URL" validate:"required,url"`
	CensusURL   string        `yaml:"census_url" envconfig:"CENSUS_URL" validate:"required,url"`
	CensusYears []int         `yaml:"census_years" envconfig:"CENSUS_YEARS" validate:"min=1"`
	EIAArea     string        `yaml:"eia_area" envconfig:"EIA_AREA" validate:"required"`
	FuelWeeks   int           `yaml:"fuel_weeks" envconfig:"FUEL_WEEKS" validate:"min=2"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	Concurrency int           `yaml:"concurrency" envconfig:"CONCURRENCY" validate:"min=1"`

	// SpendingSeries is the national highway construction spending series
	SpendingSeries string `yaml:"spending_series" envconfig:"SPENDING_SERIES" validate:"required"`
	// PermitSuffix and EmploymentSuffix are appended to a region code to
	// form its FRED series id
	PermitSuffix     string `yaml:"permit_suffix" envconfig:"PERMIT_SUFFIX" validate:"required"`
	EmploymentSuffix string `yaml:"employment_suffix" envconfig:"EMPLOYMENT_SUFFIX" validate:"required"`

	// FuelProducts maps commodity names onto EIA product facets
	FuelProducts map[string]string `yaml:"fuel_products" ignored:"true" validate:"min=1"`
	Funding      []FundingYear     `yaml:"funding" ignored:"true" validate:"min=1,dive"`
	Fallback     FallbackSeries    `yaml:"fallback" ignored:"true"`
}

// FundingYear is the legislated amount for one federal fiscal year
type FundingYear struct {
	FiscalYear int     `yaml:"fiscal_year" json:"fiscal_year" validate:"min=1900"`
	Amount     float64 `yaml:"amount" json:"amount" validate:"gt=0"`
}

// ChangePair is a current value and its prior-year comparison
type ChangePair struct {
	Current float64 `yaml:"current" json:"current"`
	Prior   float64 `yaml:"prior" json:"prior"`
}

// FallbackSeries holds the fixed historical values substituted when a
// provider is unavailable
type FallbackSeries struct {
	HousingPermits         ChangePair                    `yaml:"housing_permits"`
	ConstructionSpending   ChangePair                    `yaml:"construction_spending"`
	ConstructionEmployment ChangePair                    `yaml:"construction_employment"`
	Population             []indicators.PopulationChange `yaml:"population"`
	Fuel                   map[string][]float64          `yaml:"fuel"`
}

// DefaultSeries returns the canonical provider endpoints and fallbacks
func DefaultSeries() SeriesConfig {
	return SeriesConfig{
		FREDURL:          "https://api.stlouisfed.org/fred/series/observations",
		EIAURL:           "https://api.eia.gov/v2/petroleum/pri/gnd/data/",
		CensusURL:        "https://api.census.gov/data",
		CensusYears:      []int{2023, 2022},
		EIAArea:          "R1X",
		FuelWeeks:        12,
		Timeout:          SeriesHTTPTimeout,
		Concurrency:      4,
		SpendingSeries:   "TLHWYCONS",
		PermitSuffix:     "BPPRIVSA",
		EmploymentSuffix: "CONSN",
		FuelProducts: map[string]string{
			"gasoline": "EPMR",
			"diesel":   "EPD2D",
		},
		Funding: []FundingYear{
			{FiscalYear: 2022, Amount: 6_200_000_000},
			{FiscalYear: 2023, Amount: 6_500_000_000},
			{FiscalYear: 2024, Amount: 6_700_000_000},
			{FiscalYear: 2025, Amount: 6_800_000_000},
			{FiscalYear: 2026, Amount: 7_000_000_000},
		},
		Fallback: FallbackSeries{
			HousingPermits:         ChangePair{Current: 15_000, Prior: 14_400},
			ConstructionSpending:   ChangePair{Current: 143_000, Prior: 141_000},
			ConstructionEmployment: ChangePair{Current: 875, Prior: 875},
			Population: []indicators.PopulationChange{
				{Region: "MA", Population: 7_001_000, Change: 15_000},
				{Region: "NY", Population: 19_571_000, Change: -101_000},
				{Region: "PA", Population: 12_972_000, Change: -17_000},
				{Region: "CT", Population: 3_626_000, Change: 4_000},
				{Region: "NH", Population: 1_402_000, Change: 10_000},
				{Region: "ME", Population: 1_395_000, Change: 11_000},
				{Region: "RI", Population: 1_096_000, Change: 2_000},
				{Region: "VT", Population: 647_000, Change: 1_000},
			},
			Fuel: map[string][]float64{
				"gasoline": {3.15, 3.18, 3.20, 3.22, 3.25, 3.28, 3.30, 3.28, 3.25, 3.22, 3.20, 3.18},
				"diesel":   {3.76, 3.76, 3.76, 3.85, 4.03, 4.10, 4.09, 4.21, 4.31, 4.30, 4.33, 4.31},
			},
		},
	}
}
