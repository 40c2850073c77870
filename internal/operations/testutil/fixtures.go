package testutil

import (
	"time"

	"infrapulse/internal/indicators"
	"infrapulse/pkg/contracts"
	"infrapulse/pkg/contracts/domain"
)

// FallbackInputs mirrors the configured fallback series. Housing permits
// move 16,050 against 15,000.
func FallbackInputs() indicators.Inputs {
	return indicators.Inputs{
		HousingPermits:         indicators.ChangeInput{Current: 16_050, Prior: 15_000, Source: domain.SourceLiveAPI},
		ConstructionSpending:   indicators.ChangeInput{Current: 143_000, Prior: 141_000, Source: domain.SourceFallback},
		ConstructionEmployment: indicators.ChangeInput{Current: 875, Prior: 875, Source: domain.SourceFallback},
		Migration: indicators.MigrationInput{
			Regions: []indicators.PopulationChange{
				{Region: "MA", Population: 7_001_399, Change: 15_000},
				{Region: "NY", Population: 19_571_216, Change: -101_000},
			},
			Source: domain.SourceFallback,
		},
		InputCost: indicators.InputCostInput{
			Prices: map[string][]float64{
				"gasoline": {3.10, 3.12, 3.15, 3.11, 3.08, 3.05, 3.09, 3.12, 3.14, 3.16, 3.17, 3.18},
				"diesel":   {3.90, 3.92, 3.95, 3.97, 3.94, 3.90, 3.88, 3.91, 3.93, 3.96, 3.98, 4.00},
			},
			Source: domain.SourceFallback,
		},
		InfrastructureFunding: indicators.FundingInput{Amount: 7_000_000_000, FiscalYear: 2026, Source: domain.SourceLiveAPI},
	}
}

// Report builds a schema-valid report with one NY project and every
// indicator scored at score
func Report(runID string, at time.Time, score float64) *domain.MarketHealthReport {
	low, high := 8_000_000.0, 12_000_000.0
	scores := make(map[domain.IndicatorName]domain.IndicatorScore)
	for _, name := range domain.AllIndicators() {
		scores[name] = domain.IndicatorScore{
			Name:              name,
			RawValue:          score * 1000,
			Score:             score,
			Trend:             domain.TrendStable,
			RecommendedAction: "Hold",
			ConfidenceSource:  domain.SourceFallback,
		}
	}
	return &domain.MarketHealthReport{
		Schema:        contracts.ReportSchema,
		Version:       contracts.DataFormatVersion,
		RunID:         runID,
		GeneratedAt:   at,
		ReferenceTime: at,
		Projects: []domain.ProjectRecord{{
			ID: "ny-1", Region: "NY", SourceName: "nysdot", Description: "Bridge replacement over the Hudson River",
			ProjectType: domain.ProjectTypeBridge, CostLow: &low, CostHigh: &high, Status: domain.StatusConfirmed,
		}},
		Coverage: domain.CoverageSummary{
			Regions: []domain.RegionCoverage{
				{Region: "NY", ApportionmentRatio: 0.5, HasData: true, RecordCount: 1, CapturedTotal: 10_000_000, EstimatedTotal: 10_000_000},
				{Region: "PA", ApportionmentRatio: 0.5, EstimatedTotal: 10_000_000, Estimated: true},
			},
			CapturedRatio:     0.5,
			CapturedRawTotal:  10_000_000,
			ExtrapolatedTotal: 20_000_000,
			Extrapolated:      true,
		},
		Resolutions: []domain.RegionResolution{
			{Region: "NY", Provider: "nysdot", Attempts: []domain.SourceAttempt{{Provider: "nysdot", Outcome: domain.OutcomeSuccess, Rows: 1}}},
			{Region: "PA", Stubbed: true, Attempts: []domain.SourceAttempt{{Provider: "penndot", Outcome: domain.OutcomeHTTPError}}},
		},
		Health: domain.CompositeHealth{
			IndicatorScores: scores,
			OverallScore:    score,
			OverallStatus:   domain.HealthWatchlist,
			GeneratedAt:     at,
		},
	}
}
