package composite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrapulse/pkg/contracts/domain"
)

func scoresOf(values map[domain.IndicatorName]float64) map[domain.IndicatorName]domain.IndicatorScore {
	out := make(map[domain.IndicatorName]domain.IndicatorScore, len(values))
	for name, v := range values {
		out[name] = domain.IndicatorScore{Name: name, Score: v, Trend: domain.TrendStable}
	}
	return out
}

func sample() map[domain.IndicatorName]float64 {
	return map[domain.IndicatorName]float64{
		domain.IndicatorDOTPipeline:            8.2,
		domain.IndicatorHousingPermits:         6.4,
		domain.IndicatorConstructionSpending:   5.2,
		domain.IndicatorMigration:              4.9,
		domain.IndicatorConstructionEmployment: 5.0,
		domain.IndicatorInputCost:              9.1,
		domain.IndicatorInfrastructureFunding:  8.9,
	}
}

// TestAggregate tests the weighted mean and banding
func TestAggregate(t *testing.T) {
	agg := NewAggregator(DefaultParams(), nil)
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	health := agg.Aggregate(scoresOf(sample()), at)

	// (8.2*.15 + 6.4*.10 + 5.2*.08 + 4.9*.07 + 5.0*.08 + 9.1*.07 + 8.9*.05) / 0.60
	assert.Equal(t, 6.9, health.OverallScore)
	assert.Equal(t, domain.HealthStable, health.OverallStatus)
	assert.Equal(t, at, health.GeneratedAt)
	assert.Len(t, health.IndicatorScores, 7)
}

// TestAggregateScaleInvariance tests that scaling every weight leaves the score unchanged
func TestAggregateScaleInvariance(t *testing.T) {
	base := NewAggregator(DefaultParams(), nil).Aggregate(scoresOf(sample()), time.Time{})

	for _, factor := range []float64{0.5, 3, 100, 1e-3} {
		params := DefaultParams()
		for name, w := range params.Weights {
			params.Weights[name] = w * factor
		}
		scaled := NewAggregator(params, nil).Aggregate(scoresOf(sample()), time.Time{})
		assert.Equal(t, base.OverallScore, scaled.OverallScore, "factor %v", factor)
	}
}

// TestAggregateBounds tests that extreme inputs stay within [0,10]
func TestAggregateBounds(t *testing.T) {
	agg := NewAggregator(DefaultParams(), nil)

	for _, v := range []float64{0, 10} {
		values := sample()
		for name := range values {
			values[name] = v
		}
		health := agg.Aggregate(scoresOf(values), time.Time{})
		assert.Equal(t, v, health.OverallScore)
	}

	empty := agg.Aggregate(map[domain.IndicatorName]domain.IndicatorScore{}, time.Time{})
	assert.Zero(t, empty.OverallScore)
	assert.Equal(t, domain.HealthDefensive, empty.OverallStatus)
}

// TestScoreOrder tests that known indicators come first in canonical order
func TestScoreOrder(t *testing.T) {
	scores := scoresOf(sample())
	scores["zeta"] = domain.IndicatorScore{Name: "zeta", Score: 1}
	scores["alpha"] = domain.IndicatorScore{Name: "alpha", Score: 1}

	order := scoreOrder(scores)
	require.Len(t, order, 9)
	assert.Equal(t, domain.AllIndicators(), order[:7])
	assert.Equal(t, []domain.IndicatorName{"alpha", "zeta"}, order[7:])
}

// TestAggregateDeterministic tests that repeated runs give the same score
func TestAggregateDeterministic(t *testing.T) {
	agg := NewAggregator(DefaultParams(), nil)
	values := map[domain.IndicatorName]float64{
		domain.IndicatorDOTPipeline:            7.35,
		domain.IndicatorHousingPermits:         6.15,
		domain.IndicatorConstructionSpending:   5.05,
		domain.IndicatorMigration:              4.45,
		domain.IndicatorConstructionEmployment: 5.55,
		domain.IndicatorInputCost:              9.95,
		domain.IndicatorInfrastructureFunding:  8.25,
	}

	first := agg.Aggregate(scoresOf(values), time.Time{}).OverallScore
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, agg.Aggregate(scoresOf(values), time.Time{}).OverallScore)
	}
}

// TestStatusBands tests the ordered threshold table
func TestStatusBands(t *testing.T) {
	agg := NewAggregator(DefaultParams(), nil)

	tests := []struct {
		score    float64
		expected domain.HealthStatus
	}{
		{9.5, domain.HealthGrowth},
		{7.6, domain.HealthGrowth},
		{7.5, domain.HealthStable},
		{6.1, domain.HealthStable},
		{6.0, domain.HealthWatchlist},
		{5.0, domain.HealthWatchlist},
		{4.9, domain.HealthDefensive},
		{0, domain.HealthDefensive},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, agg.Status(tt.score), "score %.1f", tt.score)
	}
}

// TestParamsValidate tests weight and band validation
func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	missing := DefaultParams()
	delete(missing.Weights, domain.IndicatorMigration)
	assert.Error(t, missing.Validate())

	zero := DefaultParams()
	zero.Weights[domain.IndicatorInputCost] = 0
	assert.Error(t, zero.Validate())

	unordered := DefaultParams()
	unordered.Bands = []Band{{Status: domain.HealthWatchlist, Min: 5}, {Status: domain.HealthGrowth, Min: 7.6}}
	assert.Error(t, unordered.Validate())
}
