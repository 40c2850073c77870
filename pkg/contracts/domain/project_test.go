package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(v float64) *float64 { return &v }

// TestProjectRecordValue tests the dollar figure used for pipeline totals
func TestProjectRecordValue(t *testing.T) {
	tests := []struct {
		name     string
		record   ProjectRecord
		expected float64
	}{
		{"both bounds", ProjectRecord{CostLow: money(1_000_000), CostHigh: money(3_000_000)}, 2_000_000},
		{"high only", ProjectRecord{CostHigh: money(750_000)}, 750_000},
		{"low only", ProjectRecord{CostLow: money(420_000)}, 420_000},
		{"no cost", ProjectRecord{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.Value())
			assert.Equal(t, tt.expected != 0, tt.record.HasCost())
		})
	}
}

// TestProjectRecordValidate tests record invariants
func TestProjectRecordValidate(t *testing.T) {
	valid := ProjectRecord{
		ID:          "a1b2c3",
		Region:      "VT",
		SourceName:  "vtrans-bids",
		Description: "Bridge rehabilitation on VT 100",
		ProjectType: ProjectTypeBridge,
		CostLow:     money(1_200_000),
		CostHigh:    money(1_500_000),
		Status:      StatusConfirmed,
	}
	require.NoError(t, valid.Validate())

	inverted := valid
	inverted.CostLow, inverted.CostHigh = money(2_000_000), money(1_000_000)
	err := inverted.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds cost_high")

	badType := valid
	badType.ProjectType = "tunnel"
	assert.Error(t, badType.Validate())

	noStatus := valid
	noStatus.Status = ""
	assert.Error(t, noStatus.Validate())
}

// TestFiscalYearString tests fiscal year rendering
func TestFiscalYearString(t *testing.T) {
	assert.Equal(t, "FY2026", FiscalYear{Start: 2026, End: 2026}.String())
	assert.Equal(t, "FY2026", FiscalYear{Start: 2026}.String())
	assert.Equal(t, "FY2025-2026", FiscalYear{Start: 2025, End: 2026}.String())
}

// TestSnapshotFromReport tests snapshot capture and lookup
func TestSnapshotFromReport(t *testing.T) {
	generated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := &MarketHealthReport{
		RunID:       "5f0c8a2e-6f35-4c1e-9a59-3d2f5c0f7b11",
		GeneratedAt: generated,
		Health: CompositeHealth{
			OverallScore: 6.4,
			IndicatorScores: map[IndicatorName]IndicatorScore{
				IndicatorHousingPermits: {Name: IndicatorHousingPermits, RawValue: 16050, Score: 6.4},
			},
		},
	}

	snap := SnapshotFromReport(report)
	assert.Equal(t, report.RunID, snap.RunID)
	assert.Equal(t, generated, snap.TakenAt)

	v, ok := snap.Value(IndicatorHousingPermits)
	assert.True(t, ok)
	assert.Equal(t, 16050.0, v)

	_, ok = snap.Value(IndicatorMigration)
	assert.False(t, ok)

	var empty *Snapshot
	_, ok = empty.Value(IndicatorHousingPermits)
	assert.False(t, ok)
}

// TestCompositeHealthValidate tests that all seven indicators are required
func TestCompositeHealthValidate(t *testing.T) {
	scores := make(map[IndicatorName]IndicatorScore)
	for _, name := range AllIndicators() {
		scores[name] = IndicatorScore{Name: name, Score: 5, Trend: TrendStable, ConfidenceSource: SourceFallback}
	}
	health := CompositeHealth{IndicatorScores: scores, OverallScore: 5, OverallStatus: HealthWatchlist}
	require.NoError(t, health.Validate())
	assert.Len(t, health.Ordered(), 7)
	assert.Equal(t, IndicatorDOTPipeline, health.Ordered()[0].Name)

	delete(scores, IndicatorMigration)
	err := health.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing indicator migration")
}
