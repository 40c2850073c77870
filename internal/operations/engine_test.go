package operations

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrapulse/internal/config"
	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/operations/testutil"
	"infrapulse/internal/sources"
	"infrapulse/pkg/contracts/domain"
)

var reference = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type failingProvider struct {
	name string
	err  error
}

func (p failingProvider) Name() string { return p.name }

func (p failingProvider) Fetch(context.Context, string) (sources.Batch, error) {
	return sources.Batch{}, p.err
}

func row(description, estimate string, let time.Time) sources.Row {
	return sources.Row{Fields: map[string]string{
		"description":         description,
		"engineer's estimate": estimate,
		"letting date":        let.Format("01/02/2006"),
	}}
}

// testRegions serves NY from its first tier, PA from its second tier and
// leaves VT with no working provider
func testRegions() []sources.Region {
	down := apperrors.NewNetworkError("GET portal: 503", nil)
	return []sources.Region{
		{Code: "NY", PortalURL: "https://www.dot.ny.gov/doing-business/opportunities/const-notices",
			Providers: []sources.Provider{
				sources.NewStaticProvider("nysdot-notices", []sources.Row{
					row("Bridge replacement over the Hudson River", "$10,000,000", reference.AddDate(0, 0, 30)),
					row("Bridge replacement over the Hudson River", "$3,000,000", reference.AddDate(0, 0, 30)),
					{Fields: map[string]string{"notes": " "}},
				}),
			}},
		{Code: "PA", PortalURL: "https://www.penndot.pa.gov/business/Letting",
			Providers: []sources.Provider{
				failingProvider{name: "penndot-ecms", err: down},
				sources.NewStaticProvider("penndot-letting", []sources.Row{
					row("Resurfacing and paving of SR 22", "$5,000,000", reference.AddDate(0, 0, 200)),
				}),
			}},
		{Code: "VT", PortalURL: "https://vtrans.vermont.gov/contract-admin/construction/bid-results",
			Providers: []sources.Provider{
				failingProvider{name: "vtrans-bids", err: down},
			}},
	}
}

func newTestEngine(t *testing.T, regions []sources.Region, hub WebSocketHub) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Sources.HostInterval = 0
	engine, err := NewEngine(cfg, Deps{
		Regions:   regions,
		Collector: &testutil.StubCollector{Inputs: testutil.FallbackInputs()},
		Hub:       hub,
		Now:       func() time.Time { return reference.Add(time.Hour) },
	})
	require.NoError(t, err)
	return engine
}

// TestEngineRun tests a full run over partial coverage
func TestEngineRun(t *testing.T) {
	hub := &testutil.MockWebSocketHub{}
	engine := newTestEngine(t, testRegions(), hub)

	report, resp, err := engine.Run(context.Background(), RunRequest{ReferenceTime: reference}, nil)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, RunStatusCompleted, resp.Status)
	require.Len(t, resp.Steps, 8)
	for _, s := range resp.Steps {
		assert.Equal(t, StepStatusCompleted, s.Status, s.ID)
	}

	// NY and PA together hold 64% of the market
	assert.InDelta(t, 0.64, report.Coverage.CapturedRatio, 1e-9)
	assert.InDelta(t, 15_000_000, report.Coverage.CapturedRawTotal, 1e-6)
	assert.InDelta(t, 23_437_500, report.Coverage.ExtrapolatedTotal, 1e-3)
	assert.True(t, report.Coverage.Extrapolated)

	assert.Equal(t, 1, report.Pipeline.DuplicatesRemoved)
	assert.Equal(t, 1, report.Pipeline.RowsDropped)
	// 10M at weight 1.0 and 5M at weight 0.7
	assert.InDelta(t, 0.9, report.Pipeline.WeightRatio, 1e-9)
	assert.InDelta(t, 5_400_000_000, report.Pipeline.TimeWeightedBaseline, 1e-3)

	byRegion := report.ProjectsByRegion()
	require.Len(t, byRegion["VT"], 1)
	stub := byRegion["VT"][0]
	assert.Equal(t, domain.StatusVerify, stub.Status)
	assert.Nil(t, stub.CostLow)
	assert.Nil(t, stub.CostHigh)
	assert.Len(t, byRegion["NY"], 1)

	pa, ok := report.Resolution("PA")
	require.True(t, ok)
	assert.Equal(t, "penndot-letting", pa.Provider)
	require.Len(t, pa.Attempts, 2)
	assert.Equal(t, domain.OutcomeHTTPError, pa.Attempts[0].Outcome)
	assert.Equal(t, domain.OutcomeSuccess, pa.Attempts[1].Outcome)

	vt, ok := report.Resolution("VT")
	require.True(t, ok)
	assert.True(t, vt.Stubbed)

	permits := report.Health.IndicatorScores[domain.IndicatorHousingPermits]
	assert.Equal(t, 6.4, permits.Score)
	assert.Equal(t, domain.TrendStable, permits.Trend)

	pipeline := report.Health.IndicatorScores[domain.IndicatorDOTPipeline]
	assert.Equal(t, domain.SourceLiveAPI, pipeline.ConfidenceSource)
	assert.InDelta(t, 23_437_500, pipeline.RawValue, 1e-3)

	assert.GreaterOrEqual(t, report.Health.OverallScore, 0.0)
	assert.LessOrEqual(t, report.Health.OverallScore, 10.0)
	assert.Equal(t, reference.Add(time.Hour), report.GeneratedAt)
	assert.NoError(t, report.Validate())

	assert.Len(t, hub.GetMessagesByType(EventTypeRunProgress), 8)
	assert.Len(t, hub.GetMessagesByType(EventTypeRunComplete), 1)
	current := engine.Broadcaster().Current()
	require.NotNil(t, current)
	assert.Equal(t, 100, current.Progress)
	require.NotNil(t, current.OverallScore)
	assert.Equal(t, report.Health.OverallScore, *current.OverallScore)
}

// TestEngineRunTrend tests trends against the previous snapshot
func TestEngineRunTrend(t *testing.T) {
	engine := newTestEngine(t, testRegions(), nil)
	prev := &domain.Snapshot{
		RunID: "previous",
		Values: map[domain.IndicatorName]float64{
			domain.IndicatorHousingPermits: 15_000,
			domain.IndicatorDOTPipeline:    30_000_000,
		},
	}

	report, _, err := engine.Run(context.Background(), RunRequest{ReferenceTime: reference}, prev)
	require.NoError(t, err)
	assert.Equal(t, domain.TrendUp, report.Health.IndicatorScores[domain.IndicatorHousingPermits].Trend)
	assert.Equal(t, domain.TrendDown, report.Health.IndicatorScores[domain.IndicatorDOTPipeline].Trend)
	assert.Equal(t, domain.TrendStable, report.Health.IndicatorScores[domain.IndicatorMigration].Trend)
}

// TestEngineRunPipelineFallback tests the pipeline input without priced records
func TestEngineRunPipelineFallback(t *testing.T) {
	down := apperrors.NewNetworkError("timeout", nil)
	regions := []sources.Region{
		{Code: "NY", PortalURL: "https://www.dot.ny.gov", Providers: []sources.Provider{failingProvider{"a", down}}},
		{Code: "PA", PortalURL: "https://www.penndot.pa.gov", Providers: []sources.Provider{failingProvider{"b", down}}},
	}

	tests := []struct {
		name   string
		prev   *domain.Snapshot
		source domain.ConfidenceSource
		raw    float64
		score  float64
	}{
		{
			name:   "cached value",
			prev:   &domain.Snapshot{RunID: "previous", Values: map[domain.IndicatorName]float64{domain.IndicatorDOTPipeline: 4_000_000_000}},
			source: domain.SourceCache,
			raw:    4_000_000_000,
			score:  4.7,
		},
		{
			name:   "no snapshot",
			source: domain.SourceFallback,
			score:  5.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, regions, nil)
			report, _, err := engine.Run(context.Background(), RunRequest{ReferenceTime: reference}, tt.prev)
			require.NoError(t, err)

			assert.Zero(t, report.Coverage.CapturedRatio)
			assert.Zero(t, report.Coverage.ExtrapolatedTotal)
			assert.Len(t, report.Projects, 2)

			pipeline := report.Health.IndicatorScores[domain.IndicatorDOTPipeline]
			assert.Equal(t, tt.source, pipeline.ConfidenceSource)
			assert.Equal(t, tt.raw, pipeline.RawValue)
			assert.Equal(t, tt.score, pipeline.Score)
		})
	}
}

// TestEngineRunMalformedRows tests that odd rows degrade inside the report
// instead of failing the run
func TestEngineRunMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		row  sources.Row
	}{
		{"fiscal year out of range", sources.Row{Text: "Historic bridge built FY1850 rehabilitation, estimate $2,000,000"}},
		{"fiscal year far future", sources.Row{Fields: map[string]string{
			"description": "Interchange reconstruction", "estimate": "$2,000,000", "fiscal year": "FY9999"}}},
		{"long multibyte text", sources.Row{Text: strings.Repeat("Réfection du pont – tablier ", 20) + "$2,000,000"}},
		{"unparsable dates", sources.Row{Fields: map[string]string{
			"description": "Culvert replacement on Route 9", "estimate": "$2,000,000",
			"letting date": "TBD (spring)", "advertised": "31/31/2026"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regions := []sources.Region{{
				Code:      "NY",
				PortalURL: "https://www.dot.ny.gov/doing-business/opportunities/const-notices",
				Providers: []sources.Provider{sources.NewStaticProvider("nysdot-notices", []sources.Row{
					tt.row,
					row("Bridge replacement over the Hudson River", "$10,000,000", reference.AddDate(0, 0, 30)),
				})},
			}}
			engine := newTestEngine(t, regions, nil)

			report, resp, err := engine.Run(context.Background(), RunRequest{ReferenceTime: reference}, nil)
			require.NoError(t, err)
			require.NotNil(t, report)
			assert.Equal(t, RunStatusCompleted, resp.Status)
			assert.NoError(t, report.Validate())

			projects := report.ProjectsByRegion()["NY"]
			require.Len(t, projects, 2)
			for _, p := range projects {
				assert.True(t, utf8.ValidString(p.Description))
				assert.Nil(t, p.FiscalYear)
			}
			assert.InDelta(t, 12_000_000, report.Coverage.CapturedRawTotal, 1e-6)
		})
	}
}

// TestEngineRunRegionFilter tests running a subset of regions
func TestEngineRunRegionFilter(t *testing.T) {
	engine := newTestEngine(t, testRegions(), nil)
	assert.Equal(t, []string{"NY", "PA", "VT"}, engine.RegionCodes())

	report, _, err := engine.Run(context.Background(), RunRequest{Regions: []string{"PA"}}, nil)
	require.NoError(t, err)
	require.Len(t, report.Resolutions, 1)
	assert.Equal(t, "PA", report.Resolutions[0].Region)

	_, resp, err := engine.Run(context.Background(), RunRequest{Regions: []string{"TX"}}, nil)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(err))
	assert.Equal(t, RunStatusFailed, resp.Status)

	_, _, err = engine.Run(context.Background(), RunRequest{ID: "not-a-uuid"}, nil)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
}

// TestEngineRunCancelled tests that cancellation ends the run
func TestEngineRunCancelled(t *testing.T) {
	hub := &testutil.MockWebSocketHub{}
	engine := newTestEngine(t, testRegions(), hub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, resp, err := engine.Run(ctx, RunRequest{}, nil)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, IsCancellation(err))
	assert.Equal(t, RunStatusCancelled, resp.Status)
	for _, s := range resp.Steps {
		assert.Equal(t, StepStatusSkipped, s.Status, s.ID)
	}
	assert.Len(t, hub.GetMessagesByType(EventTypeRunError), 1)
}

// TestNewEngineRequiresCollector tests constructor validation
func TestNewEngineRequiresCollector(t *testing.T) {
	_, err := NewEngine(config.Default(), Deps{})
	assert.Error(t, err)
}
