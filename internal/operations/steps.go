package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"infrapulse/internal/composite"
	"infrapulse/internal/coverage"
	"infrapulse/internal/dedup"
	"infrapulse/internal/indicators"
	"infrapulse/internal/infrastructure"
	"infrapulse/internal/normalize"
	"infrapulse/internal/sources"
	"infrapulse/internal/timeweight"
	"infrapulse/pkg/contracts/domain"
)

// SeriesCollector supplies the economic indicator inputs of a run
type SeriesCollector interface {
	Collect(ctx context.Context) (indicators.Inputs, error)
}

// ResolveStep walks every region's provider tiers
type ResolveStep struct {
	BaseStep
	resolver *sources.Resolver
}

// NewResolveStep creates the source resolution step
func NewResolveStep(resolver *sources.Resolver) *ResolveStep {
	return &ResolveStep{
		BaseStep: NewBaseStep(StepIDResolve, StepNameResolve),
		resolver: resolver,
	}
}

// Execute resolves the run's regions. Provider failures are recorded in each
// region's trail; only cancellation fails the step.
func (s *ResolveStep) Execute(ctx context.Context, run *RunState) error {
	resolutions, err := s.resolver.ResolveAll(ctx, run.Regions)
	if err != nil {
		return err
	}
	run.Resolutions = resolutions

	stubbed := 0
	for _, r := range resolutions {
		if r.Stub != nil {
			stubbed++
		}
	}
	st := run.Step(s.ID())
	st.SetMetadata("regions", len(resolutions))
	st.SetMetadata("stubbed", stubbed)
	return nil
}

// NormalizeStep maps raw rows to project records
type NormalizeStep struct {
	BaseStep
	normalizer *normalize.Normalizer
}

// NewNormalizeStep creates the normalization step
func NewNormalizeStep(n *normalize.Normalizer) *NormalizeStep {
	return &NormalizeStep{BaseStep: NewBaseStep(StepIDNormalize, StepNameNormalize), normalizer: n}
}

// Execute normalizes rows region by region, keeping resolution order so
// deduplication sees higher tiers first. Stubbed regions contribute their
// portal stub.
func (s *NormalizeStep) Execute(ctx context.Context, run *RunState) error {
	records := make([]domain.ProjectRecord, 0)
	dropped := 0
	for _, res := range run.Resolutions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if res.Stub != nil {
			records = append(records, *res.Stub)
			continue
		}
		recs, d := s.normalizer.NormalizeAll(res.Region, res.Provider, res.Rows)
		records = append(records, recs...)
		dropped += d
	}
	run.Records = records
	run.RowsDropped = dropped

	st := run.Step(s.ID())
	st.SetMetadata("records", len(records))
	st.SetMetadata("rows_dropped", dropped)
	return nil
}

// DedupStep removes projects reported by more than one source
type DedupStep struct {
	BaseStep
	metrics *infrastructure.PipelineMetrics
}

// NewDedupStep creates the deduplication step
func NewDedupStep(metrics *infrastructure.PipelineMetrics) *DedupStep {
	return &DedupStep{BaseStep: NewBaseStep(StepIDDedup, StepNameDedup), metrics: metrics}
}

// Execute deduplicates the normalized records
func (s *DedupStep) Execute(ctx context.Context, run *RunState) error {
	run.Dedup = dedup.Deduplicate(run.Records)
	infrastructure.RecordRecordCounts(ctx, s.metrics, run.RowsDropped, run.Dedup.Removed)

	st := run.Step(s.ID())
	st.SetMetadata("unique", len(run.Dedup.Records))
	st.SetMetadata("removed", run.Dedup.Removed)
	return nil
}

// CoverageStep extrapolates the captured pipeline to the whole market
type CoverageStep struct {
	BaseStep
	extrapolator *coverage.Extrapolator
}

// NewCoverageStep creates the coverage step
func NewCoverageStep(e *coverage.Extrapolator) *CoverageStep {
	return &CoverageStep{BaseStep: NewBaseStep(StepIDCoverage, StepNameCoverage), extrapolator: e}
}

// Execute totals priced records per region. A region has data once at
// least one of its records carries a cost; stubs and unpriced listings do
// not count toward the captured share.
func (s *CoverageStep) Execute(_ context.Context, run *RunState) error {
	run.Coverage = s.extrapolator.Extrapolate(RegionTotals(run.Dedup.Records))

	st := run.Step(s.ID())
	st.SetMetadata("captured_ratio", run.Coverage.CapturedRatio)
	st.SetMetadata("extrapolated_total", run.Coverage.ExtrapolatedTotal)
	return nil
}

// RegionTotals sums record values by region
func RegionTotals(records []domain.ProjectRecord) []coverage.RegionTotal {
	byRegion := make(map[string]*coverage.RegionTotal)
	order := make([]string, 0)
	for _, p := range records {
		if p.Status == domain.StatusVerify && !p.HasCost() {
			continue
		}
		t, ok := byRegion[p.Region]
		if !ok {
			t = &coverage.RegionTotal{Region: p.Region}
			byRegion[p.Region] = t
			order = append(order, p.Region)
		}
		t.Records++
		if v := p.Value(); v > 0 {
			t.Total += v
			t.HasData = true
		}
	}
	out := make([]coverage.RegionTotal, 0, len(order))
	for _, region := range order {
		out = append(out, *byRegion[region])
	}
	return out
}

// WeightStep applies the time-decay horizon table
type WeightStep struct {
	BaseStep
	table timeweight.Table
}

// NewWeightStep creates the time weighting step
func NewWeightStep(table timeweight.Table) *WeightStep {
	return &WeightStep{BaseStep: NewBaseStep(StepIDWeight, StepNameWeight), table: table}
}

// Execute weights the unique records against the run's reference time
func (s *WeightStep) Execute(_ context.Context, run *RunState) error {
	run.Weighting = timeweight.NewWeighter(s.table, run.Reference).Aggregate(run.Dedup.Records)

	st := run.Step(s.ID())
	st.SetMetadata("weight_ratio", run.Weighting.Ratio)
	st.SetMetadata("dated", run.Weighting.Dated)
	st.SetMetadata("undated", run.Weighting.Undated)
	return nil
}

// SeriesStep gathers the economic time series
type SeriesStep struct {
	BaseStep
	collector SeriesCollector
}

// NewSeriesStep creates the economic series step
func NewSeriesStep(c SeriesCollector) *SeriesStep {
	return &SeriesStep{BaseStep: NewBaseStep(StepIDSeries, StepNameSeries), collector: c}
}

// Execute collects the series; unavailable providers were already replaced
// by fallbacks, so only cancellation fails it
func (s *SeriesStep) Execute(ctx context.Context, run *RunState) error {
	in, err := s.collector.Collect(ctx)
	if err != nil {
		return err
	}
	// the pipeline input belongs to the score step
	in.Pipeline = indicators.PipelineInput{}
	run.Inputs = in
	return nil
}

// ScoreStep scores the seven indicators
type ScoreStep struct {
	BaseStep
	scorer   *indicators.Scorer
	baseline float64
	logger   *slog.Logger
}

// NewScoreStep creates the indicator scoring step
func NewScoreStep(scorer *indicators.Scorer, logger *slog.Logger) *ScoreStep {
	return &ScoreStep{
		BaseStep: NewBaseStep(StepIDScore, StepNameScore),
		scorer:   scorer,
		baseline: scorer.Params().Pipeline.Baseline,
		logger:   logger,
	}
}

// Execute derives the pipeline input from coverage and weighting, then
// scores every indicator against the previous snapshot
func (s *ScoreStep) Execute(ctx context.Context, run *RunState) error {
	run.Inputs.Pipeline = s.pipelineInput(ctx, run)
	run.Pipeline = domain.PipelineSummary{
		RawValue:             run.Inputs.Pipeline.RawValue,
		WeightedValue:        run.Inputs.Pipeline.WeightedValue,
		WeightRatio:          run.Weighting.Ratio,
		NominalBaseline:      s.baseline,
		TimeWeightedBaseline: run.Inputs.Pipeline.TimeWeightedBaseline,
		DuplicatesRemoved:    run.Dedup.Removed,
		RowsDropped:          run.RowsDropped,
	}
	run.Scores = s.scorer.ScoreAll(run.Inputs, run.Previous)

	fallbacks := 0
	for _, sc := range run.Scores {
		if sc.ConfidenceSource != domain.SourceLiveAPI {
			fallbacks++
		}
	}
	run.Step(s.ID()).SetMetadata("non_live_indicators", fallbacks)
	return nil
}

// pipelineInput uses the extrapolated market total. Without any priced
// record it reuses the previous run's pipeline value, and without a
// previous run it leaves the indicator to its neutral score.
func (s *ScoreStep) pipelineInput(ctx context.Context, run *RunState) indicators.PipelineInput {
	total := run.Coverage.ExtrapolatedTotal
	if total > 0 {
		return indicators.PipelineInput{
			RawValue:             total,
			WeightedValue:        total * run.Weighting.Ratio,
			TimeWeightedBaseline: run.Weighting.TimeWeightedBaseline(s.baseline),
			Source:               domain.SourceLiveAPI,
		}
	}

	if cached, ok := run.Previous.Value(domain.IndicatorDOTPipeline); ok && cached > 0 {
		s.logger.InfoContext(ctx, "no priced projects, scoring cached pipeline value",
			slog.Float64("cached_value", cached),
			slog.String("snapshot_run_id", run.Previous.RunID))
		return indicators.PipelineInput{RawValue: cached, Source: domain.SourceCache}
	}

	s.logger.WarnContext(ctx, "no priced projects and no cached pipeline value")
	return indicators.PipelineInput{Source: domain.SourceFallback}
}

// CompositeStep rolls the scores up into the overall health
type CompositeStep struct {
	BaseStep
	aggregator *composite.Aggregator
	now        func() time.Time
}

// NewCompositeStep creates the composite step; now stamps the result
func NewCompositeStep(a *composite.Aggregator, now func() time.Time) *CompositeStep {
	if now == nil {
		now = time.Now
	}
	return &CompositeStep{BaseStep: NewBaseStep(StepIDComposite, StepNameComposite), aggregator: a, now: now}
}

// Execute aggregates the indicator scores
func (s *CompositeStep) Execute(_ context.Context, run *RunState) error {
	if len(run.Scores) == 0 {
		return fmt.Errorf("no indicator scores")
	}
	run.Health = s.aggregator.Aggregate(run.Scores, s.now().UTC())

	st := run.Step(s.ID())
	st.SetMetadata("overall_score", run.Health.OverallScore)
	st.SetMetadata("overall_status", string(run.Health.OverallStatus))
	return nil
}
