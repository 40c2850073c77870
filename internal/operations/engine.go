package operations

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"infrapulse/internal/composite"
	"infrapulse/internal/config"
	"infrapulse/internal/coverage"
	"infrapulse/internal/indicators"
	"infrapulse/internal/infrastructure"
	"infrapulse/internal/normalize"
	"infrapulse/internal/sources"
	"infrapulse/pkg/contracts"
	"infrapulse/pkg/contracts/domain"
)

var validate = validator.New()

// Deps are the collaborators an Engine does not build from configuration
type Deps struct {
	// Regions carry the provider tiers, usually from sources.Catalog
	Regions []sources.Region
	// Collector supplies the economic series
	Collector SeriesCollector
	// Metrics may be nil
	Metrics *infrastructure.PipelineMetrics
	// Hub may be nil
	Hub    WebSocketHub
	Logger *slog.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

// Engine runs the aggregation pipeline. Runs inside one Engine are
// serialized; separate processes must share a snapshot.RunLock.
type Engine struct {
	registry    *Registry
	regions     []sources.Region
	broadcaster *StatusBroadcaster
	metrics     *infrastructure.PipelineMetrics
	logger      *slog.Logger
	now         func() time.Time
	timeout     time.Duration

	runMu sync.Mutex
}

// NewEngine wires every step from configuration
func NewEngine(cfg *config.Config, deps Deps) (*Engine, error) {
	if deps.Collector == nil {
		return nil, fmt.Errorf("create engine: series collector is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger := deps.Logger.With(slog.String("component", "engine"))

	extrapolator, err := coverage.NewExtrapolator(cfg.Apportionment())
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	resolver := sources.NewResolver(sources.ResolverConfig{
		Concurrency: cfg.Sources.Concurrency,
		Timeout:     cfg.Sources.Timeout,
	}, deps.Logger, deps.Metrics)
	normalizer := normalize.New(normalize.Options{
		NoiseFloor: cfg.Normalize.NoiseFloor,
		Towns:      cfg.Towns(),
	}, deps.Logger)

	registry := NewRegistry()
	for _, step := range []Step{
		NewResolveStep(resolver),
		NewNormalizeStep(normalizer),
		NewDedupStep(deps.Metrics),
		NewCoverageStep(extrapolator),
		NewWeightStep(cfg.TimeWeight),
		NewSeriesStep(deps.Collector),
		NewScoreStep(indicators.NewScorer(cfg.Indicators, deps.Logger), logger),
		NewCompositeStep(composite.NewAggregator(cfg.Composite, deps.Logger), deps.Now),
	} {
		if err := registry.Register(step); err != nil {
			return nil, fmt.Errorf("create engine: %w", err)
		}
	}

	timeout := cfg.Server.RunTimeout
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}

	return &Engine{
		registry:    registry,
		regions:     deps.Regions,
		broadcaster: NewStatusBroadcaster(deps.Hub, deps.Logger),
		metrics:     deps.Metrics,
		logger:      logger,
		now:         deps.Now,
		timeout:     timeout,
	}, nil
}

// Registry returns the engine's steps
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Broadcaster returns the run status authority
func (e *Engine) Broadcaster() *StatusBroadcaster {
	return e.broadcaster
}

// RegionCodes lists the configured region codes in resolution order
func (e *Engine) RegionCodes() []string {
	codes := make([]string, 0, len(e.regions))
	for _, r := range e.regions {
		codes = append(codes, r.Code)
	}
	return codes
}

// Run executes one aggregation run against the previous snapshot (nil on
// the first run). Degraded sources never fail a run; the error is non-nil
// only for cancellation, an unknown region or a report that breaks its
// schema.
func (e *Engine) Run(ctx context.Context, req RunRequest, prev *domain.Snapshot) (*domain.MarketHealthReport, RunResponse, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if err := req.Validate(); err != nil {
		return nil, RunResponse{ID: req.ID, Status: RunStatusFailed, Error: err.Error()},
			NewValidationError("", "invalid run request", err)
	}
	reference := req.ReferenceTime
	if reference.IsZero() {
		reference = e.now()
	}
	reference = reference.UTC()

	steps := e.registry.List()
	run := NewRunState(req.ID, reference, prev, steps)

	regions, err := e.selectRegions(req.Regions)
	if err != nil {
		run.Fail(err)
		return nil, run.Response(), err
	}
	run.Regions = regions

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := infrastructure.StartSpan(ctx, "aggregation.run",
		attribute.String("run.id", run.ID),
		attribute.Int("run.regions", len(regions)))
	defer span.End()

	logger := e.logger.With(slog.String("run_id", run.ID))
	logger.InfoContext(ctx, "aggregation run started",
		slog.Time("reference", reference),
		slog.Int("regions", len(regions)),
		slog.Bool("has_snapshot", prev != nil))

	run.Start()
	e.broadcaster.Publish(EventTypeRunStatus, run, "")

	if err := e.execute(ctx, run, steps, logger); err != nil {
		infrastructure.RecordError(ctx, err)
		if IsCancellation(err) {
			run.Cancel(err)
		} else {
			run.Fail(err)
		}
		e.broadcaster.Publish(EventTypeRunError, run, "")
		infrastructure.RecordRun(ctx, e.metrics, run.Duration(), false, 0)
		logger.ErrorContext(ctx, "aggregation run failed",
			slog.String("error_type", string(GetErrorType(err))),
			slog.String("error", err.Error()))
		return nil, run.Response(), err
	}

	report := e.report(run)
	if err := report.Validate(); err != nil {
		verr := NewValidationError(StepIDComposite, "report violates its schema", err)
		run.Fail(verr)
		e.broadcaster.Publish(EventTypeRunError, run, "")
		infrastructure.RecordRun(ctx, e.metrics, run.Duration(), false, 0)
		return nil, run.Response(), verr
	}

	run.Complete()
	e.broadcaster.Publish(EventTypeRunComplete, run, "")
	infrastructure.RecordRun(ctx, e.metrics, run.Duration(), true, report.Health.OverallScore)
	logger.InfoContext(ctx, "aggregation run completed",
		slog.Duration("duration", run.Duration()),
		slog.Int("projects", len(report.Projects)),
		slog.Float64("overall_score", report.Health.OverallScore),
		slog.String("overall_status", string(report.Health.OverallStatus)))
	return report, run.Response(), nil
}

// execute runs steps in order; after a failure the remaining steps are
// marked skipped
func (e *Engine) execute(ctx context.Context, run *RunState, steps []Step, logger *slog.Logger) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			skipRemaining(run, steps[i:], "run cancelled")
			return NewCancellationError(step.ID(), err)
		}

		st := run.Step(step.ID())
		st.Start()
		e.broadcaster.Publish(EventTypeRunProgress, run, step.ID())

		stepCtx, span := infrastructure.StartSpan(ctx, "aggregation.step."+step.ID())
		start := time.Now()
		err := step.Execute(stepCtx, run)
		elapsed := time.Since(start)
		infrastructure.RecordStep(ctx, e.metrics, step.ID(), elapsed, err == nil)

		if err != nil {
			infrastructure.RecordError(stepCtx, err)
			span.End()
			st.Fail(err)
			skipRemaining(run, steps[i+1:], "previous step failed")
			if ctx.Err() != nil {
				return NewCancellationError(step.ID(), err)
			}
			return NewExecutionError(step.ID(), err)
		}
		span.End()
		st.Complete("")

		logger.DebugContext(ctx, "step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", elapsed))
	}
	return nil
}

func skipRemaining(run *RunState, steps []Step, reason string) {
	for _, s := range steps {
		if st := run.Step(s.ID()); st != nil {
			st.Skip(reason)
		}
	}
}

// selectRegions keeps configured order; an empty filter selects every region
func (e *Engine) selectRegions(codes []string) ([]sources.Region, error) {
	if len(codes) == 0 {
		return e.regions, nil
	}
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	out := make([]sources.Region, 0, len(codes))
	for _, r := range e.regions {
		if want[r.Code] {
			out = append(out, r)
			delete(want, r.Code)
		}
	}
	for code := range want {
		return nil, NewNotFoundError("region " + code)
	}
	return out, nil
}

func (e *Engine) report(run *RunState) *domain.MarketHealthReport {
	resolutions := make([]domain.RegionResolution, 0, len(run.Resolutions))
	for _, r := range run.Resolutions {
		resolutions = append(resolutions, r.Diagnostics())
	}
	projects := run.Dedup.Records
	if projects == nil {
		projects = []domain.ProjectRecord{}
	}
	return &domain.MarketHealthReport{
		Schema:        contracts.ReportSchema,
		Version:       contracts.DataFormatVersion,
		RunID:         run.ID,
		GeneratedAt:   run.Health.GeneratedAt,
		ReferenceTime: run.Reference,
		Projects:      projects,
		Coverage:      run.Coverage,
		Resolutions:   resolutions,
		Pipeline:      run.Pipeline,
		Health:        run.Health,
	}
}
