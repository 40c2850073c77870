package sources

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/infrastructure"
	"infrapulse/pkg/contracts/domain"
)

// Region is a jurisdiction with its ordered provider tiers
type Region struct {
	Code      string
	PortalURL string
	Providers []Provider
}

// Resolution is the outcome of resolving one region
type Resolution struct {
	Region   string
	Provider string
	Rows     []Row
	Attempts []domain.SourceAttempt
	// Stub is set when every provider failed
	Stub *domain.ProjectRecord
}

// Diagnostics returns the report view of the resolution
func (r Resolution) Diagnostics() domain.RegionResolution {
	attempts := r.Attempts
	if attempts == nil {
		attempts = []domain.SourceAttempt{}
	}
	return domain.RegionResolution{
		Region:   r.Region,
		Provider: r.Provider,
		Attempts: attempts,
		Stubbed:  r.Stub != nil,
	}
}

// ResolverConfig bounds resolution work
type ResolverConfig struct {
	// Concurrency is the number of regions resolved in parallel
	Concurrency int
	// Timeout applies to each provider fetch
	Timeout time.Duration
}

// Resolver walks a region's providers until one yields rows
type Resolver struct {
	cfg     ResolverConfig
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewResolver creates a resolver; metrics may be nil
func NewResolver(cfg ResolverConfig, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Resolver {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "resolver")),
		metrics: metrics,
	}
}

// Resolve tries region's providers in order. It never fails: when no
// provider succeeds the resolution carries a portal stub instead of rows.
func (r *Resolver) Resolve(ctx context.Context, region Region) Resolution {
	res := Resolution{Region: region.Code}

	for _, p := range region.Providers {
		if ctx.Err() != nil {
			break
		}
		attempt, batch := r.attempt(ctx, region.Code, p)
		res.Attempts = append(res.Attempts, attempt)
		if attempt.Outcome == domain.OutcomeSuccess {
			res.Provider = p.Name()
			res.Rows = batch.Rows
			infrastructure.RecordRegionResolution(ctx, r.metrics, region.Code, res.Provider)
			return res
		}
	}

	stub := PortalStub(region)
	res.Stub = &stub
	r.logger.WarnContext(ctx, "all providers failed, emitting portal stub",
		slog.String("region", region.Code),
		slog.Int("attempts", len(res.Attempts)),
		slog.String("portal", region.PortalURL))
	infrastructure.RecordRegionResolution(ctx, r.metrics, region.Code, PortalStubSource)
	return res
}

func (r *Resolver) attempt(ctx context.Context, region string, p Provider) (domain.SourceAttempt, Batch) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	start := time.Now()
	batch, err := p.Fetch(fetchCtx, region)
	attempt := domain.SourceAttempt{
		Provider:   p.Name(),
		Outcome:    classifyAttempt(err, len(batch.Rows)),
		Bytes:      batch.Bytes,
		Rows:       len(batch.Rows),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		attempt.Error = err.Error()
		r.logger.InfoContext(ctx, "provider failed",
			slog.String("region", region),
			slog.String("provider", attempt.Provider),
			slog.String("outcome", string(attempt.Outcome)),
			slog.String("error", err.Error()))
	} else {
		r.logger.DebugContext(ctx, "provider answered",
			slog.String("region", region),
			slog.String("provider", attempt.Provider),
			slog.Int("rows", attempt.Rows),
			slog.Int("bytes", attempt.Bytes))
	}
	infrastructure.RecordProviderAttempt(ctx, r.metrics, region, attempt.Provider, string(attempt.Outcome))
	return attempt, batch
}

// classifyAttempt maps a fetch result to a trail outcome
func classifyAttempt(err error, rows int) domain.AttemptOutcome {
	if err != nil {
		switch apperrors.TypeOf(err) {
		case apperrors.ErrTypeParsing:
			return domain.OutcomeParseError
		case apperrors.ErrTypeEmpty:
			return domain.OutcomeEmpty
		}
		return domain.OutcomeHTTPError
	}
	if rows == 0 {
		return domain.OutcomeEmpty
	}
	return domain.OutcomeSuccess
}

// ResolveAll resolves regions in parallel, at most Concurrency at a time.
// Results keep the order of regions. A provider failure never cancels a
// sibling region; only cancellation of ctx ends the run early.
func (r *Resolver) ResolveAll(ctx context.Context, regions []Region) ([]Resolution, error) {
	out := make([]Resolution, len(regions))

	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for i, region := range regions {
		g.Go(func() error {
			out[i] = r.Resolve(ctx, region)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
