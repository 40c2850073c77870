package services

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"infrapulse/internal/config"
	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/exporter"
	"infrapulse/internal/operations"
	"infrapulse/internal/snapshot"
	"infrapulse/pkg/contracts/domain"
)

// RunEngine executes aggregation runs
type RunEngine interface {
	Run(ctx context.Context, req operations.RunRequest, prev *domain.Snapshot) (*domain.MarketHealthReport, operations.RunResponse, error)
	Broadcaster() *operations.StatusBroadcaster
}

// RegionView is the diagnostic view of one region in the latest report
type RegionView struct {
	Code          string                   `json:"code"`
	Name          string                   `json:"name"`
	Apportionment float64                  `json:"apportionment"`
	PortalURL     string                   `json:"portal_url"`
	Providers     []string                 `json:"providers"`
	Coverage      *domain.RegionCoverage   `json:"coverage,omitempty"`
	Resolution    *domain.RegionResolution `json:"resolution,omitempty"`
	Projects      []domain.ProjectRecord   `json:"projects,omitempty"`
}

// ReportService runs aggregations and serves their results
type ReportService struct {
	engine  RunEngine
	store   snapshot.Store
	lock    *snapshot.RunLock
	paths   *config.Paths
	regions []config.RegionConfig
	logger  *slog.Logger

	mu     sync.RWMutex
	latest *domain.MarketHealthReport

	// running is held for the duration of a run in this process
	running sync.Mutex

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewReportService wires the service. lock may be nil when a single
// process owns the data directory.
func NewReportService(engine RunEngine, store snapshot.Store, lock *snapshot.RunLock, paths *config.Paths, regions []config.RegionConfig, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ReportService{
		engine:  engine,
		store:   store,
		lock:    lock,
		paths:   paths,
		regions: regions,
		logger:  logger.With(slog.String("component", "report_service")),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Run executes one run synchronously and persists its results
func (s *ReportService) Run(ctx context.Context, req operations.RunRequest) (*domain.MarketHealthReport, operations.RunResponse, error) {
	if err := s.acquire(); err != nil {
		return nil, operations.RunResponse{ID: req.ID, Status: operations.RunStatusFailed, Error: err.Error()}, err
	}
	defer s.release()
	return s.run(ctx, req)
}

// Start launches a run in the background and returns once the run lock
// is held. Progress is published through the engine's broadcaster.
func (s *ReportService) Start(req operations.RunRequest) (operations.RunRequest, error) {
	if s.baseCtx.Err() != nil {
		return req, ErrShuttingDown
	}
	if err := s.acquire(); err != nil {
		return req, err
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release()
		if _, _, err := s.run(s.baseCtx, req); err != nil {
			s.logger.Warn("background run failed",
				slog.String("run_id", req.ID),
				slog.String("error", err.Error()))
		}
	}()
	return req, nil
}

func (s *ReportService) run(ctx context.Context, req operations.RunRequest) (*domain.MarketHealthReport, operations.RunResponse, error) {
	prev, err := s.store.Load(ctx)
	if err != nil {
		// an unreadable snapshot is treated as missing
		s.logger.WarnContext(ctx, "previous snapshot unavailable", slog.String("error", err.Error()))
		prev = nil
	}

	report, resp, err := s.engine.Run(ctx, req, prev)
	if err != nil {
		return nil, resp, err
	}

	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()

	if err := s.store.Save(ctx, domain.SnapshotFromReport(report)); err != nil {
		return report, resp, err
	}
	if s.paths != nil && s.paths.LatestJSON != "" {
		if err := exporter.SaveReport(s.paths.LatestJSON, report); err != nil {
			return report, resp, apperrors.NewStorageError("write latest report", err)
		}
	}
	s.logger.InfoContext(ctx, "report published",
		slog.String("run_id", report.RunID),
		slog.Float64("overall_score", report.Health.OverallScore))
	return report, resp, nil
}

func (s *ReportService) acquire() error {
	if !s.running.TryLock() {
		return apperrors.NewLockError("run already in progress", nil)
	}
	if s.lock == nil {
		return nil
	}
	if err := s.lock.TryAcquire(); err != nil {
		s.running.Unlock()
		return err
	}
	return nil
}

func (s *ReportService) release() {
	defer s.running.Unlock()
	if s.lock == nil {
		return
	}
	if err := s.lock.Release(); err != nil {
		s.logger.Error("failed to release run lock", slog.String("error", err.Error()))
	}
}

// Latest returns the most recent report, reading the published file when
// this process has not run yet
func (s *ReportService) Latest(ctx context.Context) (*domain.MarketHealthReport, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}
	if s.paths == nil || s.paths.LatestJSON == "" {
		return nil, ErrNoReport
	}

	report, err := exporter.LoadReport(s.paths.LatestJSON)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, apperrors.NewStorageError("read latest report", err)
	}

	s.mu.Lock()
	if s.latest == nil {
		s.latest = report
	}
	s.mu.Unlock()
	return report, nil
}

// Current returns the status of the active or last run
func (s *ReportService) Current() *operations.RunSnapshot {
	return s.engine.Broadcaster().Current()
}

// History returns up to limit past snapshots, newest first. Stores
// without history return only the latest snapshot.
func (s *ReportService) History(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	return snapshot.History(ctx, s.store, limit)
}

// Regions lists every configured region with its latest diagnostics
func (s *ReportService) Regions(ctx context.Context) []RegionView {
	report, _ := s.Latest(ctx)
	out := make([]RegionView, 0, len(s.regions))
	for _, rc := range s.regions {
		view := regionView(rc, report)
		view.Projects = nil
		out = append(out, view)
	}
	return out
}

// Region returns one region's diagnostics and projects
func (s *ReportService) Region(ctx context.Context, code string) (RegionView, error) {
	for _, rc := range s.regions {
		if rc.Code == code {
			report, _ := s.Latest(ctx)
			return regionView(rc, report), nil
		}
	}
	return RegionView{}, apperrors.NewNotFoundError("region " + code)
}

func regionView(rc config.RegionConfig, report *domain.MarketHealthReport) RegionView {
	view := RegionView{
		Code:          rc.Code,
		Name:          rc.Name,
		Apportionment: rc.Apportionment,
		PortalURL:     rc.PortalURL,
		Providers:     make([]string, 0, len(rc.Providers)),
	}
	for _, p := range rc.Providers {
		view.Providers = append(view.Providers, p.Name)
	}
	if report == nil {
		return view
	}
	for i := range report.Coverage.Regions {
		if report.Coverage.Regions[i].Region == rc.Code {
			c := report.Coverage.Regions[i]
			view.Coverage = &c
		}
	}
	if res, ok := report.Resolution(rc.Code); ok {
		view.Resolution = &res
	}
	view.Projects = report.ProjectsByRegion()[rc.Code]
	return view
}

// Close cancels background runs and waits for them to finish or for ctx
// to end
func (s *ReportService) Close(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRunAge reports how long ago the latest report was generated
func (s *ReportService) LastRunAge(now time.Time) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return 0, false
	}
	return now.Sub(s.latest.GeneratedAt), true
}
