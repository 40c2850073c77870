package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrapulse/internal/config"
	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/exporter"
	"infrapulse/internal/operations"
	"infrapulse/internal/operations/testutil"
	"infrapulse/internal/snapshot"
	"infrapulse/pkg/contracts/domain"
)

var testAt = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

// fakeEngine records the snapshots it was given and returns fixture reports
type fakeEngine struct {
	mu      sync.Mutex
	prevs   []*domain.Snapshot
	score   float64
	err     error
	block   chan struct{}
	started chan struct{}
	sb      *operations.StatusBroadcaster
}

func newFakeEngine(score float64) *fakeEngine {
	return &fakeEngine{score: score, sb: operations.NewStatusBroadcaster(nil, nil)}
}

func (e *fakeEngine) Run(ctx context.Context, req operations.RunRequest, prev *domain.Snapshot) (*domain.MarketHealthReport, operations.RunResponse, error) {
	e.mu.Lock()
	e.prevs = append(e.prevs, prev)
	n := len(e.prevs)
	e.mu.Unlock()

	if e.started != nil {
		close(e.started)
	}
	if e.block != nil {
		select {
		case <-e.block:
		case <-ctx.Done():
			return nil, operations.RunResponse{ID: req.ID, Status: operations.RunStatusCancelled}, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, operations.RunResponse{ID: req.ID, Status: operations.RunStatusFailed}, e.err
	}
	id := req.ID
	if id == "" {
		id = fmt.Sprintf("0b7c1c1e-7d6f-4c57-9f3a-4b8e2f1a9c%02d", n)
	}
	report := testutil.Report(id, testAt.Add(time.Duration(n)*time.Hour), e.score)
	return report, operations.RunResponse{ID: id, Status: operations.RunStatusCompleted}, nil
}

func (e *fakeEngine) Broadcaster() *operations.StatusBroadcaster { return e.sb }

func testPaths(t *testing.T) *config.Paths {
	dir := t.TempDir()
	return &config.Paths{
		Snapshot:   filepath.Join(dir, "data", "snapshot.json"),
		HistoryDB:  filepath.Join(dir, "data", "history.db"),
		LockFile:   filepath.Join(dir, "data", "run.lock"),
		LatestJSON: filepath.Join(dir, "reports", "latest.json"),
	}
}

func testRegions() []config.RegionConfig {
	return []config.RegionConfig{
		{Code: "NY", Name: "New York", Apportionment: 0.5, PortalURL: "https://example.test/ny",
			Providers: []config.ProviderConfig{{Name: "nysdot", Kind: "html_table"}}},
		{Code: "PA", Name: "Pennsylvania", Apportionment: 0.5, PortalURL: "https://example.test/pa"},
	}
}

func TestReportServiceRun(t *testing.T) {
	ctx := context.Background()
	paths := testPaths(t)
	store, err := snapshot.OpenSQLite(ctx, paths.HistoryDB)
	require.NoError(t, err)
	defer store.Close()

	engine := newFakeEngine(6.4)
	svc := NewReportService(engine, store, snapshot.NewRunLock(paths.LockFile), paths, testRegions(), nil)

	_, err = svc.Latest(ctx)
	assert.ErrorIs(t, err, ErrNoReport)

	first, resp, err := svc.Run(ctx, operations.RunRequest{})
	require.NoError(t, err)
	assert.Equal(t, operations.RunStatusCompleted, resp.Status)

	second, _, err := svc.Run(ctx, operations.RunRequest{})
	require.NoError(t, err)

	// the second run sees the first run's snapshot
	require.Len(t, engine.prevs, 2)
	assert.Nil(t, engine.prevs[0])
	require.NotNil(t, engine.prevs[1])
	assert.Equal(t, first.RunID, engine.prevs[1].RunID)

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, latest.RunID)

	onDisk, err := exporter.LoadReport(paths.LatestJSON)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, onDisk.RunID)

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.RunID, history[0].RunID)
	assert.Equal(t, 6.4, history[1].OverallScore)
}

func TestReportServiceLatestFromDisk(t *testing.T) {
	ctx := context.Background()
	paths := testPaths(t)
	report := testutil.Report("0b7c1c1e-7d6f-4c57-9f3a-4b8e2f1a9c09", testAt, 5.5)
	require.NoError(t, exporter.SaveReport(paths.LatestJSON, report))

	svc := NewReportService(newFakeEngine(5), snapshot.NewJSONStore(paths.Snapshot), nil, paths, testRegions(), nil)
	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, latest.RunID)

	// JSON store has no history table and returns at most the latest snapshot
	history, err := svc.History(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestReportServiceRunFailure(t *testing.T) {
	ctx := context.Background()
	paths := testPaths(t)
	engine := newFakeEngine(6)
	engine.err = operations.NewCancellationError("resolve", context.Canceled)
	store := snapshot.NewJSONStore(paths.Snapshot)
	svc := NewReportService(engine, store, snapshot.NewRunLock(paths.LockFile), paths, testRegions(), nil)

	_, resp, err := svc.Run(ctx, operations.RunRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.RunStatusFailed, resp.Status)

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.NoFileExists(t, paths.LatestJSON)

	// the lock was released
	engine.err = nil
	_, _, err = svc.Run(ctx, operations.RunRequest{})
	assert.NoError(t, err)
}

func TestReportServiceStartConflicts(t *testing.T) {
	paths := testPaths(t)
	engine := newFakeEngine(6)
	engine.block = make(chan struct{})
	engine.started = make(chan struct{})
	svc := NewReportService(engine, snapshot.NewJSONStore(paths.Snapshot), snapshot.NewRunLock(paths.LockFile), paths, testRegions(), nil)

	req, err := svc.Start(operations.RunRequest{})
	require.NoError(t, err)
	assert.Len(t, req.ID, 36)
	<-engine.started

	// a second process (or request) cannot start while the lock is held
	_, err = svc.Start(operations.RunRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLock))

	other := snapshot.NewRunLock(paths.LockFile)
	assert.Error(t, other.TryAcquire())

	close(engine.block)
	require.NoError(t, svc.Close(context.Background()))

	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, req.ID, latest.RunID)

	_, err = svc.Start(operations.RunRequest{})
	assert.True(t, errors.Is(err, ErrShuttingDown))
}

func TestReportServiceRegions(t *testing.T) {
	ctx := context.Background()
	paths := testPaths(t)
	svc := NewReportService(newFakeEngine(6), snapshot.NewJSONStore(paths.Snapshot), nil, paths, testRegions(), nil)

	views := svc.Regions(ctx)
	require.Len(t, views, 2)
	assert.Nil(t, views[0].Coverage)
	assert.Equal(t, []string{"nysdot"}, views[0].Providers)

	_, _, err := svc.Run(ctx, operations.RunRequest{})
	require.NoError(t, err)

	ny, err := svc.Region(ctx, "NY")
	require.NoError(t, err)
	require.NotNil(t, ny.Coverage)
	assert.True(t, ny.Coverage.HasData)
	assert.Equal(t, "nysdot", ny.Resolution.Provider)
	assert.Len(t, ny.Projects, 1)

	pa, err := svc.Region(ctx, "PA")
	require.NoError(t, err)
	assert.True(t, pa.Resolution.Stubbed)
	assert.Empty(t, pa.Projects)

	_, err = svc.Region(ctx, "TX")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}
