package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrapulse/internal/operations"
	"infrapulse/internal/snapshot"
	"infrapulse/pkg/contracts"
)

type countingHub int

func (c countingHub) ClientCount() int { return int(c) }

func TestHealthCheck(t *testing.T) {
	ctx := context.Background()
	paths := testPaths(t)
	reports := NewReportService(newFakeEngine(6), snapshot.NewJSONStore(paths.Snapshot), nil, paths, testRegions(), nil)
	health := NewHealthService(reports, nil, countingHub(2), 24*time.Hour, nil)

	status := health.Check(ctx)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "missing", status.Services["report"].Status)
	assert.Equal(t, "idle", status.Services["run"].Status)
	assert.Equal(t, "2 clients connected", status.Services["websocket"].Message)
	assert.Equal(t, contracts.Version, status.Version.Version)
	assert.Positive(t, status.Runtime.Goroutines)

	_, _, err := reports.Run(ctx, operations.RunRequest{})
	require.NoError(t, err)

	health.now = func() time.Time { return testAt.Add(2 * time.Hour) }
	status = health.Check(ctx)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "ok", status.Services["report"].Status)

	health.now = func() time.Time { return testAt.Add(72 * time.Hour) }
	status = health.Check(ctx)
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "stale", status.Services["report"].Status)
}
