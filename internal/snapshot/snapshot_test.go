package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrapulse/internal/config"
	apperrors "infrapulse/internal/errors"
	"infrapulse/pkg/contracts/domain"
)

func testSnapshot(id string, at time.Time, score float64) *domain.Snapshot {
	return &domain.Snapshot{
		RunID:   id,
		TakenAt: at,
		Values: map[domain.IndicatorName]float64{
			domain.IndicatorDOTPipeline:    23_437_500,
			domain.IndicatorHousingPermits: 16_050,
		},
		OverallScore: score,
	}
}

func TestJSONStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "snapshot.json")
	store := NewJSONStore(path)

	prev, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, prev)

	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, testSnapshot("run-1", at, 6.1)))
	require.NoError(t, store.Save(ctx, testSnapshot("run-2", at.Add(time.Hour), 6.4)))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", got.RunID)
	assert.True(t, at.Add(time.Hour).Equal(got.TakenAt))
	v, ok := got.Value(domain.IndicatorDOTPipeline)
	assert.True(t, ok)
	assert.Equal(t, 23_437_500.0, v)

	// previous version kept as backup, temp file gone
	assert.FileExists(t, path+".bak")
	assert.NoFileExists(t, path+".tmp")

	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = store.Load(ctx)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	prev, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, prev)

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, store.Save(ctx, testSnapshot(id, base.Add(time.Duration(i)*time.Hour), 5+float64(i))))
	}
	// same run saved again replaces its row
	require.NoError(t, store.Save(ctx, testSnapshot("run-2", base.Add(time.Hour), 6.5)))

	latest, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-3", latest.RunID)
	assert.Equal(t, 7.0, latest.OverallScore)

	history, err := store.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"run-3", "run-2", "run-1"}, []string{history[0].RunID, history[1].RunID, history[2].RunID})
	assert.Equal(t, 6.5, history[1].OverallScore)
	assert.Equal(t, 16_050.0, history[2].Values[domain.IndicatorHousingPermits])

	// reopening keeps the data and skips the migration
	require.NoError(t, store.Close())
	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	history, err = reopened.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "run-3", history[0].RunID)
}

func TestOpenByFormat(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	paths := &config.Paths{
		Snapshot:  filepath.Join(dir, "snapshot.json"),
		HistoryDB: filepath.Join(dir, "history.db"),
	}

	tests := []struct {
		format  string
		wantErr bool
		check   func(t *testing.T, s Store)
	}{
		{"json", false, func(t *testing.T, s Store) { assert.IsType(t, &JSONStore{}, s) }},
		{"sqlite", false, func(t *testing.T, s Store) { assert.IsType(t, &SQLiteStore{}, s) }},
		{"", false, func(t *testing.T, s Store) { assert.IsType(t, &SQLiteStore{}, s) }},
		{"xml", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			paths.SnapshotFmt = tt.format
			s, err := Open(ctx, paths)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			tt.check(t, s)
		})
	}
}

func TestRunLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks", "run.lock")
	first := NewRunLock(path)
	second := NewRunLock(path)

	require.NoError(t, first.TryAcquire())

	err := second.TryAcquire()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLock))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = second.Acquire(ctx, 10*time.Millisecond)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLock))

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())

	require.NoError(t, second.Acquire(context.Background(), 10*time.Millisecond))
	require.NoError(t, second.Release())
}
