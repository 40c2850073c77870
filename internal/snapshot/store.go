package snapshot

import (
	"context"
	"fmt"

	"infrapulse/internal/config"
	"infrapulse/pkg/contracts/domain"
)

// Store reads and writes the previous-run snapshot
type Store interface {
	// Load returns the latest snapshot, or nil when no run has completed
	Load(ctx context.Context) (*domain.Snapshot, error)
	// Save replaces the latest snapshot
	Save(ctx context.Context, s *domain.Snapshot) error
	Close() error
}

// Open returns the store selected by paths.SnapshotFmt
func Open(ctx context.Context, paths *config.Paths) (Store, error) {
	switch paths.SnapshotFmt {
	case "json":
		return NewJSONStore(paths.Snapshot), nil
	case "sqlite", "":
		return OpenSQLite(ctx, paths.HistoryDB)
	}
	return nil, fmt.Errorf("unknown snapshot format %q", paths.SnapshotFmt)
}

// HistoryStore is implemented by stores that keep every run
type HistoryStore interface {
	History(ctx context.Context, limit int) ([]domain.Snapshot, error)
}

// History returns up to limit snapshots, newest first. Stores without
// history yield at most the latest snapshot.
func History(ctx context.Context, store Store, limit int) ([]domain.Snapshot, error) {
	if h, ok := store.(HistoryStore); ok {
		return h.History(ctx, limit)
	}
	snap, err := store.Load(ctx)
	if err != nil || snap == nil {
		return []domain.Snapshot{}, err
	}
	return []domain.Snapshot{*snap}, nil
}
