package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	apperrors "infrapulse/internal/errors"
)

// RunLock is an advisory file lock held for the duration of a run
type RunLock struct {
	fl *flock.Flock
}

// NewRunLock creates a lock on path; the file is created on first use
func NewRunLock(path string) *RunLock {
	return &RunLock{fl: flock.New(path)}
}

// Acquire waits for the lock until ctx ends, polling every retry
func (l *RunLock) Acquire(ctx context.Context, retry time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o755); err != nil {
		return apperrors.NewLockError("create lock directory", err)
	}
	if retry <= 0 {
		retry = 250 * time.Millisecond
	}
	ok, err := l.fl.TryLockContext(ctx, retry)
	if err != nil {
		return apperrors.NewLockError("acquire run lock", err).WithContext("path", l.fl.Path())
	}
	if !ok {
		return apperrors.NewLockError("run lock held by another process", nil).WithContext("path", l.fl.Path())
	}
	return nil
}

// TryAcquire takes the lock only if it is free
func (l *RunLock) TryAcquire() error {
	if err := os.MkdirAll(filepath.Dir(l.fl.Path()), 0o755); err != nil {
		return apperrors.NewLockError("create lock directory", err)
	}
	ok, err := l.fl.TryLock()
	if err != nil {
		return apperrors.NewLockError("acquire run lock", err)
	}
	if !ok {
		return apperrors.NewLockError("run already in progress", nil).WithContext("path", l.fl.Path())
	}
	return nil
}

// Release unlocks; releasing an unheld lock is a no-op
func (l *RunLock) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return apperrors.NewLockError("release run lock", err)
	}
	return nil
}
