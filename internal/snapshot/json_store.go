package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "infrapulse/internal/errors"
	"infrapulse/pkg/contracts/domain"
)

// JSONStore keeps the snapshot in a single JSON file
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by path
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Load reads the snapshot file; a missing file means no previous run
func (s *JSONStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("read snapshot", err).WithContext("path", s.path)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, apperrors.NewStorageError("decode snapshot", err).WithContext("path", s.path)
	}
	return &snap, nil
}

// Save writes the snapshot through a temp file and keeps the previous
// version as .bak
func (s *JSONStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("encode snapshot", err)
	}
	if err := WriteAtomic(s.path, b); err != nil {
		return apperrors.NewStorageError("write snapshot", err).WithContext("path", s.path)
	}
	return nil
}

// Close is a no-op
func (s *JSONStore) Close() error { return nil }

// WriteAtomic replaces path with data via a temp file and rename
func WriteAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	bak := path + ".bak"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	_ = os.Remove(bak)
	_ = os.Rename(path, bak)
	return os.Rename(tmp, path)
}
