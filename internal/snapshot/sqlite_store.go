package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	apperrors "infrapulse/internal/errors"
	"infrapulse/pkg/contracts/domain"
)

const schemaVersion = 1

// SQLiteStore keeps every run's snapshot, so it doubles as run history
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.NewStorageError("create database directory", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, apperrors.NewStorageError("open database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorageError("ping database", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStorageError("migrate database", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS snapshots (
  run_id TEXT PRIMARY KEY,
  taken_at TEXT NOT NULL,
  overall_score REAL NOT NULL,
  indicator_values TEXT NOT NULL DEFAULT '{}'
);
`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at
ON snapshots(taken_at);
`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Load returns the most recent snapshot
func (s *SQLiteStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	history, err := s.History(ctx, 1)
	if err != nil || len(history) == 0 {
		return nil, err
	}
	return &history[0], nil
}

// Save records the snapshot; saving the same run twice replaces it
func (s *SQLiteStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	values, err := json.Marshal(snap.Values)
	if err != nil {
		return apperrors.NewStorageError("encode snapshot values", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (run_id, taken_at, overall_score, indicator_values)
VALUES (?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  taken_at = excluded.taken_at,
  overall_score = excluded.overall_score,
  indicator_values = excluded.indicator_values;
`, snap.RunID, snap.TakenAt.UTC().Format(time.RFC3339Nano), snap.OverallScore, string(values))
	if err != nil {
		return apperrors.NewStorageError("save snapshot", err).WithContext("run_id", snap.RunID)
	}
	return nil
}

// History returns up to limit snapshots, newest first
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, taken_at, overall_score, indicator_values
FROM snapshots
ORDER BY taken_at DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, apperrors.NewStorageError("query snapshots", err)
	}
	defer rows.Close()

	var out []domain.Snapshot
	for rows.Next() {
		var (
			snap   domain.Snapshot
			taken  string
			values string
		)
		if err := rows.Scan(&snap.RunID, &taken, &snap.OverallScore, &values); err != nil {
			return nil, apperrors.NewStorageError("scan snapshot", err)
		}
		if snap.TakenAt, err = time.Parse(time.RFC3339Nano, taken); err != nil {
			return nil, apperrors.NewStorageError("parse snapshot time", err)
		}
		if err := json.Unmarshal([]byte(values), &snap.Values); err != nil {
			return nil, apperrors.NewStorageError("decode snapshot values", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewStorageError("iterate snapshots", err)
	}
	return out, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
