package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Default file locations, relative to the base directory
const (
	DefaultDataDir      = "data"
	DefaultReportsDir   = "data/reports"
	DefaultLogsDir      = "logs"
	DefaultSnapshotFile = "data/market_health_snapshot.json"
	DefaultHistoryDB    = "data/market_health.db"
	DefaultLockFile     = "data/infrapulse.lock"
	DefaultLatestReport = "data/reports/market_health_latest.json"
)

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	// BaseDir anchors every relative path; empty means the working directory
	BaseDir     string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir  string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	Snapshot    string `yaml:"snapshot" envconfig:"SNAPSHOT"`
	HistoryDB   string `yaml:"history_db" envconfig:"HISTORY_DB"`
	LockFile    string `yaml:"lock_file" envconfig:"LOCK_FILE"`
	LatestJSON  string `yaml:"latest_json" envconfig:"LATEST_JSON"`
	SnapshotFmt string `yaml:"snapshot_format" envconfig:"SNAPSHOT_FORMAT" validate:"oneof=json sqlite"`
}

// Paths contains the resolved, absolute application paths
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	LogsDir    string
	Snapshot   string
	HistoryDB  string
	LockFile   string
	LatestJSON string
	// SnapshotFmt is json or sqlite
	SnapshotFmt string
}

// Resolve turns the configured paths into absolute ones
func (p PathsConfig) Resolve() (*Paths, error) {
	base := p.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base dir: %w", err)
	}

	abs := func(path, fallback string) string {
		if path == "" {
			path = fallback
		}
		if filepath.IsAbs(path) {
			return filepath.Clean(path)
		}
		return filepath.Join(base, path)
	}

	return &Paths{
		BaseDir:     base,
		DataDir:     abs(p.DataDir, DefaultDataDir),
		ReportsDir:  abs(p.ReportsDir, DefaultReportsDir),
		LogsDir:     abs(p.LogsDir, DefaultLogsDir),
		Snapshot:    abs(p.Snapshot, DefaultSnapshotFile),
		HistoryDB:   abs(p.HistoryDB, DefaultHistoryDB),
		LockFile:    abs(p.LockFile, DefaultLockFile),
		LatestJSON:  abs(p.LatestJSON, DefaultLatestReport),
		SnapshotFmt: p.SnapshotFmt,
	}, nil
}

// EnsureDirectories creates every directory the application writes into
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.ReportsDir,
		p.LogsDir,
		filepath.Dir(p.Snapshot),
		filepath.Dir(p.HistoryDB),
		filepath.Dir(p.LockFile),
		filepath.Dir(p.LatestJSON),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("paths resolved",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("reports_dir", p.ReportsDir),
		slog.String("snapshot", p.Snapshot),
		slog.String("history_db", p.HistoryDB),
		slog.String("lock_file", p.LockFile))
}
