package operations

import (
	"log/slog"
	"sync"
	"time"
)

// WebSocketHub receives run lifecycle updates
type WebSocketHub interface {
	BroadcastUpdate(eventType, step, status string, metadata interface{})
}

// RunSnapshot is the complete state of a run at a point in time.
// It is the only structure sent to clients.
type RunSnapshot struct {
	RunID        string     `json:"run_id"`
	Status       RunStatus  `json:"status"`
	Progress     int        `json:"progress"`
	CurrentStep  string     `json:"current_step,omitempty"`
	Steps        []StepView `json:"steps"`
	StartedAt    time.Time  `json:"started_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Error        string     `json:"error,omitempty"`
	OverallScore *float64   `json:"overall_score,omitempty"`
}

// StatusBroadcaster is the single authority for run status. It keeps the
// latest snapshot for polling clients and pushes every change to the hub.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	current *RunSnapshot
	hub     WebSocketHub
	logger  *slog.Logger
}

// NewStatusBroadcaster creates a broadcaster; hub may be nil
func NewStatusBroadcaster(hub WebSocketHub, logger *slog.Logger) *StatusBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusBroadcaster{hub: hub, logger: logger.With(slog.String("component", "status"))}
}

// Current returns a copy of the latest snapshot, or nil before the first run
func (sb *StatusBroadcaster) Current() *RunSnapshot {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	if sb.current == nil {
		return nil
	}
	cp := *sb.current
	cp.Steps = append([]StepView(nil), sb.current.Steps...)
	return &cp
}

// Publish snapshots the run and broadcasts it under eventType
func (sb *StatusBroadcaster) Publish(eventType string, run *RunState, currentStep string) {
	snap := snapshotOf(run, currentStep)
	if run.Status == RunStatusCompleted {
		score := run.Health.OverallScore
		snap.OverallScore = &score
	}

	sb.mu.Lock()
	sb.current = snap
	sb.mu.Unlock()

	if sb.hub == nil {
		return
	}
	sb.logger.Debug("broadcasting run snapshot",
		slog.String("run_id", snap.RunID),
		slog.String("status", string(snap.Status)),
		slog.Int("progress", snap.Progress),
		slog.String("current_step", snap.CurrentStep))
	sb.hub.BroadcastUpdate(eventType, currentStep, string(snap.Status), snap)
}

func snapshotOf(run *RunState, currentStep string) *RunSnapshot {
	resp := run.Response()
	snap := &RunSnapshot{
		RunID:       resp.ID,
		Status:      resp.Status,
		CurrentStep: currentStep,
		Steps:       resp.Steps,
		StartedAt:   run.StartTime,
		UpdatedAt:   time.Now(),
		Error:       resp.Error,
	}
	done := 0
	for _, s := range resp.Steps {
		if s.Status == StepStatusCompleted || s.Status == StepStatusSkipped {
			done++
		}
	}
	if len(resp.Steps) > 0 {
		snap.Progress = done * 100 / len(resp.Steps)
	}
	run.mu.RLock()
	if run.EndTime != nil {
		end := *run.EndTime
		snap.CompletedAt = &end
	}
	run.mu.RUnlock()
	return snap
}
