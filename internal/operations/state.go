package operations

import (
	"sync"
	"time"

	"infrapulse/internal/dedup"
	"infrapulse/internal/indicators"
	"infrapulse/internal/sources"
	"infrapulse/internal/timeweight"
	"infrapulse/pkg/contracts/domain"
)

// RunStatus represents the overall run status
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunState carries one run's intermediate results from step to step.
// Steps execute sequentially, so the data fields are written by exactly one
// step and read by later ones; the mutex guards only the status fields read
// by observers while the run is in flight.
type RunState struct {
	mu sync.RWMutex

	ID        string
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	steps map[string]*StepState
	order []string

	// Reference anchors time weighting
	Reference time.Time
	// Previous is the last completed run, nil on the first run
	Previous *domain.Snapshot
	// Regions are the regions this run resolves
	Regions []sources.Region

	Resolutions []sources.Resolution
	Records     []domain.ProjectRecord
	RowsDropped int
	Dedup       dedup.Result
	Coverage    domain.CoverageSummary
	Weighting   timeweight.Aggregate
	Inputs      indicators.Inputs
	Pipeline    domain.PipelineSummary
	Scores      map[domain.IndicatorName]domain.IndicatorScore
	Health      domain.CompositeHealth
}

// NewRunState creates a pending run with one pending state per step
func NewRunState(id string, reference time.Time, previous *domain.Snapshot, steps []Step) *RunState {
	r := &RunState{
		ID:        id,
		Status:    RunStatusPending,
		StartTime: time.Now(),
		steps:     make(map[string]*StepState, len(steps)),
		order:     make([]string, 0, len(steps)),
		Reference: reference,
		Previous:  previous,
	}
	for _, s := range steps {
		r.steps[s.ID()] = NewStepState(s.ID(), s.Name())
		r.order = append(r.order, s.ID())
	}
	return r
}

// Start marks the run as running
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = RunStatusRunning
	r.StartTime = time.Now()
}

// Complete marks the run as completed
func (r *RunState) Complete() {
	r.finish(RunStatusCompleted, nil)
}

// Fail marks the run as failed
func (r *RunState) Fail(err error) {
	r.finish(RunStatusFailed, err)
}

// Cancel marks the run as cancelled
func (r *RunState) Cancel(err error) {
	r.finish(RunStatusCancelled, err)
}

func (r *RunState) finish(status RunStatus, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = status
	r.Error = err
}

// Step returns the state of a specific step
func (r *RunState) Step(id string) *StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.steps[id]
}

// Duration returns the duration of the run
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// StepViews returns the step states in execution order
func (r *RunState) StepViews() []StepView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	views := make([]StepView, 0, len(r.order))
	for _, id := range r.order {
		views = append(views, r.steps[id].View())
	}
	return views
}

// Response summarizes the run
func (r *RunState) Response() RunResponse {
	resp := RunResponse{
		ID:       r.ID,
		Duration: r.Duration(),
		Steps:    r.StepViews(),
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	resp.Status = r.Status
	if r.Error != nil {
		resp.Error = r.Error.Error()
	}
	return resp
}
