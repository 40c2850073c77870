package operations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrapulse/pkg/contracts/domain"
)

type noopStep struct{ BaseStep }

func (noopStep) Execute(context.Context, *RunState) error { return nil }

// TestStepStateTransitions tests the step lifecycle
func TestStepStateTransitions(t *testing.T) {
	st := NewStepState(StepIDDedup, StepNameDedup)
	assert.Equal(t, StepStatusPending, st.Status)
	assert.Zero(t, st.Duration())

	st.Start()
	assert.Equal(t, StepStatusActive, st.Status)
	st.SetMetadata("removed", 2)
	st.Fail(errors.New("boom"))

	v := st.View()
	assert.Equal(t, StepStatusFailed, v.Status)
	assert.Equal(t, "boom", v.Error)
	assert.Equal(t, 2, v.Metadata["removed"])
	assert.GreaterOrEqual(t, v.DurationMS, int64(0))

	skipped := NewStepState(StepIDScore, StepNameScore)
	skipped.Skip("previous step failed")
	assert.Equal(t, "previous step failed", skipped.View().Message)
}

// TestRegistry tests ordering and duplicate detection
func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(noopStep{NewBaseStep("a", "A")}))
	require.NoError(t, r.Register(noopStep{NewBaseStep("b", "B")}))

	assert.Error(t, r.Register(noopStep{NewBaseStep("a", "again")}))
	assert.Error(t, r.Register(noopStep{NewBaseStep("", "")}))
	assert.Error(t, r.Register(nil))

	assert.Equal(t, []string{"a", "b"}, r.ListIDs())
	assert.Equal(t, 2, r.Count())

	_, err := r.Get("missing")
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(err))
}

// TestRegionTotals tests which records count as captured data
func TestRegionTotals(t *testing.T) {
	cost := func(v float64) *float64 { return &v }
	records := []domain.ProjectRecord{
		{Region: "NY", CostLow: cost(1_000_000), CostHigh: cost(3_000_000), Status: domain.StatusConfirmed},
		{Region: "NY", CostHigh: cost(500_000), Status: domain.StatusConfirmed},
		{Region: "MA", Status: domain.StatusConfirmed},
		{Region: "VT", Status: domain.StatusVerify},
	}

	totals := RegionTotals(records)
	require.Len(t, totals, 2)
	assert.Equal(t, "NY", totals[0].Region)
	assert.True(t, totals[0].HasData)
	assert.Equal(t, 2_500_000.0, totals[0].Total)
	assert.Equal(t, 2, totals[0].Records)

	assert.Equal(t, "MA", totals[1].Region)
	assert.False(t, totals[1].HasData)
	assert.Equal(t, 1, totals[1].Records)
}

// TestOperationErrors tests error classification
func TestOperationErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		errType   ErrorType
		cancelled bool
	}{
		{"execution", NewExecutionError(StepIDScore, errors.New("x")), ErrorTypeExecution, false},
		{"validation", NewValidationError("", "bad", nil), ErrorTypeValidation, false},
		{"cancellation", NewCancellationError(StepIDResolve, context.Canceled), ErrorTypeCancellation, true},
		{"deadline", context.DeadlineExceeded, ErrorTypeExecution, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, GetErrorType(tt.err))
			assert.Equal(t, tt.cancelled, IsCancellation(tt.err))
		})
	}

	err := NewExecutionError(StepIDScore, errors.New("no scores"))
	assert.Equal(t, "[execution] score: step execution failed: no scores", err.Error())
}
