package sources

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "infrapulse/internal/errors"
	"infrapulse/pkg/contracts/domain"
)

type fakeProvider struct {
	name   string
	batch  Batch
	err    error
	delay  time.Duration
	calls  atomic.Int32
	active *atomic.Int32
	peak   *atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context, region string) (Batch, error) {
	f.calls.Add(1)
	if f.active != nil {
		n := f.active.Add(1)
		defer f.active.Add(-1)
		for {
			p := f.peak.Load()
			if n <= p || f.peak.CompareAndSwap(p, n) {
				break
			}
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Batch{}, apperrors.NewNetworkError("fetch "+f.name, ctx.Err())
		}
	}
	return f.batch, f.err
}

func rowsOf(n int) Batch {
	b := Batch{Bytes: n * 100}
	for i := 0; i < n; i++ {
		b.Rows = append(b.Rows, Row{Text: fmt.Sprintf("Bridge project %d $1,000,000", i)})
	}
	return b
}

func newTestResolver(timeout time.Duration, concurrency int) *Resolver {
	return NewResolver(ResolverConfig{Concurrency: concurrency, Timeout: timeout}, nil, nil)
}

// TestResolveFallsThroughTiers tests that the first successful tier wins
func TestResolveFallsThroughTiers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	network := &fakeProvider{name: "bids_table", err: apperrors.NewNetworkError("get", errors.New("connection refused"))}
	parse := &fakeProvider{name: "bids_rendered", err: apperrors.NewParsingError("no table", nil), batch: Batch{Bytes: 512}}
	empty := &fakeProvider{name: "letting_sheet", batch: Batch{Bytes: 64}}
	good := &fakeProvider{name: "press_links", batch: rowsOf(3)}
	unused := &fakeProvider{name: "static", batch: rowsOf(1)}

	r := newTestResolver(time.Second, 1)
	res := r.Resolve(context.Background(), Region{
		Code:      "VT",
		PortalURL: "https://vtrans.vermont.gov/about/construction-report",
		Providers: []Provider{network, parse, empty, good, unused},
	})

	assert.Equal(t, "press_links", res.Provider)
	assert.Len(t, res.Rows, 3)
	assert.Nil(t, res.Stub)
	require.Len(t, res.Attempts, 4)

	outcomes := make([]domain.AttemptOutcome, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		outcomes = append(outcomes, a.Outcome)
	}
	assert.Equal(t, []domain.AttemptOutcome{
		domain.OutcomeHTTPError, domain.OutcomeParseError, domain.OutcomeEmpty, domain.OutcomeSuccess,
	}, outcomes)
	assert.Equal(t, 512, res.Attempts[1].Bytes)
	assert.Contains(t, res.Attempts[0].Error, "connection refused")
	assert.Equal(t, 3, res.Attempts[3].Rows)
	assert.Equal(t, int32(0), unused.calls.Load())
}

// TestResolveAllProvidersFail tests the portal stub for an exhausted region
func TestResolveAllProvidersFail(t *testing.T) {
	r := newTestResolver(time.Second, 1)
	res := r.Resolve(context.Background(), Region{
		Code:      "NH",
		PortalURL: "https://www.dot.nh.gov/doing-business-nhdot/contractors/invitation-bid",
		Providers: []Provider{
			&fakeProvider{name: "a", err: apperrors.NewNetworkError("status 503", nil)},
			&fakeProvider{name: "b", err: apperrors.NewEmptyError("no rows")},
		},
	})

	require.NotNil(t, res.Stub)
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Provider)
	assert.Equal(t, domain.StatusVerify, res.Stub.Status)
	assert.Nil(t, res.Stub.CostLow)
	assert.Nil(t, res.Stub.CostHigh)
	assert.Equal(t, "NH", res.Stub.Region)
	assert.Equal(t, "https://www.dot.nh.gov/doing-business-nhdot/contractors/invitation-bid", res.Stub.URL)
	assert.NoError(t, res.Stub.Validate())

	diag := res.Diagnostics()
	assert.True(t, diag.Stubbed)
	assert.Len(t, diag.Attempts, 2)
	assert.Equal(t, domain.OutcomeEmpty, diag.Attempts[1].Outcome)
}

// TestResolveNoProviders tests a region configured without tiers
func TestResolveNoProviders(t *testing.T) {
	res := newTestResolver(time.Second, 1).Resolve(context.Background(), Region{Code: "RI", PortalURL: "https://www.dot.ri.gov/projects/"})
	require.NotNil(t, res.Stub)
	assert.NotNil(t, res.Diagnostics().Attempts)
}

// TestResolveProviderTimeout tests that a slow provider is cut off and skipped
func TestResolveProviderTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	slow := &fakeProvider{name: "slow", delay: 5 * time.Second, batch: rowsOf(5)}
	fast := &fakeProvider{name: "fast", batch: rowsOf(1)}

	start := time.Now()
	res := newTestResolver(30*time.Millisecond, 1).Resolve(context.Background(), Region{
		Code:      "ME",
		Providers: []Provider{slow, fast},
	})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "fast", res.Provider)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, domain.OutcomeHTTPError, res.Attempts[0].Outcome)
}

// TestResolveAllBoundedAndOrdered tests concurrency limits and result order
func TestResolveAllBoundedAndOrdered(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var active, peak atomic.Int32
	codes := []string{"VT", "NH", "ME", "NY", "PA", "MA", "RI", "CT"}
	regions := make([]Region, 0, len(codes))
	for i, code := range codes {
		p := &fakeProvider{name: "tier1", delay: 20 * time.Millisecond, batch: rowsOf(i + 1), active: &active, peak: &peak}
		regions = append(regions, Region{Code: code, Providers: []Provider{p}})
	}

	out, err := newTestResolver(time.Second, 3).ResolveAll(context.Background(), regions)
	require.NoError(t, err)
	require.Len(t, out, len(codes))
	for i, res := range out {
		assert.Equal(t, codes[i], res.Region)
		assert.Len(t, res.Rows, i+1)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.GreaterOrEqual(t, peak.Load(), int32(1))
}

// TestResolveAllIsolatesFailures tests that one failing region does not affect others
func TestResolveAllIsolatesFailures(t *testing.T) {
	regions := []Region{
		{Code: "NY", Providers: []Provider{&fakeProvider{name: "down", err: errors.New("boom")}}},
		{Code: "PA", Providers: []Provider{&fakeProvider{name: "up", batch: rowsOf(2)}}},
	}

	out, err := newTestResolver(time.Second, 2).ResolveAll(context.Background(), regions)
	require.NoError(t, err)
	assert.NotNil(t, out[0].Stub)
	assert.Equal(t, domain.OutcomeHTTPError, out[0].Attempts[0].Outcome)
	assert.Nil(t, out[1].Stub)
	assert.Len(t, out[1].Rows, 2)
}

// TestResolveAllCancelled tests that cancelling the run surfaces the context error
func TestResolveAllCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	regions := []Region{{Code: "CT", Providers: []Provider{&fakeProvider{name: "x", batch: rowsOf(1)}}}}
	out, err := newTestResolver(time.Second, 1).ResolveAll(ctx, regions)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, out, 1)
	assert.NotNil(t, out[0].Stub)
}

// TestClassifyAttempt tests the outcome mapping
func TestClassifyAttempt(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		rows     int
		expected domain.AttemptOutcome
	}{
		{"success", nil, 2, domain.OutcomeSuccess},
		{"zero rows", nil, 0, domain.OutcomeEmpty},
		{"network", apperrors.NewNetworkError("x", nil), 0, domain.OutcomeHTTPError},
		{"parsing wrapped", fmt.Errorf("wrap: %w", apperrors.NewParsingError("x", nil)), 0, domain.OutcomeParseError},
		{"empty", apperrors.NewEmptyError("x"), 0, domain.OutcomeEmpty},
		{"plain error", errors.New("x"), 3, domain.OutcomeHTTPError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyAttempt(tt.err, tt.rows))
		})
	}
}
