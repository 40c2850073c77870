package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infrapulse/internal/config"
	"infrapulse/internal/operations/testutil"
	"infrapulse/pkg/contracts/domain"
)

var testNow = time.Now().UTC().Truncate(time.Second)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Observability.EnableMetrics = false
	cfg.Security.RateLimit.Enabled = false
	cfg.Sources.HostInterval = 0

	let := testNow.AddDate(0, 0, 45).Format("01/02/2006")
	cfg.Regions = []config.RegionConfig{
		{
			Code: "NY", Name: "New York", Apportionment: 0.6,
			PortalURL: "https://www.dot.ny.gov/doing-business/opportunities/const-notices",
			Providers: []config.ProviderConfig{{
				Name: "nysdot-notices", Kind: "static",
				Rows: []config.StaticRow{{Fields: map[string]string{
					"Description":         "Bridge deck replacement, Albany County",
					"Engineer's Estimate": "$5,000,000",
					"Letting Date":        let,
				}}},
			}},
		},
		{
			Code: "PA", Name: "Pennsylvania", Apportionment: 0.4,
			PortalURL: "https://www.penndot.pa.gov/business/Letting",
		},
	}
	return cfg
}

func newTestApp(t *testing.T) *Application {
	t.Helper()
	a, err := New(context.Background(), testConfig(t), nil, Options{
		Collector: &testutil.StubCollector{Inputs: testutil.FallbackInputs()},
		Now:       func() time.Time { return testNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func get(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

// TestApplicationRunAndServe tests a synchronous run followed by reads
func TestApplicationRunAndServe(t *testing.T) {
	a := newTestApp(t)

	rec := get(t, a.Router, http.MethodGet, "/api/v1/report/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, a.Router, http.MethodPost, "/api/v1/runs?wait=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = get(t, a.Router, http.MethodGet, "/api/v1/report/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.MarketHealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Projects, 2, "one priced record plus the PA portal stub")
	assert.InDelta(t, 0.6, report.Coverage.CapturedRatio, 1e-9)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	_, err := os.Stat(a.Paths.LatestJSON)
	assert.NoError(t, err)

	rec = get(t, a.Router, http.MethodGet, "/api/v1/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), report.RunID)

	rec = get(t, a.Router, http.MethodGet, "/api/v1/regions/pa")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"PA"`)

	rec = get(t, a.Router, http.MethodGet, "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
}

// TestApplicationRoutes tests routing edges
func TestApplicationRoutes(t *testing.T) {
	a := newTestApp(t)

	rec := get(t, a.Router, http.MethodGet, "/api/v1/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/"))

	rec = get(t, a.Router, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code, "metrics are disabled")

	rec = get(t, a.Router, http.MethodGet, "/api/version")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

// TestNewRejectsBadConfig tests that construction errors release resources
func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Regions[0].Providers[0].Kind = "carrier-pigeon"
	_, err := New(context.Background(), cfg, nil, Options{Collector: &testutil.StubCollector{}})
	require.Error(t, err)

	_, err = New(context.Background(), nil, nil, Options{})
	assert.Error(t, err)
}

// TestServeStopsOnCancel tests graceful shutdown
func TestServeStopsOnCancel(t *testing.T) {
	a := newTestApp(t)
	a.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
