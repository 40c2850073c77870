package infrastructure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"infrapulse/internal/config"
)

func newTestMetrics(t *testing.T) (*PipelineMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewPipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m.Data
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return nil
}

// TestPipelineMetrics tests the attempt, resolution and run instruments
func TestPipelineMetrics(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	RecordProviderAttempt(ctx, m, "VT", "vtrans-bids-table", "http-error")
	RecordProviderAttempt(ctx, m, "VT", "vtrans-bids-links", "success")
	RecordRegionResolution(ctx, m, "VT", "vtrans-bids-links")
	RecordRecordCounts(ctx, m, 3, 2)
	RecordStep(ctx, m, "resolve", 250*time.Millisecond, true)
	RecordRun(ctx, m, 2*time.Second, true, 6.4)

	attempts, ok := collectMetric(t, reader, "provider_attempts_total").(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, attempts.DataPoints, 2)

	dups, ok := collectMetric(t, reader, "duplicates_removed_total").(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, dups.DataPoints, 1)
	assert.Equal(t, int64(2), dups.DataPoints[0].Value)

	score, ok := collectMetric(t, reader, "market_health_overall_score").(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, score.DataPoints, 1)
	assert.Equal(t, 6.4, score.DataPoints[0].Value)
}

// TestRecordHelpersNilSafe tests that disabled metrics are a no-op
func TestRecordHelpersNilSafe(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordProviderAttempt(ctx, nil, "VT", "p", "empty")
		RecordRegionResolution(ctx, nil, "VT", "p")
		RecordRecordCounts(ctx, nil, 1, 1)
		RecordStep(ctx, nil, "score", time.Second, false)
		RecordRun(ctx, nil, time.Second, false, 0)
		RecordHTTPRequest(ctx, nil, http.MethodGet, "/api/health", 200, time.Millisecond)
		RecordWSClient(ctx, nil, 1)
		RecordWSMessages(ctx, nil, "run:status", 2)
		RecordError(ctx, assert.AnError)
	})
}

// TestInitializeOTelDisabled tests the no-op fallbacks
func TestInitializeOTelDisabled(t *testing.T) {
	cfg := OTelConfigFrom(config.ObservabilityConfig{Environment: "test", TraceExporter: "none", MetricExporter: "none"})
	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)

	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.Meter)
	require.NotNil(t, providers.Tracer)

	m, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)
	RecordRun(context.Background(), m, time.Second, true, 5)
	assert.NoError(t, providers.Shutdown(context.Background()))

	_, err = InitializeOTel(&OTelConfig{EnableTracing: true, TraceExporter: "otlp"}, nil)
	assert.Error(t, err)
}

// TestPrometheusEndpoint tests that pipeline metrics reach /metrics
func TestPrometheusEndpoint(t *testing.T) {
	cfg := OTelConfigFrom(config.Default().Observability)
	providers, err := InitializeOTel(cfg, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	require.NotNil(t, providers.PrometheusHTTP)

	m, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)
	RecordRun(context.Background(), m, time.Second, true, 7.1)

	srv := httptest.NewServer(providers.PrometheusHTTP)
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "aggregation_runs")
	assert.Contains(t, string(body), "market_health_overall_score")
}

// TestSpanHelpers tests span creation and trace id extraction
func TestSpanHelpers(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test-span")
	defer span.End()
	// the global provider is a no-op until tracing is enabled
	assert.Empty(t, TraceIDFromContext(ctx))
	RecordError(ctx, assert.AnError)
}

// TestRuntimeMonitor tests sampling with and without a meter
func TestRuntimeMonitor(t *testing.T) {
	bare, err := NewRuntimeMonitor(nil)
	require.NoError(t, err)
	stats := bare.Sample(context.Background())
	assert.Positive(t, stats.Goroutines)
	assert.Positive(t, stats.CPUCount)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())
	mon, err := NewRuntimeMonitor(mp.Meter("test"))
	require.NoError(t, err)
	mon.Sample(context.Background())

	_, ok := collectMetric(t, reader, "process_goroutines").(metricdata.Gauge[int64])
	assert.True(t, ok)
}
