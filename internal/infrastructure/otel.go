package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"infrapulse/internal/config"
)

const (
	ServiceName = "infrapulse"
	MeterName   = "infrapulse"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// OTelConfigFrom maps the observability section of the configuration
func OTelConfigFrom(cfg config.ObservabilityConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: config.AppVersion,
		Environment:    cfg.Environment,
		TraceExporter:  cfg.TraceExporter,
		MetricExporter: cfg.MetricExporter,
		EnableMetrics:  cfg.EnableMetrics,
		EnableTracing:  cfg.EnableTracing,
		SampleRatio:    cfg.SampleRatio,
	}
}

// InitializeOTel sets up the global tracer and meter providers. Disabled
// signals fall back to the otel no-op implementations, so callers can use
// providers.Meter and providers.Tracer unconditionally.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = OTelConfigFrom(config.Default().Observability)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "otel"))
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{Logger: logger}

	if cfg.EnableTracing {
		if err := initializeTracing(cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}
	if cfg.EnableMetrics {
		if err := initializeMetrics(cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	if providers.Tracer == nil {
		providers.Tracer = otel.Tracer(MeterName)
	}
	if providers.Meter == nil {
		providers.Meter = otel.Meter(MeterName)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))
	return providers, nil
}

func initializeTracing(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.TraceExporter {
	case "none", "":
		return nil
	case "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)
	return nil
}

func initializeMetrics(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "none", "":
		return nil
	case "prometheus":
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	providers.PrometheusHTTP = promhttp.Handler()
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)
	return nil
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PipelineMetrics holds the aggregation and HTTP instruments
type PipelineMetrics struct {
	RunsTotal           metric.Int64Counter
	RunDuration         metric.Float64Histogram
	StepDuration        metric.Float64Histogram
	ProviderAttempts    metric.Int64Counter
	RegionResolutions   metric.Int64Counter
	RecordsDropped      metric.Int64Counter
	DuplicatesRemoved   metric.Int64Counter
	OverallScore        metric.Float64Gauge
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	WSClients           metric.Int64UpDownCounter
	WSMessagesSent      metric.Int64Counter
}

// NewPipelineMetrics creates the instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
		all []error
	)
	collect := func(e error) {
		if e != nil {
			all = append(all, e)
		}
	}

	m.RunsTotal, err = meter.Int64Counter("aggregation_runs_total",
		metric.WithDescription("Aggregation runs by final status"))
	collect(err)
	m.RunDuration, err = meter.Float64Histogram("aggregation_run_duration_seconds",
		metric.WithDescription("Aggregation run duration in seconds"), metric.WithUnit("s"))
	collect(err)
	m.StepDuration, err = meter.Float64Histogram("aggregation_step_duration_seconds",
		metric.WithDescription("Aggregation step duration in seconds"), metric.WithUnit("s"))
	collect(err)
	m.ProviderAttempts, err = meter.Int64Counter("provider_attempts_total",
		metric.WithDescription("Region provider attempts by outcome"))
	collect(err)
	m.RegionResolutions, err = meter.Int64Counter("region_resolutions_total",
		metric.WithDescription("Region resolutions by winning provider"))
	collect(err)
	m.RecordsDropped, err = meter.Int64Counter("records_dropped_total",
		metric.WithDescription("Raw rows dropped during normalization"))
	collect(err)
	m.DuplicatesRemoved, err = meter.Int64Counter("duplicates_removed_total",
		metric.WithDescription("Project records removed as duplicates"))
	collect(err)
	m.OverallScore, err = meter.Float64Gauge("market_health_overall_score",
		metric.WithDescription("Overall market health score of the latest run"))
	collect(err)
	m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"))
	collect(err)
	m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"), metric.WithUnit("s"))
	collect(err)
	m.WSClients, err = meter.Int64UpDownCounter("websocket_clients",
		metric.WithDescription("Connected websocket clients"))
	collect(err)
	m.WSMessagesSent, err = meter.Int64Counter("websocket_messages_sent_total",
		metric.WithDescription("Messages delivered to websocket clients"))
	collect(err)

	if len(all) > 0 {
		return nil, errors.Join(all...)
	}
	return &m, nil
}

// RecordProviderAttempt counts one provider attempt of a region
func RecordProviderAttempt(ctx context.Context, m *PipelineMetrics, region, provider, outcome string) {
	if m == nil {
		return
	}
	m.ProviderAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("region", region),
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

// RecordRegionResolution counts the provider that resolved a region
func RecordRegionResolution(ctx context.Context, m *PipelineMetrics, region, provider string) {
	if m == nil {
		return
	}
	m.RegionResolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("region", region),
		attribute.String("provider", provider),
	))
}

// RecordStep records the duration of one aggregation step
func RecordStep(ctx context.Context, m *PipelineMetrics, step string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("status", statusLabel(success)),
	))
}

// RecordRecordCounts records rows dropped by normalization and records
// removed by deduplication
func RecordRecordCounts(ctx context.Context, m *PipelineMetrics, dropped, duplicates int) {
	if m == nil {
		return
	}
	m.RecordsDropped.Add(ctx, int64(dropped))
	m.DuplicatesRemoved.Add(ctx, int64(duplicates))
}

// RecordRun records a finished run; score is only recorded on success
func RecordRun(ctx context.Context, m *PipelineMetrics, duration time.Duration, success bool, score float64) {
	if m == nil {
		return
	}
	status := attribute.String("status", statusLabel(success))
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(status))
	m.RunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(status))
	if success {
		m.OverallScore.Record(ctx, score)
	}
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(ctx context.Context, m *PipelineMetrics, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordWSClient tracks a websocket client connecting (+1) or leaving (-1)
func RecordWSClient(ctx context.Context, m *PipelineMetrics, delta int64) {
	if m == nil {
		return
	}
	m.WSClients.Add(ctx, delta)
}

// RecordWSMessages counts messages handed to websocket clients
func RecordWSMessages(ctx context.Context, m *PipelineMetrics, eventType string, delivered int) {
	if m == nil || delivered == 0 {
		return
	}
	m.WSMessagesSent.Add(ctx, int64(delivered), metric.WithAttributes(attribute.String("type", eventType)))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// StartSpan starts a span on the global tracer
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(MeterName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceIDFromContext extracts the OpenTelemetry trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}
