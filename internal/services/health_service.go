package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"infrapulse/internal/infrastructure"
	"infrapulse/internal/operations"
	"infrapulse/pkg/contracts"
)

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthStatus is the health endpoint payload
type HealthStatus struct {
	Status    string                      `json:"status"`
	Timestamp time.Time                   `json:"timestamp"`
	Version   contracts.VersionInfo       `json:"version"`
	Runtime   infrastructure.RuntimeStats `json:"runtime"`
	Services  map[string]ServiceHealth    `json:"services"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthService provides health check functionality
type HealthService struct {
	reports *ReportService
	monitor *infrastructure.RuntimeMonitor
	hub     ClientCounter
	// staleAfter marks the report degraded once it is older
	staleAfter time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewHealthService creates a health service; hub may be nil
func NewHealthService(reports *ReportService, monitor *infrastructure.RuntimeMonitor, hub ClientCounter, staleAfter time.Duration, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if monitor == nil {
		monitor, _ = infrastructure.NewRuntimeMonitor(nil)
	}
	return &HealthService{
		reports:    reports,
		monitor:    monitor,
		hub:        hub,
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "health_service")),
	}
}

// Check assembles the health status. The process is "healthy" when the
// latest report is fresh, "degraded" when it is missing, stale or the last
// run failed.
func (h *HealthService) Check(ctx context.Context) HealthStatus {
	now := h.now()
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: now.UTC(),
		Version:   contracts.GetVersionInfo(),
		Runtime:   h.monitor.Sample(ctx),
		Services:  make(map[string]ServiceHealth),
	}

	report := ServiceHealth{Status: "ok"}
	if _, err := h.reports.Latest(ctx); err != nil {
		report = ServiceHealth{Status: "missing", Message: err.Error()}
	} else if age, ok := h.reports.LastRunAge(now); ok && h.staleAfter > 0 && age > h.staleAfter {
		report = ServiceHealth{Status: "stale", Message: "last report is " + age.Round(time.Minute).String() + " old"}
	}
	status.Services["report"] = report

	run := ServiceHealth{Status: "idle"}
	if current := h.reports.Current(); current != nil {
		run.Status = string(current.Status)
		run.Message = current.Error
	}
	status.Services["run"] = run

	if h.hub != nil {
		status.Services["websocket"] = ServiceHealth{Status: "ok", Message: clientsMessage(h.hub.ClientCount())}
	}

	if report.Status != "ok" || run.Status == string(operations.RunStatusFailed) {
		status.Status = "degraded"
	}
	return status
}

func clientsMessage(n int) string {
	if n == 1 {
		return "1 client connected"
	}
	return strconv.Itoa(n) + " clients connected"
}
