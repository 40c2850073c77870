package http

import (
	"context"

	"infrapulse/internal/operations"
	"infrapulse/internal/services"
	"infrapulse/pkg/contracts/domain"
)

// ReportService is the part of services.ReportService the handlers use
type ReportService interface {
	Run(ctx context.Context, req operations.RunRequest) (*domain.MarketHealthReport, operations.RunResponse, error)
	Start(req operations.RunRequest) (operations.RunRequest, error)
	Latest(ctx context.Context) (*domain.MarketHealthReport, error)
	Current() *operations.RunSnapshot
	History(ctx context.Context, limit int) ([]domain.Snapshot, error)
	Regions(ctx context.Context) []services.RegionView
	Region(ctx context.Context, code string) (services.RegionView, error)
}

// HealthChecker produces the health payload
type HealthChecker interface {
	Check(ctx context.Context) services.HealthStatus
}
