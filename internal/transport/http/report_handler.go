package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/exporter"
)

const maxHistory = 500

// ReportHandler serves the latest report, its exports and run history
type ReportHandler struct {
	service ReportService
	errors  *apperrors.ErrorHandler
	logger  *slog.Logger
}

// NewReportHandler creates a report handler
func NewReportHandler(service ReportService, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		service: service,
		errors:  errorHandler,
		logger:  logger.With(slog.String("handler", "report")),
	}
}

// Routes mounts under /api/v1/report
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/latest", h.Latest)
	r.Get("/latest/projects.csv", h.ProjectsCSV)
	r.Get("/latest/workbook.xlsx", h.Workbook)
	return r
}

// Latest handles GET /latest
func (h *ReportHandler) Latest(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Latest(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// ProjectsCSV handles GET /latest/projects.csv
func (h *ReportHandler) ProjectsCSV(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Latest(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment("projects", report.ReferenceTime.Format("2006-01-02"), "csv"))
	if err := exporter.WriteProjectsCSV(w, report.Projects); err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed", slog.String("error", err.Error()))
	}
}

// Workbook handles GET /latest/workbook.xlsx
func (h *ReportHandler) Workbook(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Latest(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	f, err := exporter.Workbook(report)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment("market_health", report.ReferenceTime.Format("2006-01-02"), "xlsx"))
	if _, err := f.WriteTo(w); err != nil {
		h.logger.ErrorContext(r.Context(), "workbook export failed", slog.String("error", err.Error()))
	}
}

// History handles GET /api/v1/history?limit=N
func (h *ReportHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 30
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistory {
			h.errors.HandleError(w, r, apperrors.NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST",
				fmt.Sprintf("limit must be between 1 and %d", maxHistory), v))
			return
		}
		limit = n
	}
	history, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"snapshots": history,
		"count":     len(history),
	})
}

func attachment(name, date, ext string) string {
	return fmt.Sprintf(`attachment; filename="%s_%s.%s"`, name, date, ext)
}
