package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/operations"
)

// RunsHandler triggers aggregation runs and reports their status
type RunsHandler struct {
	service ReportService
	errors  *apperrors.ErrorHandler
	logger  *slog.Logger
}

// NewRunsHandler creates a runs handler
func NewRunsHandler(service ReportService, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *RunsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunsHandler{
		service: service,
		errors:  errorHandler,
		logger:  logger.With(slog.String("handler", "runs")),
	}
}

// Routes mounts under /api/v1/runs
func (h *RunsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/current", h.Current)
	return r
}

// Create handles POST /. The body is optional. Without ?wait=true the run
// starts in the background and 202 is returned with its id.
func (h *RunsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req operations.RunRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errors.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	if err := req.Validate(); err != nil {
		h.errors.HandleError(w, r, apiError(operations.NewValidationError("", "invalid run request", err)))
		return
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		started, err := h.service.Start(req)
		if err != nil {
			h.errors.HandleError(w, r, err)
			return
		}
		h.logger.InfoContext(r.Context(), "run started", slog.String("run_id", started.ID))
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, map[string]string{"id": started.ID, "status": string(operations.RunStatusRunning)})
		return
	}

	// the engine bounds the run; lift the server write deadline for it
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	report, resp, err := h.service.Run(r.Context(), req)
	if err != nil {
		if report != nil {
			// the report was produced but not persisted
			h.logger.ErrorContext(r.Context(), "run result not persisted", slog.String("error", err.Error()))
		}
		h.errors.HandleError(w, r, apiError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{"run": resp, "report": report})
}

// Current handles GET /current
func (h *RunsHandler) Current(w http.ResponseWriter, r *http.Request) {
	current := h.service.Current()
	if current == nil {
		h.errors.HandleError(w, r, apperrors.NotFoundError("run"))
		return
	}
	render.JSON(w, r, current)
}
