package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "infrapulse/internal/errors"
)

// RegionsHandler serves per-region resolution diagnostics
type RegionsHandler struct {
	service ReportService
	errors  *apperrors.ErrorHandler
}

// NewRegionsHandler creates a regions handler
func NewRegionsHandler(service ReportService, errorHandler *apperrors.ErrorHandler) *RegionsHandler {
	return &RegionsHandler{service: service, errors: errorHandler}
}

// Routes mounts under /api/v1/regions
func (h *RegionsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{code}", h.Get)
	return r
}

// List handles GET /
func (h *RegionsHandler) List(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Regions(r.Context()))
}

// Get handles GET /{code}
func (h *RegionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	view, err := h.service.Region(r.Context(), code)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}
