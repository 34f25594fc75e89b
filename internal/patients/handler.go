package patients

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/rbac"
	"github.com/medika/medika/internal/shared"
)

// Handler manages patient endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	rbac     rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: httpx.NewValidator(), rbac: rbac}
}

// MountRoutes registers patient routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(authz.CapManagePatients))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	patients, paging, err := h.service.List(r.Context(), ListFilters{Search: r.URL.Query().Get("q")}, shared.PageFromRequest(r))
	if err != nil {
		h.fail(w, "list patients", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": patients, "pagination": paging})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	patient, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "show patient", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": patient})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	patient, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create patient", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": patient})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateRequest
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	patient, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update patient", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": patient})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete patient", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Debug(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
