package appointments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/rbac"
	"github.com/medika/medika/internal/shared"
)

// Handler manages appointment endpoints.
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

// MountRoutes registers appointment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireCapability(authz.CapManageAppointments))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := filtersFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, paging, err := h.service.List(r.Context(), f, shared.PageFromRequest(r))
	if err != nil {
		h.fail(w, "list appointments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": items, "pagination": paging})
}

func filtersFromQuery(r *http.Request) (ListFilters, error) {
	q := r.URL.Query()
	f := ListFilters{Status: Status(q.Get("status"))}
	for key, dst := range map[string]**int64{"doctor_id": &f.DoctorID, "patient_id": &f.PatientID} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return ListFilters{}, httpx.ErrValidation
		}
		*dst = &id
	}
	if raw := q.Get("date"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return ListFilters{}, httpx.ErrValidation
		}
		f.Date = day
	}
	return f, nil
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "show appointment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": a})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.Bind(r, h.validate, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create appointment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": a})
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
	a, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, "update appointment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": a})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete appointment", err)
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
