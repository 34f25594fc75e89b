package activity

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/rbac"
	"github.com/medika/medika/internal/shared"
)

// Handler serves the activity log.
type Handler struct {
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{service: service, rbac: rbac}
}

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireCapability(authz.CapViewAdminDashboard)).Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filters{Entity: q.Get("entity"), Action: q.Get("action")}
	if raw := q.Get("actor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		f.ActorID = &id
	}
	if raw := q.Get("date"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		f.From, f.To = day, day.AddDate(0, 0, 1)
	}
	entries, paging, err := h.service.List(r.Context(), f, shared.PageFromRequest(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": entries, "pagination": paging})
}
