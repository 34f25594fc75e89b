package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/rbac"
)

// Handler serves dashboards.
type Handler struct {
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{service: service, rbac: rbac}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireCapability(authz.CapViewAdminDashboard)).Get("/admin", h.admin)
	r.With(h.rbac.RequireCapability(authz.CapViewDoctorDashboard)).Get("/doctor", h.doctor)
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Admin(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

func (h *Handler) doctor(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Doctor(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": summary})
}
