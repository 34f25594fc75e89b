package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/appointments"
	"github.com/medika/medika/internal/auth"
	"github.com/medika/medika/internal/catalog"
	"github.com/medika/medika/internal/dashboard"
	"github.com/medika/medika/internal/invoices"
	"github.com/medika/medika/internal/observability"
	"github.com/medika/medika/internal/patients"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/rbac"
	"github.com/medika/medika/internal/records"
	"github.com/medika/medika/internal/settings"
	"github.com/medika/medika/internal/shared"
	"github.com/medika/medika/internal/templates"
	"github.com/medika/medika/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics

	AuthHandler         *auth.Handler
	PermissionsHandler  *rbac.PermissionsHandler
	DashboardHandler    *dashboard.Handler
	PatientsHandler     *patients.Handler
	RecordsHandler      *records.Handler
	AppointmentsHandler *appointments.Handler
	InvoicesHandler     *invoices.Handler
	TemplatesHandler    *templates.Handler
	CatalogHandler      *catalog.Handler
	SettingsHandler     *settings.Handler
	UsersHandler        *users.Handler
	ActivityHandler     *activity.Handler
}

// NewRouter constructs the chi.Router with Medika defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)
		r.Use(params.RBACMiddleware.Authenticate)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "")
		})

		mount(r, "/auth", params.AuthHandler)
		mount(r, "/authz", params.PermissionsHandler)
		mount(r, "/dashboard", params.DashboardHandler)
		if params.PatientsHandler != nil {
			r.Route("/patients", func(r chi.Router) {
				params.PatientsHandler.MountRoutes(r)
				if params.RecordsHandler != nil {
					params.RecordsHandler.MountRoutes(r)
				}
			})
		}
		mount(r, "/appointments", params.AppointmentsHandler)
		mount(r, "/invoices", params.InvoicesHandler)
		mount(r, "/medical-record-templates", params.TemplatesHandler)
		mount(r, "/services", params.CatalogHandler)
		if params.SettingsHandler != nil {
			r.Route("/settings", func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequirePrincipal)
				params.SettingsHandler.MountRoutes(r)
			})
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/doctors", params.UsersHandler.MountDoctorRoutes)
		}
		mount(r, "/activity", params.ActivityHandler)
	})

	return r
}

type routeMounter interface {
	MountRoutes(r chi.Router)
}

func mount[T routeMounter](r chi.Router, pattern string, h T) {
	var zero T
	if any(h) == any(zero) {
		return
	}
	r.Route(pattern, h.MountRoutes)
}
