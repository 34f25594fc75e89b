package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
)

// PermissionsHandler exposes what the policy set allows.
type PermissionsHandler struct {
	rbac Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequirePrincipal).Get("/me", h.mine)
	r.With(h.rbac.RequireCapability(authz.CapManageUsers)).Get("/matrix", h.matrix)
}

type permissionsResponse struct {
	Role         string             `json:"role"`
	Capabilities []authz.Capability `json:"capabilities"`
}

func (h *PermissionsHandler) mine(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	caps := h.rbac.Resolver.Capabilities(p)
	if caps == nil {
		caps = []authz.Capability{}
	}
	httpx.JSON(w, http.StatusOK, permissionsResponse{Role: p.Role.String(), Capabilities: caps})
}

type matrixRow struct {
	Resource authz.ResourceType `json:"resource"`
	Action   authz.Action       `json:"action"`
	Roles    map[string]string  `json:"roles"`
}

func (h *PermissionsHandler) matrix(w http.ResponseWriter, r *http.Request) {
	rows := h.rbac.Resolver.Matrix()
	out := make([]matrixRow, 0, len(rows))
	for _, row := range rows {
		roles := make(map[string]string, len(row.Cells))
		for role, cell := range row.Cells {
			roles[string(role)] = string(cell)
		}
		out = append(out, matrixRow{Resource: row.Resource, Action: row.Action, Roles: roles})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rules": out})
}
