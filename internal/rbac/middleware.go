package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

// Middleware enforces gates and policies for HTTP handlers.
type Middleware struct {
	Resolver *authz.Resolver
	Loader   *PrincipalLoader
	Logger   *slog.Logger
}

// Authenticate resolves the session user into a principal. Anonymous
// requests and deactivated or deleted accounts continue without one.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := shared.SessionUserID(r.Context())
		if !ok || m.Loader == nil {
			next.ServeHTTP(w, r)
			return
		}
		p, err := m.Loader.Load(r.Context(), userID)
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), p)))
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrInactive):
			m.log().Info("session user rejected", slog.Int64("user_id", userID), slog.Any("error", err))
			next.ServeHTTP(w, r)
		default:
			m.log().Error("load principal", slog.Int64("user_id", userID), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
	})
}

// RequireCapability rejects requests whose principal lacks capability.
func (m Middleware) RequireCapability(capability authz.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := m.Resolver.Check(authz.PrincipalFromContext(r.Context()), capability); err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAction rejects requests failing a class-level policy check.
func (m Middleware) RequireAction(action authz.Action, resource authz.ResourceType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := m.Resolver.Authorize(authz.PrincipalFromContext(r.Context()), action, resource, nil); err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePrincipal rejects anonymous requests.
func (m Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authz.PrincipalFromContext(r.Context()) == nil {
			httpx.RespondError(w, authz.ErrPrincipalMissing)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) log() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}
