package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/medika/medika/internal/auth"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/shared"
	_ "github.com/medika/medika/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func newRepo(t *testing.T, active bool) *stubRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &stubRepo{
		user:     &auth.User{ID: 9, Name: "Rina", Email: "rina@klinik.test", Role: "receptionist", PasswordHash: string(hash), IsActive: active},
		sessions: map[string]int64{},
	}
}

// withSessions mimics the application session middleware.
func withSessions(sm *shared.SessionManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.Load(r.Context(), r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		ctx := shared.ContextWithSession(r.Context(), sess)
		if id, ok := shared.SessionUserID(ctx); ok {
			ctx = authz.ContextWithPrincipal(ctx, &authz.Principal{ID: id, Role: authz.RoleReceptionist})
		}
		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, r.WithContext(ctx))
		_ = sm.Commit(r.Context(), w, sess)
		for k, v := range rec.Header() {
			w.Header()[k] = v
		}
		w.WriteHeader(rec.Code)
		_, _ = w.Write(rec.Body.Bytes())
	})
}

func newServer(t *testing.T, repo *stubRepo, limit int) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "medika_session", time.Hour, false)
	h := auth.NewHandler(nil, auth.NewService(repo), sm, shared.NewCSRFManager("csrf-secret"), limit)
	r := chi.NewRouter()
	r.Route("/auth", h.MountRoutes)
	return withSessions(sm, r)
}

func post(h http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestLoginSuccess(t *testing.T) {
	repo := newRepo(t, true)
	srv := newServer(t, repo, 0)

	res := post(srv, "/auth/login", `{"email":"rina@klinik.test","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Data struct {
			User      auth.User `json:"user"`
			CSRFToken string    `json:"csrf_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, int64(9), body.Data.User.ID)
	assert.NotEmpty(t, body.Data.CSRFToken)
	assert.NotContains(t, res.Body.String(), "password_hash")
	assert.Len(t, repo.sessions, 1)

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	srv.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "rina@klinik.test")
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := newServer(t, newRepo(t, true), 0)

	res := post(srv, "/auth/login", `{"email":"rina@klinik.test","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = post(srv, "/auth/login", `{"email":"nobody@klinik.test","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginInactiveUser(t *testing.T) {
	srv := newServer(t, newRepo(t, false), 0)
	res := post(srv, "/auth/login", `{"email":"rina@klinik.test","password":"correct-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginValidation(t *testing.T) {
	srv := newServer(t, newRepo(t, true), 0)
	res := post(srv, "/auth/login", `{"email":"not-an-email","password":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
}

func TestLoginRateLimited(t *testing.T) {
	srv := newServer(t, newRepo(t, true), 2)
	for i := 0; i < 2; i++ {
		post(srv, "/auth/login", `{"email":"rina@klinik.test","password":"wrong-password"}`)
	}
	res := post(srv, "/auth/login", `{"email":"rina@klinik.test","password":"correct-horse"}`)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
}

func TestMeAnonymous(t *testing.T) {
	srv := newServer(t, newRepo(t, true), 0)
	res := httptest.NewRecorder()
	srv.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLogout(t *testing.T) {
	repo := newRepo(t, true)
	srv := newServer(t, repo, 0)
	login := post(srv, "/auth/login", `{"email":"rina@klinik.test","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, login.Code)

	res := post(srv, "/auth/logout", ``, login.Result().Cookies()...)
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Empty(t, repo.sessions)
}
