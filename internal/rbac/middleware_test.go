package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/shared"
)

type stubStore struct {
	accounts map[int64]Account
	err      error
	calls    atomic.Int32
}

func (s *stubStore) AccountByUserID(ctx context.Context, userID int64) (Account, error) {
	s.calls.Add(1)
	if s.err != nil {
		return Account{}, s.err
	}
	acc, ok := s.accounts[userID]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func int64p(v int64) *int64 { return &v }

func newStore() *stubStore {
	return &stubStore{accounts: map[int64]Account{
		1: {UserID: 1, Role: "admin", IsActive: true},
		2: {UserID: 2, Role: "receptionist", IsActive: true},
		3: {UserID: 3, Role: "doctor", DoctorID: int64p(30), IsActive: true},
		4: {UserID: 4, Role: "admin", IsActive: false},
		5: {UserID: 5, Role: "janitor", IsActive: true},
	}}
}

func newMiddleware(store AccountStore) Middleware {
	return Middleware{Resolver: authz.New(), Loader: NewPrincipalLoader(store)}
}

// withUser simulates the session middleware for a logged in user.
func withUser(r *http.Request, userID string) *http.Request {
	sess := &shared.Session{ID: "test"}
	sess.SetUser(userID)
	return r.WithContext(shared.ContextWithSession(r.Context(), sess))
}

func TestAccountPrincipal(t *testing.T) {
	p := Account{UserID: 3, Role: "Doctor", DoctorID: int64p(30)}.Principal()
	assert.Equal(t, authz.RoleDoctor, p.Role)
	id, ok := p.DoctorID()
	assert.True(t, ok)
	assert.Equal(t, int64(30), id)

	p = Account{UserID: 1, Role: "admin", DoctorID: int64p(30)}.Principal()
	assert.Nil(t, p.Doctor, "only doctors carry a profile")

	p = Account{UserID: 5, Role: "janitor"}.Principal()
	assert.False(t, p.Role.Valid())
}

func TestLoaderRejectsInactive(t *testing.T) {
	loader := NewPrincipalLoader(newStore())
	_, err := loader.Load(context.Background(), 4)
	assert.ErrorIs(t, err, ErrInactive)
	_, err = loader.Load(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoaderNeverCaches(t *testing.T) {
	store := newStore()
	loader := NewPrincipalLoader(store)
	for i := 0; i < 3; i++ {
		_, err := loader.Load(context.Background(), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), store.calls.Load())

	store.accounts[1] = Account{UserID: 1, Role: "receptionist", IsActive: true}
	p, err := loader.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleReceptionist, p.Role)
}

type blockingStore struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingStore) AccountByUserID(ctx context.Context, userID int64) (Account, error) {
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
		return Account{UserID: userID, Role: "admin", IsActive: true}, nil
	case <-ctx.Done():
		return Account{}, ctx.Err()
	}
}

func TestLoaderSharedQuerySurvivesFirstCallerCancel(t *testing.T) {
	store := &blockingStore{started: make(chan struct{}), release: make(chan struct{})}
	loader := NewPrincipalLoader(store)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := loader.Load(firstCtx, 1)
		firstErr <- err
	}()
	<-store.started

	type result struct {
		p   *authz.Principal
		err error
	}
	second := make(chan result, 1)
	go func() {
		p, err := loader.Load(context.Background(), 1)
		second <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(store.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, authz.RoleAdmin, got.p.Role)
}

func serve(m Middleware, h http.Handler, userID string) *httptest.ResponseRecorder {
	req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), userID)
	rr := httptest.NewRecorder()
	m.Authenticate(h).ServeHTTP(rr, req)
	return rr
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRequireCapability(t *testing.T) {
	m := newMiddleware(newStore())
	h := m.RequireCapability(authz.CapManagePatients)(okHandler)

	assert.Equal(t, http.StatusNoContent, serve(m, h, "1").Code)
	assert.Equal(t, http.StatusNoContent, serve(m, h, "2").Code)
	assert.Equal(t, http.StatusForbidden, serve(m, h, "3").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(m, h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(m, h, "4").Code, "inactive accounts are anonymous")
	assert.Equal(t, http.StatusForbidden, serve(m, h, "5").Code, "unknown roles are denied")
}

func TestRequireUnknownCapability(t *testing.T) {
	m := newMiddleware(newStore())
	h := m.RequireCapability(authz.Capability("launch"))(okHandler)
	assert.Equal(t, http.StatusForbidden, serve(m, h, "1").Code)
}

func TestRequireAction(t *testing.T) {
	m := newMiddleware(newStore())
	h := m.RequireAction(authz.ActionCreate, authz.ResourceMedicalRecordTemplate)(okHandler)
	assert.Equal(t, http.StatusNoContent, serve(m, h, "3").Code)
	assert.Equal(t, http.StatusForbidden, serve(m, h, "1").Code)
}

func TestAuthenticateStoreFailure(t *testing.T) {
	m := newMiddleware(&stubStore{err: errors.New("db down")})
	assert.Equal(t, http.StatusInternalServerError, serve(m, okHandler, "1").Code)
}

func TestPermissionsHandler(t *testing.T) {
	m := newMiddleware(newStore())
	r := chi.NewRouter()
	r.Use(m.Authenticate)
	r.Route("/permissions", NewPermissionsHandler(m).MountRoutes)

	do := func(path, userID string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, path, nil), userID))
		return rr
	}

	rr := do("/permissions/me", "3")
	require.Equal(t, http.StatusOK, rr.Code)
	var mine permissionsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mine))
	assert.Equal(t, "doctor", mine.Role)
	assert.ElementsMatch(t, []authz.Capability{authz.CapAddMedicalRecord, authz.CapViewDoctorDashboard}, mine.Capabilities)

	assert.Equal(t, http.StatusForbidden, do("/permissions/matrix", "2").Code)
	assert.Equal(t, http.StatusOK, do("/permissions/matrix", "1").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/permissions/me", "").Code)
}
