package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
)

type memoryRepo struct{ rows map[string]Setting }

func (m *memoryRepo) All(ctx context.Context) (map[string]Setting, error) { return m.rows, nil }

func (m *memoryRepo) Upsert(ctx context.Context, key, value string) (Setting, error) {
	now := time.Now()
	s := Setting{Key: key, Value: value, UpdatedAt: &now}
	m.rows[key] = s
	return s, nil
}

var (
	adminP        = &authz.Principal{ID: 1, Role: authz.RoleAdmin}
	receptionistP = &authz.Principal{ID: 2, Role: authz.RoleReceptionist}
)

func as(p *authz.Principal) context.Context {
	return authz.ContextWithPrincipal(context.Background(), p)
}

func fixture() (*Service, *memoryRepo) {
	repo := &memoryRepo{rows: map[string]Setting{KeyClinicPhone: {Key: KeyClinicPhone, Value: "021-555"}}}
	return NewService(repo, authz.New(), activity.Nop{}, map[string]string{KeyClinicName: "Klinik Sehat"}), repo
}

func TestListMergesDefaults(t *testing.T) {
	svc, _ := fixture()
	items, err := svc.List(as(adminP))
	require.NoError(t, err)
	require.Len(t, items, len(Keys()))
	assert.Equal(t, Setting{Key: KeyClinicName, Value: "Klinik Sehat"}, items[0])
	assert.Equal(t, "021-555", items[2].Value)

	_, err = svc.List(as(receptionistP))
	assert.ErrorIs(t, err, authz.ErrUnauthorized)
}

func TestUpdate(t *testing.T) {
	svc, repo := fixture()

	_, err := svc.Update(as(adminP), "unknown", UpdateRequest{Value: "x"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	_, err = svc.Update(as(receptionistP), KeyClinicName, UpdateRequest{Value: "x"})
	assert.ErrorIs(t, err, authz.ErrUnauthorized)

	_, err = svc.Update(as(adminP), KeyTimezone, UpdateRequest{Value: "Mars/Olympus"})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	st, err := svc.Update(as(adminP), KeyTimezone, UpdateRequest{Value: " UTC "})
	require.NoError(t, err)
	assert.Equal(t, "UTC", st.Value)
	assert.Equal(t, "UTC", repo.rows[KeyTimezone].Value)
}
