package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/shared"
)

type memoryRepo struct {
	entries []Entry
	err     error
}

func (m *memoryRepo) Insert(ctx context.Context, e Entry) error {
	if m.err != nil {
		return m.err
	}
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryRepo) List(ctx context.Context, f Filters, page shared.Page) ([]Entry, int, error) {
	return m.entries, len(m.entries), nil
}

func TestRecordAttributesPrincipal(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	ctx := authz.ContextWithPrincipal(context.Background(), &authz.Principal{ID: 7, Role: authz.RoleAdmin})
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-1")
	require.NoError(t, svc.Record(ctx, "create", "patient", 12, map[string]any{"name": "Sari"}))

	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.Equal(t, int64(7), e.ActorID)
	assert.Equal(t, "12", e.EntityID)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, "Sari", e.Meta["name"])
}

func TestRecordValidatesInput(t *testing.T) {
	svc := NewService(&memoryRepo{}, nil)
	assert.Error(t, svc.Record(context.Background(), "", "patient", 1, nil))
	assert.Error(t, svc.Record(context.Background(), "create", "patient", 0, nil))
}

func TestRecordPropagatesStoreError(t *testing.T) {
	svc := NewService(&memoryRepo{err: errors.New("disk full")}, nil)
	assert.Error(t, svc.Record(context.Background(), "create", "patient", 1, nil))
}

func TestBestEffortSwallowsStoreError(t *testing.T) {
	repo := &memoryRepo{err: errors.New("disk full")}
	svc := NewService(repo, nil)
	assert.NotPanics(t, func() {
		BestEffort(context.Background(), svc, "create", "patient", 1, nil)
		BestEffortKey(context.Background(), svc, "update", "setting", "timezone", nil)
		BestEffort(context.Background(), nil, "create", "patient", 1, nil)
		BestEffortKey(context.Background(), nil, "update", "setting", "timezone", nil)
	})
	assert.Empty(t, repo.entries)

	repo.err = nil
	BestEffortKey(context.Background(), svc, "update", "setting", "timezone", map[string]any{"value": "Asia/Makassar"})
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "timezone", repo.entries[0].EntityID)
}

func TestListEmpty(t *testing.T) {
	svc := NewService(&memoryRepo{}, nil)
	entries, paging, err := svc.List(context.Background(), Filters{}, shared.NewPage(1, 20))
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Equal(t, 0, paging.Total)
}

func TestFilterClause(t *testing.T) {
	actor := int64(3)
	where, args := filterClause(Filters{ActorID: &actor, Entity: "invoice"})
	assert.Equal(t, " WHERE actor_id = $1 AND entity = $2", where)
	assert.Equal(t, []any{int64(3), "invoice"}, args)

	where, args = filterClause(Filters{})
	assert.Empty(t, where)
	assert.Nil(t, args)
}
