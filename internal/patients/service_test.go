package patients

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

type memoryRepo struct {
	patients map[int64]Patient
	nextID   int64
}

func newMemoryRepo(seed ...Patient) *memoryRepo {
	m := &memoryRepo{patients: make(map[int64]Patient), nextID: 1}
	for _, p := range seed {
		m.patients[p.ID] = p
		if p.ID >= m.nextID {
			m.nextID = p.ID + 1
		}
	}
	return m
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return Patient{}, fmt.Errorf("%w: patient %d", httpx.ErrNotFound, id)
	}
	return p, nil
}

func (m *memoryRepo) List(ctx context.Context, f ListFilters, page shared.Page) ([]Patient, int, error) {
	var out []Patient
	for id := int64(1); id < m.nextID; id++ {
		p, ok := m.patients[id]
		if !ok {
			continue
		}
		if f.DoctorID != nil && !slices.Contains(p.DoctorIDs, *f.DoctorID) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Create(ctx context.Context, p Patient) (Patient, error) {
	p.ID = m.nextID
	m.nextID++
	m.patients[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Update(ctx context.Context, p Patient) (Patient, error) {
	m.patients[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	delete(m.patients, id)
	return nil
}

type recorder struct {
	actions []string
	err     error
}

func (r *recorder) Record(ctx context.Context, action, entity string, id int64, meta map[string]any) error {
	r.actions = append(r.actions, fmt.Sprintf("%s %s %d", action, entity, id))
	return r.err
}

var _ activity.Recorder = (*recorder)(nil)

func as(p *authz.Principal) context.Context {
	return authz.ContextWithPrincipal(context.Background(), p)
}

var (
	adminP        = &authz.Principal{ID: 1, Role: authz.RoleAdmin}
	receptionistP = &authz.Principal{ID: 2, Role: authz.RoleReceptionist}
	doctorP       = &authz.Principal{ID: 3, Role: authz.RoleDoctor, Doctor: &authz.DoctorProfile{ID: 30}}
	orphanDoctorP = &authz.Principal{ID: 4, Role: authz.RoleDoctor}
)

func fixture() (*Service, *memoryRepo, *recorder) {
	repo := newMemoryRepo(
		Patient{ID: 1, MRN: "RM-1", Name: "Budi Santoso", Gender: GenderMale, DoctorIDs: []int64{30}},
		Patient{ID: 2, MRN: "RM-2", Name: "Siti Aminah", Gender: GenderFemale, DoctorIDs: []int64{31}},
	)
	rec := &recorder{}
	svc := NewService(repo, authz.New(), rec)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC) }
	return svc, repo, rec
}

func TestListScopesDoctors(t *testing.T) {
	svc, _, _ := fixture()

	all, paging, err := svc.List(as(receptionistP), ListFilters{}, shared.NewPage(1, 20))
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, paging.Total)

	mine, _, err := svc.List(as(doctorP), ListFilters{}, shared.NewPage(1, 20))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].ID)

	none, _, err := svc.List(as(orphanDoctorP), ListFilters{}, shared.NewPage(1, 20))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListRequiresPrincipal(t *testing.T) {
	svc, _, _ := fixture()
	_, _, err := svc.List(context.Background(), ListFilters{}, shared.NewPage(1, 20))
	assert.ErrorIs(t, err, authz.ErrPrincipalMissing)
}

func TestGetChecksAttendingDoctor(t *testing.T) {
	svc, _, _ := fixture()

	p, err := svc.Get(as(doctorP), 1)
	require.NoError(t, err)
	assert.Equal(t, "RM-1", p.MRN)

	_, err = svc.Get(as(doctorP), 2)
	assert.ErrorIs(t, err, authz.ErrUnauthorized)
}

func TestGetNotFoundBeforeAuthorization(t *testing.T) {
	svc, _, _ := fixture()
	_, err := svc.Get(as(doctorP), 99)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.False(t, errors.Is(err, authz.ErrUnauthorized))
}

func TestCreateNormalizesAndRecords(t *testing.T) {
	svc, _, rec := fixture()

	p, err := svc.Create(as(receptionistP), CreateRequest{Name: "  dewi   lestari ", Gender: GenderFemale, BirthDate: "1990-05-01"})
	require.NoError(t, err)
	assert.Equal(t, "Dewi Lestari", p.Name)
	assert.Regexp(t, `^RM-20260314-[0-9A-F]{6}$`, p.MRN)
	require.NotNil(t, p.BirthDate)
	assert.Equal(t, 1990, p.BirthDate.Year())
	assert.Equal(t, []string{"create patient 3"}, rec.actions)
}

func TestCreateSurvivesActivityFailure(t *testing.T) {
	svc, repo, rec := fixture()
	rec.err = errors.New("activity store down")

	p, err := svc.Create(as(receptionistP), CreateRequest{Name: "rina", Gender: GenderFemale})
	require.NoError(t, err)
	assert.Equal(t, []string{"create patient 3"}, rec.actions)
	_, err = repo.Get(context.Background(), p.ID)
	assert.NoError(t, err)
}

func TestCreateDeniedForDoctor(t *testing.T) {
	svc, repo, rec := fixture()
	_, err := svc.Create(as(doctorP), CreateRequest{Name: "X", Gender: GenderMale})
	assert.ErrorIs(t, err, authz.ErrUnauthorized)
	assert.Len(t, repo.patients, 2)
	assert.Empty(t, rec.actions)
}

func TestCreateRejectsBadDate(t *testing.T) {
	svc, _, _ := fixture()
	_, err := svc.Create(as(adminP), CreateRequest{Name: "X", Gender: GenderMale, BirthDate: "01/05/1990"})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateAppliesChangedFields(t *testing.T) {
	svc, repo, rec := fixture()
	phone := " 0812 "
	p, err := svc.Update(as(receptionistP), 1, UpdateRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "0812", p.Phone)
	assert.Equal(t, "Budi Santoso", repo.patients[1].Name)
	assert.Equal(t, []string{"update patient 1"}, rec.actions)

	_, err = svc.Update(as(receptionistP), 1, UpdateRequest{})
	require.NoError(t, err)
	assert.Len(t, rec.actions, 1)
}

func TestDeleteAdminOnly(t *testing.T) {
	svc, repo, _ := fixture()

	assert.ErrorIs(t, svc.Delete(as(receptionistP), 1), authz.ErrUnauthorized)
	require.NoError(t, svc.Delete(as(adminP), 1))
	assert.NotContains(t, repo.patients, int64(1))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Ni Made Ayu", NormalizeName("ni   MADE ayu"))
	assert.Equal(t, "", NormalizeName("   "))
}
