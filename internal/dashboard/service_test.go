package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
)

type fakeRepo struct {
	failRevenue bool
	agendaFor   int64
}

func (f *fakeRepo) CountPatients(context.Context) (int, error) { return 42, nil }
func (f *fakeRepo) CountAppointments(context.Context, Window) (int, error) { return 7, nil }
func (f *fakeRepo) CountUnpaidInvoices(context.Context) (int, error) { return 3, nil }
func (f *fakeRepo) CountActiveDoctors(context.Context) (int, error) { return 2, nil }

func (f *fakeRepo) Revenue(context.Context, Window) (int64, error) {
	if f.failRevenue {
		return 0, errors.New("connection reset")
	}
	return 1_250_000, nil
}

func (f *fakeRepo) Agenda(ctx context.Context, doctorID int64, w Window) ([]Visit, error) {
	f.agendaFor = doctorID
	return nil, nil
}

func (f *fakeRepo) CountUpcoming(context.Context, int64, Window) (int, error) { return 4, nil }
func (f *fakeRepo) CountPatientsSeen(context.Context, int64) (int, error) { return 11, nil }
func (f *fakeRepo) CountCompleted(context.Context, int64, Window) (int, error) { return 9, nil }

var (
	adminP        = &authz.Principal{ID: 1, Role: authz.RoleAdmin}
	doctorP       = &authz.Principal{ID: 3, Role: authz.RoleDoctor, Doctor: &authz.DoctorProfile{ID: 30}}
	orphanDoctorP = &authz.Principal{ID: 4, Role: authz.RoleDoctor}
)

func as(p *authz.Principal) context.Context {
	return authz.ContextWithPrincipal(context.Background(), p)
}

func TestWindowAt(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	w := WindowAt(time.Date(2026, 1, 31, 20, 0, 0, 0, time.UTC), jakarta)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, jakarta), w.DayStart)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, jakarta), w.MonthStart)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, jakarta), w.MonthEnd)
}

func TestAdminSummary(t *testing.T) {
	svc := NewService(&fakeRepo{}, authz.New(), nil)
	out, err := svc.Admin(as(adminP))
	require.NoError(t, err)
	assert.Equal(t, AdminSummary{Patients: 42, AppointmentsToday: 7, UnpaidInvoices: 3, RevenueMonthCents: 1_250_000, ActiveDoctors: 2}, out)

	_, err = svc.Admin(as(doctorP))
	assert.ErrorIs(t, err, authz.ErrUnauthorized)
}

func TestAdminSummaryFailure(t *testing.T) {
	svc := NewService(&fakeRepo{failRevenue: true}, authz.New(), nil)
	_, err := svc.Admin(as(adminP))
	assert.ErrorContains(t, err, "connection reset")
}

func TestDoctorSummary(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, authz.New(), nil)
	out, err := svc.Doctor(as(doctorP))
	require.NoError(t, err)
	assert.Equal(t, int64(30), repo.agendaFor)
	assert.Empty(t, out.Today)
	assert.NotNil(t, out.Today)
	assert.Equal(t, 4, out.Upcoming)
	assert.Equal(t, 9, out.CompletedMonth)

	_, err = svc.Doctor(as(orphanDoctorP))
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.Doctor(as(adminP))
	assert.ErrorIs(t, err, authz.ErrUnauthorized)
}
