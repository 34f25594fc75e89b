package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

// RepositoryPort defines the aggregate queries.
type RepositoryPort interface {
	CountPatients(ctx context.Context) (int, error)
	CountAppointments(ctx context.Context, w Window) (int, error)
	CountUnpaidInvoices(ctx context.Context) (int, error)
	Revenue(ctx context.Context, w Window) (int64, error)
	CountActiveDoctors(ctx context.Context) (int, error)
	Agenda(ctx context.Context, doctorID int64, w Window) ([]Visit, error)
	CountUpcoming(ctx context.Context, doctorID int64, w Window) (int, error)
	CountPatientsSeen(ctx context.Context, doctorID int64) (int, error)
	CountCompleted(ctx context.Context, doctorID int64, w Window) (int, error)
}

// Service builds dashboards. Aggregates run concurrently.
type Service struct {
	repo  RepositoryPort
	authz shared.Authorizer
	loc   *time.Location
	now   func() time.Time
}

// NewService builds Service instance. loc decides day boundaries.
func NewService(repo RepositoryPort, authorizer shared.Authorizer, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, authz: authorizer, loc: loc, now: time.Now}
}

// Admin returns the clinic overview.
func (s *Service) Admin(ctx context.Context) (AdminSummary, error) {
	if err := s.authz.Check(authz.PrincipalFromContext(ctx), authz.CapViewAdminDashboard); err != nil {
		return AdminSummary{}, err
	}
	w := WindowAt(s.now(), s.loc)
	var out AdminSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Patients, err = s.repo.CountPatients(gctx)
		return
	})
	g.Go(func() (err error) {
		out.AppointmentsToday, err = s.repo.CountAppointments(gctx, w)
		return
	})
	g.Go(func() (err error) {
		out.UnpaidInvoices, err = s.repo.CountUnpaidInvoices(gctx)
		return
	})
	g.Go(func() (err error) {
		out.RevenueMonthCents, err = s.repo.Revenue(gctx, w)
		return
	})
	g.Go(func() (err error) {
		out.ActiveDoctors, err = s.repo.CountActiveDoctors(gctx)
		return
	})
	if err := g.Wait(); err != nil {
		return AdminSummary{}, fmt.Errorf("admin dashboard: %w", err)
	}
	return out, nil
}

// Doctor returns the calling doctor's day.
func (s *Service) Doctor(ctx context.Context) (DoctorSummary, error) {
	p := authz.PrincipalFromContext(ctx)
	if err := s.authz.Check(p, authz.CapViewDoctorDashboard); err != nil {
		return DoctorSummary{}, err
	}
	doctorID, ok := p.DoctorID()
	if !ok {
		return DoctorSummary{}, fmt.Errorf("%w: doctor profile not linked", httpx.ErrForbidden)
	}
	w := WindowAt(s.now(), s.loc)
	var out DoctorSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Today, err = s.repo.Agenda(gctx, doctorID, w)
		return
	})
	g.Go(func() (err error) {
		out.Upcoming, err = s.repo.CountUpcoming(gctx, doctorID, w)
		return
	})
	g.Go(func() (err error) {
		out.PatientsSeen, err = s.repo.CountPatientsSeen(gctx, doctorID)
		return
	})
	g.Go(func() (err error) {
		out.CompletedMonth, err = s.repo.CountCompleted(gctx, doctorID, w)
		return
	})
	if err := g.Wait(); err != nil {
		return DoctorSummary{}, fmt.Errorf("doctor dashboard: %w", err)
	}
	if out.Today == nil {
		out.Today = []Visit{}
	}
	return out, nil
}
