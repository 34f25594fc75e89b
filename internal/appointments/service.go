package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

// RepositoryPort defines data access methods for appointments.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Appointment, error)
	List(ctx context.Context, f ListFilters, page shared.Page) ([]Appointment, int, error)
	Create(ctx context.Context, a Appointment) (int64, error)
	Update(ctx context.Context, a Appointment) error
	Delete(ctx context.Context, id int64) error
}

// Service handles appointment scheduling.
type Service struct {
	repo     RepositoryPort
	authz    shared.Authorizer
	activity activity.Recorder
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, authorizer shared.Authorizer, recorder activity.Recorder) *Service {
	return &Service{repo: repo, authz: authorizer, activity: recorder, now: time.Now}
}

// List returns appointments visible to the request principal. A doctor's
// listing is always narrowed to their own schedule.
func (s *Service) List(ctx context.Context, f ListFilters, page shared.Page) ([]Appointment, shared.Pagination, error) {
	p := authz.PrincipalFromContext(ctx)
	if err := s.authz.Authorize(p, authz.ActionViewAny, authz.ResourceAppointment, nil); err != nil {
		return nil, shared.Pagination{}, err
	}
	if doctorID, restricted := shared.DoctorScope(p); restricted {
		f.DoctorID = &doctorID
	}
	items, total, err := s.repo.List(ctx, f, page)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list appointments: %w", err)
	}
	if items == nil {
		items = []Appointment{}
	}
	return items, shared.NewPagination(page, total), nil
}

// Get returns one appointment after the view check.
func (s *Service) Get(ctx context.Context, id int64) (Appointment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionView, authz.ResourceAppointment, a.Resource()); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// Create books a new scheduled appointment.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Appointment, error) {
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionCreate, authz.ResourceAppointment, nil); err != nil {
		return Appointment{}, err
	}
	if !req.ScheduledAt.After(s.now()) {
		return Appointment{}, fmt.Errorf("%w: scheduled_at must be in the future", httpx.ErrValidation)
	}
	a := Appointment{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		ServiceID:   req.ServiceID,
		ScheduledAt: req.ScheduledAt.UTC(),
		Status:      StatusScheduled,
		Notes:       strings.TrimSpace(req.Notes),
	}
	id, err := s.repo.Create(ctx, a)
	if err != nil {
		return Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "create", "appointment", id, map[string]any{
		"patient_id":   a.PatientID,
		"doctor_id":    a.DoctorID,
		"scheduled_at": a.ScheduledAt,
	})
	return s.repo.Get(ctx, id)
}

// Update reschedules, reassigns or moves an appointment through its
// lifecycle. Completed and cancelled appointments are frozen.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Appointment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionUpdate, authz.ResourceAppointment, a.Resource()); err != nil {
		return Appointment{}, err
	}
	if a.Status != StatusScheduled {
		return Appointment{}, fmt.Errorf("%w: appointment is %s", httpx.ErrConflict, a.Status)
	}

	changed := make(map[string]any)
	if req.DoctorID != nil && *req.DoctorID != a.DoctorID {
		a.DoctorID = *req.DoctorID
		changed["doctor_id"] = a.DoctorID
	}
	if req.ServiceID != nil && *req.ServiceID != a.ServiceID {
		a.ServiceID = *req.ServiceID
		changed["service_id"] = a.ServiceID
	}
	if req.ScheduledAt != nil && !req.ScheduledAt.Equal(a.ScheduledAt) {
		if !req.ScheduledAt.After(s.now()) {
			return Appointment{}, fmt.Errorf("%w: scheduled_at must be in the future", httpx.ErrValidation)
		}
		a.ScheduledAt = req.ScheduledAt.UTC()
		changed["scheduled_at"] = a.ScheduledAt
	}
	if req.Notes != nil {
		a.Notes = strings.TrimSpace(*req.Notes)
		changed["notes"] = a.Notes
	}
	if req.Status != nil && *req.Status != a.Status {
		if !a.Status.CanTransition(*req.Status) {
			return Appointment{}, fmt.Errorf("%w: cannot move appointment from %s to %s", httpx.ErrConflict, a.Status, *req.Status)
		}
		changed["status"] = string(*req.Status)
		a.Status = *req.Status
	}
	if len(changed) == 0 {
		return a, nil
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return Appointment{}, fmt.Errorf("update appointment: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "update", "appointment", id, changed)
	return s.repo.Get(ctx, id)
}

// Delete removes an appointment.
func (s *Service) Delete(ctx context.Context, id int64) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionDelete, authz.ResourceAppointment, a.Resource()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	activity.BestEffort(ctx, s.activity, "delete", "appointment", id, map[string]any{"patient_id": a.PatientID})
	return nil
}
