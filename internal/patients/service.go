package patients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

// RepositoryPort defines data access methods for patients.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Patient, error)
	List(ctx context.Context, f ListFilters, page shared.Page) ([]Patient, int, error)
	Create(ctx context.Context, p Patient) (Patient, error)
	Update(ctx context.Context, p Patient) (Patient, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles patient business logic.
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

// List returns patients visible to the request principal. Doctors only see
// patients they hold an appointment with.
func (s *Service) List(ctx context.Context, f ListFilters, page shared.Page) ([]Patient, shared.Pagination, error) {
	p := authz.PrincipalFromContext(ctx)
	if err := s.authz.Authorize(p, authz.ActionViewAny, authz.ResourcePatient, nil); err != nil {
		return nil, shared.Pagination{}, err
	}
	if doctorID, restricted := shared.DoctorScope(p); restricted {
		f.DoctorID = &doctorID
	}
	patients, total, err := s.repo.List(ctx, f, page)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list patients: %w", err)
	}
	if patients == nil {
		patients = []Patient{}
	}
	return patients, shared.NewPagination(page, total), nil
}

// Get returns one patient after the view check.
func (s *Service) Get(ctx context.Context, id int64) (Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionView, authz.ResourcePatient, patient.Resource()); err != nil {
		return Patient{}, err
	}
	return patient, nil
}

// Create registers a patient with a fresh medical record number.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Patient, error) {
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionCreate, authz.ResourcePatient, nil); err != nil {
		return Patient{}, err
	}
	birth, err := parseDate(req.BirthDate)
	if err != nil {
		return Patient{}, err
	}
	patient := Patient{
		MRN:       s.newMRN(),
		Name:      NormalizeName(req.Name),
		BirthDate: birth,
		Gender:    req.Gender,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
	}
	created, err := s.repo.Create(ctx, patient)
	if err != nil {
		return Patient{}, fmt.Errorf("create patient: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "create", "patient", created.ID, map[string]any{"mrn": created.MRN, "name": created.Name})
	return created, nil
}

// Update applies the non-nil fields of req.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return Patient{}, err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionUpdate, authz.ResourcePatient, patient.Resource()); err != nil {
		return Patient{}, err
	}

	changed := make(map[string]any)
	if req.Name != nil {
		patient.Name = NormalizeName(*req.Name)
		changed["name"] = patient.Name
	}
	if req.BirthDate != nil {
		birth, err := parseDate(*req.BirthDate)
		if err != nil {
			return Patient{}, err
		}
		patient.BirthDate = birth
		changed["birth_date"] = *req.BirthDate
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
		changed["gender"] = patient.Gender
	}
	if req.Phone != nil {
		patient.Phone = strings.TrimSpace(*req.Phone)
		changed["phone"] = patient.Phone
	}
	if req.Address != nil {
		patient.Address = strings.TrimSpace(*req.Address)
		changed["address"] = patient.Address
	}
	if len(changed) == 0 {
		return patient, nil
	}

	updated, err := s.repo.Update(ctx, patient)
	if err != nil {
		return Patient{}, fmt.Errorf("update patient: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "update", "patient", id, changed)
	return updated, nil
}

// Delete removes a patient.
func (s *Service) Delete(ctx context.Context, id int64) error {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionDelete, authz.ResourcePatient, patient.Resource()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	activity.BestEffort(ctx, s.activity, "delete", "patient", id, map[string]any{"mrn": patient.MRN})
	return nil
}

// newMRN returns numbers like RM-20260314-3F9A1C.
func (s *Service) newMRN() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "RM-" + s.now().UTC().Format("20060102") + "-" + suffix
}

// NormalizeName collapses whitespace and title-cases a person's name.
// Casers keep state, so each call builds its own.
func NormalizeName(name string) string {
	return cases.Title(language.Indonesian).String(strings.Join(strings.Fields(name), " "))
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: birth_date must be YYYY-MM-DD", httpx.ErrValidation)
	}
	return &t, nil
}
