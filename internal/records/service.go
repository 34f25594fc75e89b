package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/patients"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
	"github.com/medika/medika/internal/templates"
)

// RepositoryPort defines data access methods for medical records.
type RepositoryPort interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	ListByPatient(ctx context.Context, patientID int64) ([]Record, error)
}

// PatientReader loads a patient the caller may view.
type PatientReader interface {
	Get(ctx context.Context, id int64) (patients.Patient, error)
}

// TemplateReader loads a template the caller may write from.
type TemplateReader interface {
	Usable(ctx context.Context, id int64) (templates.Template, error)
}

// Service writes medical records.
type Service struct {
	repo      RepositoryPort
	authz     shared.Authorizer
	patients  PatientReader
	templates TemplateReader
	activity  activity.Recorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, authorizer shared.Authorizer, patients PatientReader, templates TemplateReader, recorder activity.Recorder) *Service {
	return &Service{repo: repo, authz: authorizer, patients: patients, templates: templates, activity: recorder}
}

// Add writes a record for patientID. The caller needs the add-medical-record
// capability, a linked doctor profile and must attend the patient.
func (s *Service) Add(ctx context.Context, patientID int64, req AddRequest) (Record, error) {
	p := authz.PrincipalFromContext(ctx)
	if err := s.authz.Check(p, authz.CapAddMedicalRecord); err != nil {
		return Record{}, err
	}
	doctorID, ok := p.DoctorID()
	if !ok {
		return Record{}, fmt.Errorf("%w: doctor profile not linked", httpx.ErrForbidden)
	}
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return Record{}, err
	}

	rec := Record{PatientID: patient.ID, DoctorID: doctorID, TemplateID: req.TemplateID, Content: strings.TrimSpace(req.Content)}
	if req.TemplateID != nil {
		tpl, err := s.templates.Usable(ctx, *req.TemplateID)
		if err != nil {
			return Record{}, err
		}
		if rec.Content == "" {
			rec.Content = tpl.Body
		}
	}
	if rec.Content == "" {
		return Record{}, fmt.Errorf("%w: content required", httpx.ErrValidation)
	}

	created, err := s.repo.Insert(ctx, rec)
	if err != nil {
		return Record{}, fmt.Errorf("add medical record: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "create", "medical-record", created.ID, map[string]any{"patient_id": patient.ID})
	return created, nil
}

// List returns the records of a patient the calling doctor attends.
func (s *Service) List(ctx context.Context, patientID int64) ([]Record, error) {
	if err := s.authz.Check(authz.PrincipalFromContext(ctx), authz.CapAddMedicalRecord); err != nil {
		return nil, err
	}
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list medical records: %w", err)
	}
	if items == nil {
		items = []Record{}
	}
	return items, nil
}
