package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/shared"
)

// RepositoryPort defines data access methods for templates.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Template, error)
	ListByOwner(ctx context.Context, userID int64) ([]Template, error)
	Create(ctx context.Context, t Template) (Template, error)
	Update(ctx context.Context, t Template) (Template, error)
	Delete(ctx context.Context, id int64) error
}

// Service manages medical record templates. There is no single-template
// read; the view rule always denies.
type Service struct {
	repo     RepositoryPort
	authz    shared.Authorizer
	activity activity.Recorder
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, authorizer shared.Authorizer, recorder activity.Recorder) *Service {
	return &Service{repo: repo, authz: authorizer, activity: recorder}
}

// ListMine returns the caller's own templates.
func (s *Service) ListMine(ctx context.Context) ([]Template, error) {
	p := authz.PrincipalFromContext(ctx)
	if err := s.authz.Authorize(p, authz.ActionViewAny, authz.ResourceMedicalRecordTemplate, nil); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByOwner(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if items == nil {
		items = []Template{}
	}
	return items, nil
}

// Create stores a template owned by the caller.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Template, error) {
	p := authz.PrincipalFromContext(ctx)
	if err := s.authz.Authorize(p, authz.ActionCreate, authz.ResourceMedicalRecordTemplate, nil); err != nil {
		return Template{}, err
	}
	created, err := s.repo.Create(ctx, Template{UserID: p.ID, Name: strings.TrimSpace(req.Name), Body: req.Body})
	if err != nil {
		return Template{}, fmt.Errorf("create template: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "create", "medical-record-template", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// Update edits a template the caller owns.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Template, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Template{}, err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionUpdate, authz.ResourceMedicalRecordTemplate, t.Resource()); err != nil {
		return Template{}, err
	}
	if req.Name == nil && req.Body == nil {
		return t, nil
	}
	if req.Name != nil {
		t.Name = strings.TrimSpace(*req.Name)
	}
	if req.Body != nil {
		t.Body = *req.Body
	}
	updated, err := s.repo.Update(ctx, t)
	if err != nil {
		return Template{}, fmt.Errorf("update template: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "update", "medical-record-template", id, map[string]any{"name": updated.Name})
	return updated, nil
}

// Delete removes a template the caller owns.
func (s *Service) Delete(ctx context.Context, id int64) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionDelete, authz.ResourceMedicalRecordTemplate, t.Resource()); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	activity.BestEffort(ctx, s.activity, "delete", "medical-record-template", id, map[string]any{"name": t.Name})
	return nil
}

// Usable loads template id for building a record. Only the owner may use it.
func (s *Service) Usable(ctx context.Context, id int64) (Template, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Template{}, err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionUpdate, authz.ResourceMedicalRecordTemplate, t.Resource()); err != nil {
		return Template{}, err
	}
	return t, nil
}
