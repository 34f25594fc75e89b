package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/shared"
)

// RepositoryPort defines data access methods for clinic services.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Service, error)
	List(ctx context.Context, includeInactive bool) ([]Service, error)
	Create(ctx context.Context, s Service) (Service, error)
	Update(ctx context.Context, s Service) (Service, error)
	Delete(ctx context.Context, id int64) error
}

// Catalog manages the billable service list.
type Catalog struct {
	repo     RepositoryPort
	authz    shared.Authorizer
	activity activity.Recorder
}

// NewCatalog builds Catalog instance.
func NewCatalog(repo RepositoryPort, authorizer shared.Authorizer, recorder activity.Recorder) *Catalog {
	return &Catalog{repo: repo, authz: authorizer, activity: recorder}
}

// List returns the catalogue. Only admins see inactive services.
func (c *Catalog) List(ctx context.Context, includeInactive bool) ([]Service, error) {
	p := authz.PrincipalFromContext(ctx)
	if err := c.authz.Authorize(p, authz.ActionViewAny, authz.ResourceService, nil); err != nil {
		return nil, err
	}
	if includeInactive && c.authz.Check(p, authz.CapManageServices) != nil {
		includeInactive = false
	}
	items, err := c.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	if items == nil {
		items = []Service{}
	}
	return items, nil
}

// Get returns one service.
func (c *Catalog) Get(ctx context.Context, id int64) (Service, error) {
	s, err := c.repo.Get(ctx, id)
	if err != nil {
		return Service{}, err
	}
	if err := c.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionView, authz.ResourceService, s.Resource()); err != nil {
		return Service{}, err
	}
	return s, nil
}

// Create adds an active service.
func (c *Catalog) Create(ctx context.Context, req CreateRequest) (Service, error) {
	if err := c.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionCreate, authz.ResourceService, nil); err != nil {
		return Service{}, err
	}
	created, err := c.repo.Create(ctx, Service{
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		PriceCents:      req.PriceCents,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	})
	if err != nil {
		return Service{}, fmt.Errorf("create service: %w", err)
	}
	activity.BestEffort(ctx, c.activity, "create", "service", created.ID, map[string]any{"name": created.Name, "price_cents": created.PriceCents})
	return created, nil
}

// Update applies the non-nil fields of req.
func (c *Catalog) Update(ctx context.Context, id int64, req UpdateRequest) (Service, error) {
	s, err := c.repo.Get(ctx, id)
	if err != nil {
		return Service{}, err
	}
	if err := c.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionUpdate, authz.ResourceService, s.Resource()); err != nil {
		return Service{}, err
	}
	changed := make(map[string]any)
	if req.Name != nil {
		s.Name = strings.TrimSpace(*req.Name)
		changed["name"] = s.Name
	}
	if req.Description != nil {
		s.Description = strings.TrimSpace(*req.Description)
		changed["description"] = s.Description
	}
	if req.PriceCents != nil {
		s.PriceCents = *req.PriceCents
		changed["price_cents"] = s.PriceCents
	}
	if req.DurationMinutes != nil {
		s.DurationMinutes = *req.DurationMinutes
		changed["duration_minutes"] = s.DurationMinutes
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
		changed["is_active"] = s.IsActive
	}
	if len(changed) == 0 {
		return s, nil
	}
	updated, err := c.repo.Update(ctx, s)
	if err != nil {
		return Service{}, fmt.Errorf("update service: %w", err)
	}
	activity.BestEffort(ctx, c.activity, "update", "service", id, changed)
	return updated, nil
}

// Delete removes a service.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	s, err := c.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionDelete, authz.ResourceService, s.Resource()); err != nil {
		return err
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	activity.BestEffort(ctx, c.activity, "delete", "service", id, map[string]any{"name": s.Name})
	return nil
}
