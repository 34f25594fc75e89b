package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/medika/medika/internal/activity"
	"github.com/medika/medika/internal/authz"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Invoice, error)
	List(ctx context.Context, f ListFilters, page shared.Page) ([]Invoice, int, error)
	Services(ctx context.Context, ids []int64) (map[int64]PricedService, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	Update(ctx context.Context, inv Invoice, replaceItems bool) error
	Delete(ctx context.Context, id int64) error
}

// Service handles billing.
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

// List returns invoice headers.
func (s *Service) List(ctx context.Context, f ListFilters, page shared.Page) ([]Invoice, shared.Pagination, error) {
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionViewAny, authz.ResourceInvoice, nil); err != nil {
		return nil, shared.Pagination{}, err
	}
	items, total, err := s.repo.List(ctx, f, page)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list invoices: %w", err)
	}
	if items == nil {
		items = []Invoice{}
	}
	return items, shared.NewPagination(page, total), nil
}

// Get returns one invoice. Doctors may only open invoices of their own
// appointments.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionView, authz.ResourceInvoice, inv.Resource()); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

// Create issues an unpaid invoice priced from the catalogue.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Invoice, error) {
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionCreate, authz.ResourceInvoice, nil); err != nil {
		return Invoice{}, err
	}
	items, total, err := s.price(ctx, req.Items)
	if err != nil {
		return Invoice{}, err
	}
	inv := Invoice{
		AppointmentID: req.AppointmentID,
		Status:        StatusUnpaid,
		TotalCents:    total,
		IssuedAt:      s.now().UTC(),
		Items:         items,
	}
	id, err := s.repo.Create(ctx, inv)
	if err != nil {
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "create", "invoice", id, map[string]any{"total_cents": total, "items": len(items)})
	return s.repo.Get(ctx, id)
}

// Update re-prices an unpaid invoice or moves its status. Paid and
// cancelled invoices are final.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionUpdate, authz.ResourceInvoice, inv.Resource()); err != nil {
		return Invoice{}, err
	}
	if inv.Status != StatusUnpaid {
		return Invoice{}, fmt.Errorf("%w: invoice is %s", httpx.ErrConflict, inv.Status)
	}

	changed := make(map[string]any)
	replace := len(req.Items) > 0
	if replace {
		items, total, err := s.price(ctx, req.Items)
		if err != nil {
			return Invoice{}, err
		}
		inv.Items, inv.TotalCents = items, total
		changed["total_cents"] = total
	}
	if req.Status != nil && *req.Status != inv.Status {
		inv.Status = *req.Status
		changed["status"] = string(inv.Status)
		if inv.Status == StatusPaid {
			paid := s.now().UTC()
			inv.PaidAt = &paid
		}
	}
	if len(changed) == 0 {
		return inv, nil
	}

	if err := s.repo.Update(ctx, inv, replace); err != nil {
		return Invoice{}, fmt.Errorf("update invoice: %w", err)
	}
	activity.BestEffort(ctx, s.activity, "update", "invoice", id, changed)
	return s.repo.Get(ctx, id)
}

// Delete removes an invoice that has not been paid.
func (s *Service) Delete(ctx context.Context, id int64) error {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(authz.PrincipalFromContext(ctx), authz.ActionDelete, authz.ResourceInvoice, inv.Resource()); err != nil {
		return err
	}
	if inv.Status == StatusPaid {
		return fmt.Errorf("%w: paid invoices cannot be deleted", httpx.ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	activity.BestEffort(ctx, s.activity, "delete", "invoice", id, map[string]any{"number": inv.Number})
	return nil
}

func (s *Service) price(ctx context.Context, reqs []ItemRequest) ([]Item, int64, error) {
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ServiceID)
	}
	catalogue, err := s.repo.Services(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load services: %w", err)
	}
	return PriceItems(reqs, catalogue)
}

// PriceItems builds invoice lines from the catalogue and sums them.
func PriceItems(reqs []ItemRequest, catalogue map[int64]PricedService) ([]Item, int64, error) {
	if len(reqs) == 0 {
		return nil, 0, fmt.Errorf("%w: at least one item required", httpx.ErrValidation)
	}
	items := make([]Item, 0, len(reqs))
	var total int64
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, 0, fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
		}
		svc, ok := catalogue[r.ServiceID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: service %d is unknown or inactive", httpx.ErrValidation, r.ServiceID)
		}
		line := svc.PriceCents * int64(r.Quantity)
		items = append(items, Item{
			ServiceID:      svc.ID,
			Description:    svc.Name,
			Quantity:       r.Quantity,
			UnitPriceCents: svc.PriceCents,
			LineTotalCents: line,
		})
		total += line
	}
	return items, total, nil
}
