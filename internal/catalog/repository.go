package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medika/medika/internal/platform/db"
	"github.com/medika/medika/internal/platform/httpx"
)

const serviceColumns = `id, name, COALESCE(description, ''), price_cents, duration_minutes, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanService(row pgx.Row) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.PriceCents, &s.DurationMinutes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Get loads a service.
func (r *Repository) Get(ctx context.Context, id int64) (Service, error) {
	s, err := scanService(r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id))
	if db.NoRows(err) {
		return Service{}, fmt.Errorf("%w: service %d", httpx.ErrNotFound, id)
	}
	return s, err
}

// List returns services by name. Inactive ones are skipped unless asked for.
func (r *Repository) List(ctx context.Context, includeInactive bool) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+serviceColumns+` FROM services WHERE $1 OR is_active ORDER BY name`, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts s.
func (r *Repository) Create(ctx context.Context, s Service) (Service, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO services (name, description, price_cents, duration_minutes, is_active)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5) RETURNING id, created_at, updated_at`,
		s.Name, s.Description, s.PriceCents, s.DurationMinutes, s.IsActive).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return Service{}, fmt.Errorf("%w: service %q", httpx.ErrDuplicate, s.Name)
	}
	return s, err
}

// Update persists the mutable fields of s.
func (r *Repository) Update(ctx context.Context, s Service) (Service, error) {
	err := r.pool.QueryRow(ctx, `UPDATE services SET name = $2, description = NULLIF($3, ''), price_cents = $4,
		duration_minutes = $5, is_active = $6, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		s.ID, s.Name, s.Description, s.PriceCents, s.DurationMinutes, s.IsActive).Scan(&s.UpdatedAt)
	switch {
	case db.NoRows(err):
		return Service{}, fmt.Errorf("%w: service %d", httpx.ErrNotFound, s.ID)
	case db.IsUniqueViolation(err):
		return Service{}, fmt.Errorf("%w: service %q", httpx.ErrDuplicate, s.Name)
	}
	return s, err
}

// Delete removes a service that no appointment or invoice references.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: service %d is in use, deactivate it instead", httpx.ErrConflict, id)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: service %d", httpx.ErrNotFound, id)
	}
	return nil
}
