package templates

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medika/medika/internal/platform/db"
	"github.com/medika/medika/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get loads a template.
func (r *Repository) Get(ctx context.Context, id int64) (Template, error) {
	var t Template
	err := r.pool.QueryRow(ctx, `SELECT id, user_id, name, body, created_at, updated_at
		FROM medical_record_templates WHERE id = $1`, id).
		Scan(&t.ID, &t.UserID, &t.Name, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	if db.NoRows(err) {
		return Template{}, fmt.Errorf("%w: template %d", httpx.ErrNotFound, id)
	}
	return t, err
}

// ListByOwner returns the templates written by userID.
func (r *Repository) ListByOwner(ctx context.Context, userID int64) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, name, body, created_at, updated_at
		FROM medical_record_templates WHERE user_id = $1 ORDER BY name, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create inserts t.
func (r *Repository) Create(ctx context.Context, t Template) (Template, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO medical_record_templates (user_id, name, body)
		VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`, t.UserID, t.Name, t.Body).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return Template{}, fmt.Errorf("%w: template %q", httpx.ErrDuplicate, t.Name)
	}
	return t, err
}

// Update persists name and body.
func (r *Repository) Update(ctx context.Context, t Template) (Template, error) {
	err := r.pool.QueryRow(ctx, `UPDATE medical_record_templates SET name = $2, body = $3, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`, t.ID, t.Name, t.Body).Scan(&t.UpdatedAt)
	switch {
	case db.NoRows(err):
		return Template{}, fmt.Errorf("%w: template %d", httpx.ErrNotFound, t.ID)
	case db.IsUniqueViolation(err):
		return Template{}, fmt.Errorf("%w: template %q", httpx.ErrDuplicate, t.Name)
	}
	return t, err
}

// Delete removes a template. Records written from it keep their content.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medical_record_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: template %d", httpx.ErrNotFound, id)
	}
	return nil
}
