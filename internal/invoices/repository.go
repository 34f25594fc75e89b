package invoices

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medika/medika/internal/platform/db"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

const selectInvoice = `SELECT i.id, i.number, i.appointment_id, a.doctor_id, COALESCE(p.name, ''),
	i.status, i.total_cents, i.issued_at, i.paid_at
	FROM invoices i
	LEFT JOIN appointments a ON a.id = i.appointment_id
	LEFT JOIN patients p ON p.id = a.patient_id`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.AppointmentID, &inv.DoctorID, &inv.PatientName,
		&inv.Status, &inv.TotalCents, &inv.IssuedAt, &inv.PaidAt)
	return inv, err
}

// Get loads an invoice with its items.
func (r *Repository) Get(ctx context.Context, id int64) (Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, selectInvoice+` WHERE i.id = $1`, id))
	if db.NoRows(err) {
		return Invoice{}, fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, id)
	}
	if err != nil {
		return Invoice{}, err
	}
	inv.Items, err = r.items(ctx, r.pool, id)
	return inv, err
}

func (r *Repository) items(ctx context.Context, q db.Querier, invoiceID int64) ([]Item, error) {
	rows, err := q.Query(ctx, `SELECT id, service_id, description, quantity, unit_price_cents, line_total_cents
		FROM invoice_items WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.ServiceID, &it.Description, &it.Quantity, &it.UnitPriceCents, &it.LineTotalCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// List returns invoice headers, newest first.
func (r *Repository) List(ctx context.Context, f ListFilters, page shared.Page) ([]Invoice, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices i WHERE $1 = '' OR i.status = $1`, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, selectInvoice+` WHERE $1 = '' OR i.status = $1
		ORDER BY i.issued_at DESC, i.id DESC LIMIT $2 OFFSET $3`, string(f.Status), page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

// Services returns the active catalogue entries among ids.
func (r *Repository) Services(ctx context.Context, ids []int64) (map[int64]PricedService, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, price_cents FROM services WHERE id = ANY($1) AND is_active`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64]PricedService, len(ids))
	for rows.Next() {
		var s PricedService
		if err := rows.Scan(&s.ID, &s.Name, &s.PriceCents); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

// Create inserts inv and its items in one transaction. The number is drawn
// from invoice_number_seq.
func (r *Repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO invoices (appointment_id, number, status, total_cents, issued_at)
			VALUES ($1, 'INV-' || to_char($3::timestamptz, 'YYYYMM') || '-' || lpad(nextval('invoice_number_seq')::text, 6, '0'), $2, $4, $3)
			RETURNING id`,
			inv.AppointmentID, string(inv.Status), inv.IssuedAt, inv.TotalCents).Scan(&id)
		switch {
		case db.IsUniqueViolation(err):
			return fmt.Errorf("%w: appointment already invoiced", httpx.ErrConflict)
		case db.IsForeignKeyViolation(err):
			return fmt.Errorf("%w: unknown appointment", httpx.ErrValidation)
		case err != nil:
			return err
		}
		return insertItems(ctx, tx, id, inv.Items)
	})
	return id, err
}

// Update persists status, total and, when replaceItems is set, the lines.
func (r *Repository) Update(ctx context.Context, inv Invoice, replaceItems bool) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE invoices SET status = $2, total_cents = $3, paid_at = $4 WHERE id = $1`,
			inv.ID, string(inv.Status), inv.TotalCents, inv.PaidAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, inv.ID)
		}
		if !replaceItems {
			return nil
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, inv.ID); err != nil {
			return err
		}
		return insertItems(ctx, tx, inv.ID, inv.Items)
	})
}

// Delete removes an invoice and its items.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, id)
		}
		return nil
	})
}

func insertItems(ctx context.Context, tx pgx.Tx, invoiceID int64, items []Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`INSERT INTO invoice_items (invoice_id, service_id, description, quantity, unit_price_cents, line_total_cents)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			invoiceID, it.ServiceID, it.Description, it.Quantity, it.UnitPriceCents, it.LineTotalCents)
	}
	return tx.SendBatch(ctx, batch).Close()
}
