package appointments

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medika/medika/internal/platform/db"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

const selectAppointment = `SELECT a.id, a.patient_id, p.name, a.doctor_id, u.name, a.service_id, s.name,
	a.scheduled_at, a.status, COALESCE(a.notes, ''), a.created_at, a.updated_at
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN doctors d ON d.id = a.doctor_id
	JOIN users u ON u.id = d.user_id
	JOIN services s ON s.id = a.service_id`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.DoctorName, &a.ServiceID, &a.ServiceName,
		&a.ScheduledAt, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Get loads one appointment.
func (r *Repository) Get(ctx context.Context, id int64) (Appointment, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx, selectAppointment+` WHERE a.id = $1`, id))
	if db.NoRows(err) {
		return Appointment{}, fmt.Errorf("%w: appointment %d", httpx.ErrNotFound, id)
	}
	return a, err
}

// List returns appointments ordered by schedule, newest first.
func (r *Repository) List(ctx context.Context, f ListFilters, page shared.Page) ([]Appointment, int, error) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, cond+" $"+strconv.Itoa(len(args)))
	}
	if f.DoctorID != nil {
		add("a.doctor_id =", *f.DoctorID)
	}
	if f.PatientID != nil {
		add("a.patient_id =", *f.PatientID)
	}
	if f.Status != "" {
		add("a.status =", string(f.Status))
	}
	if !f.Date.IsZero() {
		add("a.scheduled_at >=", f.Date)
		add("a.scheduled_at <", f.Date.AddDate(0, 0, 1))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments a`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx, selectAppointment+where+
		` ORDER BY a.scheduled_at DESC, a.id DESC LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// Create inserts a and returns its id.
func (r *Repository) Create(ctx context.Context, a Appointment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO appointments (patient_id, doctor_id, service_id, scheduled_at, status, notes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')) RETURNING id`,
		a.PatientID, a.DoctorID, a.ServiceID, a.ScheduledAt, string(a.Status), a.Notes).Scan(&id)
	return id, translate(err)
}

// Update persists the mutable fields of a.
func (r *Repository) Update(ctx context.Context, a Appointment) error {
	tag, err := r.pool.Exec(ctx, `UPDATE appointments SET doctor_id = $2, service_id = $3, scheduled_at = $4,
		status = $5, notes = NULLIF($6, ''), updated_at = NOW() WHERE id = $1`,
		a.ID, a.DoctorID, a.ServiceID, a.ScheduledAt, string(a.Status), a.Notes)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: appointment %d", httpx.ErrNotFound, a.ID)
	}
	return nil
}

// Delete removes an appointment that is not invoiced.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: appointment %d is invoiced", httpx.ErrConflict, id)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: appointment %d", httpx.ErrNotFound, id)
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: doctor already booked at that time", httpx.ErrConflict)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: unknown patient, doctor or service", httpx.ErrValidation)
	default:
		return err
	}
}
