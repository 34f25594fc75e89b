package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the dashboard aggregates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) count(ctx context.Context, sql string, args ...any) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, sql, args...).Scan(&n)
	return n, err
}

// CountPatients counts registered patients.
func (r *Repository) CountPatients(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM patients`)
}

// CountAppointments counts appointments scheduled in the window's day.
func (r *Repository) CountAppointments(ctx context.Context, w Window) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM appointments WHERE scheduled_at >= $1 AND scheduled_at < $2 AND status <> 'cancelled'`, w.DayStart, w.DayEnd)
}

// CountUnpaidInvoices counts open invoices.
func (r *Repository) CountUnpaidInvoices(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM invoices WHERE status = 'unpaid'`)
}

// Revenue sums invoices paid in the window's month.
func (r *Repository) Revenue(ctx context.Context, w Window) (int64, error) {
	var cents int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total_cents), 0) FROM invoices
		WHERE status = 'paid' AND paid_at >= $1 AND paid_at < $2`, w.MonthStart, w.MonthEnd).Scan(&cents)
	return cents, err
}

// CountActiveDoctors counts doctor accounts that may log in.
func (r *Repository) CountActiveDoctors(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM doctors d JOIN users u ON u.id = d.user_id WHERE u.is_active`)
}

// Agenda returns a doctor's appointments for the window's day.
func (r *Repository) Agenda(ctx context.Context, doctorID int64, w Window) ([]Visit, error) {
	rows, err := r.pool.Query(ctx, `SELECT a.id, a.patient_id, p.name, s.name, a.scheduled_at, a.status
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN services s ON s.id = a.service_id
		WHERE a.doctor_id = $1 AND a.scheduled_at >= $2 AND a.scheduled_at < $3
		ORDER BY a.scheduled_at`, doctorID, w.DayStart, w.DayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.AppointmentID, &v.PatientID, &v.PatientName, &v.ServiceName, &v.ScheduledAt, &v.Status); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CountUpcoming counts a doctor's scheduled appointments after the day.
func (r *Repository) CountUpcoming(ctx context.Context, doctorID int64, w Window) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND status = 'scheduled' AND scheduled_at >= $2`, doctorID, w.DayEnd)
}

// CountPatientsSeen counts distinct patients a doctor has completed visits with.
func (r *Repository) CountPatientsSeen(ctx context.Context, doctorID int64) (int, error) {
	return r.count(ctx, `SELECT COUNT(DISTINCT patient_id) FROM appointments WHERE doctor_id = $1 AND status = 'completed'`, doctorID)
}

// CountCompleted counts a doctor's completed visits in the window's month.
func (r *Repository) CountCompleted(ctx context.Context, doctorID int64, w Window) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND status = 'completed'
		AND scheduled_at >= $2 AND scheduled_at < $3`, doctorID, w.MonthStart, w.MonthEnd)
}
