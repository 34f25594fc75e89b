package records

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores rec.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO medical_records (patient_id, doctor_id, template_id, content)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		rec.PatientID, rec.DoctorID, rec.TemplateID, rec.Content).Scan(&rec.ID, &rec.CreatedAt)
	return rec, err
}

// ListByPatient returns a patient's records, newest first.
func (r *Repository) ListByPatient(ctx context.Context, patientID int64) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, patient_id, doctor_id, template_id, content, created_at
		FROM medical_records WHERE patient_id = $1 ORDER BY created_at DESC, id DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.TemplateID, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
