package patients

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

const patientColumns = `p.id, p.mrn, p.name, p.birth_date, p.gender, COALESCE(p.phone, ''), COALESCE(p.address, ''), p.created_at, p.updated_at,
	ARRAY(SELECT DISTINCT a.doctor_id FROM appointments a WHERE a.patient_id = p.id ORDER BY a.doctor_id)`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPatient(row pgx.Row) (Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.MRN, &p.Name, &p.BirthDate, &p.Gender, &p.Phone, &p.Address, &p.CreatedAt, &p.UpdatedAt, &p.DoctorIDs)
	return p, err
}

// Get loads a patient with its attending doctors.
func (r *Repository) Get(ctx context.Context, id int64) (Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients p WHERE p.id = $1`, id))
	if db.NoRows(err) {
		return Patient{}, fmt.Errorf("%w: patient %d", httpx.ErrNotFound, id)
	}
	return p, err
}

// List returns a page of patients ordered by name.
func (r *Repository) List(ctx context.Context, f ListFilters, page shared.Page) ([]Patient, int, error) {
	var conds []string
	var args []any
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, "(p.name ILIKE $1 OR p.mrn ILIKE $1)")
	}
	if f.DoctorID != nil {
		args = append(args, *f.DoctorID)
		conds = append(conds, "EXISTS (SELECT 1 FROM appointments a WHERE a.patient_id = p.id AND a.doctor_id = $"+strconv.Itoa(len(args))+")")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, page.PerPage, page.Offset())
	rows, err := r.pool.Query(ctx, `SELECT `+patientColumns+` FROM patients p`+where+
		` ORDER BY p.name, p.id LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

// Create inserts p and returns the stored row.
func (r *Repository) Create(ctx context.Context, p Patient) (Patient, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO patients (mrn, name, birth_date, gender, phone, address)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id, created_at, updated_at`,
		p.MRN, p.Name, p.BirthDate, p.Gender, p.Phone, p.Address).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return Patient{}, fmt.Errorf("%w: medical record number %s", httpx.ErrDuplicate, p.MRN)
	}
	return p, err
}

// Update persists the mutable fields of p.
func (r *Repository) Update(ctx context.Context, p Patient) (Patient, error) {
	err := r.pool.QueryRow(ctx, `UPDATE patients SET name = $2, birth_date = $3, gender = $4,
		phone = NULLIF($5, ''), address = NULLIF($6, ''), updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`,
		p.ID, p.Name, p.BirthDate, p.Gender, p.Phone, p.Address).Scan(&p.UpdatedAt)
	if db.NoRows(err) {
		return Patient{}, fmt.Errorf("%w: patient %d", httpx.ErrNotFound, p.ID)
	}
	return p, err
}

// Delete removes a patient without appointments or records.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: patient %d has appointments or records", httpx.ErrConflict, id)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: patient %d", httpx.ErrNotFound, id)
	}
	return nil
}
