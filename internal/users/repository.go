package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medika/medika/internal/platform/db"
	"github.com/medika/medika/internal/platform/httpx"
	"github.com/medika/medika/internal/shared"
)

const selectUser = `SELECT u.id, u.name, u.email, u.role, u.is_active, u.created_at, u.updated_at,
	d.id, COALESCE(d.specialization, ''), COALESCE(d.license_number, '')
	FROM users u LEFT JOIN doctors d ON d.user_id = u.id`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	var doctorID *int64
	var specialization, license string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt, &doctorID, &specialization, &license); err != nil {
		return User{}, err
	}
	if doctorID != nil {
		u.Doctor = &DoctorProfile{ID: *doctorID, Specialization: specialization, LicenseNumber: license}
	}
	return u, nil
}

// Get loads a user with its doctor profile.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
	if db.NoRows(err) {
		return User{}, fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
	}
	return u, err
}

// List returns users ordered by name.
func (r *Repository) List(ctx context.Context, f ListFilters, page shared.Page) ([]User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE $1 = '' OR role = $1`, f.Role).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, selectUser+` WHERE $1 = '' OR u.role = $1 ORDER BY u.name, u.id LIMIT $2 OFFSET $3`,
		f.Role, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// Doctors lists active doctors with a profile.
func (r *Repository) Doctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `SELECT d.id, u.id, u.name, COALESCE(d.specialization, '')
		FROM doctors d JOIN users u ON u.id = d.user_id
		WHERE u.is_active AND u.role = 'doctor' ORDER BY u.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Specialization); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create inserts u with passwordHash. Doctors get their profile in the same
// transaction.
func (r *Repository) Create(ctx context.Context, u User, passwordHash string) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, role, is_active)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			u.Name, strings.ToLower(u.Email), passwordHash, u.Role, u.IsActive).Scan(&id)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email %s already registered", httpx.ErrDuplicate, u.Email)
		}
		if err != nil {
			return err
		}
		if u.Doctor != nil {
			return upsertDoctor(ctx, tx, id, *u.Doctor)
		}
		return nil
	})
	return id, err
}

// Update persists u. passwordHash is only written when non-empty. A nil
// Doctor removes the profile.
func (r *Repository) Update(ctx context.Context, u User, passwordHash string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE users SET name = $2, email = $3, role = $4, is_active = $5,
			password_hash = COALESCE(NULLIF($6, ''), password_hash), updated_at = NOW() WHERE id = $1`,
			u.ID, u.Name, strings.ToLower(u.Email), u.Role, u.IsActive, passwordHash)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email %s already registered", httpx.ErrDuplicate, u.Email)
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: user %d", httpx.ErrNotFound, u.ID)
		}
		if u.Doctor != nil {
			return upsertDoctor(ctx, tx, u.ID, *u.Doctor)
		}
		_, err = tx.Exec(ctx, `DELETE FROM doctors WHERE user_id = $1`, u.ID)
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: doctor still has appointments", httpx.ErrConflict)
		}
		return err
	})
}

// Delete removes a user and its doctor profile.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM doctors WHERE user_id = $1`, id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: doctor still has appointments, deactivate instead", httpx.ErrConflict)
			}
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: user is referenced, deactivate instead", httpx.ErrConflict)
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
		}
		return nil
	})
}

func upsertDoctor(ctx context.Context, tx pgx.Tx, userID int64, d DoctorProfile) error {
	_, err := tx.Exec(ctx, `INSERT INTO doctors (user_id, specialization, license_number)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		ON CONFLICT (user_id) DO UPDATE SET specialization = EXCLUDED.specialization, license_number = EXCLUDED.license_number`,
		userID, d.Specialization, d.LicenseNumber)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: license number %s already registered", httpx.ErrDuplicate, d.LicenseNumber)
	}
	return err
}
