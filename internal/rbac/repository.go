package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountStore loads accounts by user id.
type AccountStore interface {
	AccountByUserID(ctx context.Context, userID int64) (Account, error)
}

// PGAccountStore reads accounts from users and doctors.
type PGAccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore constructs a PostgreSQL account store.
func NewAccountStore(pool *pgxpool.Pool) *PGAccountStore {
	return &PGAccountStore{pool: pool}
}

// AccountByUserID returns ErrNotFound when the user does not exist.
func (s *PGAccountStore) AccountByUserID(ctx context.Context, userID int64) (Account, error) {
	const query = `SELECT u.id, u.role, d.id, u.is_active
		FROM users u
		LEFT JOIN doctors d ON d.user_id = u.id
		WHERE u.id = $1`
	var acc Account
	err := s.pool.QueryRow(ctx, query, userID).Scan(&acc.UserID, &acc.Role, &acc.DoctorID, &acc.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return acc, nil
}

var _ AccountStore = (*PGAccountStore)(nil)
