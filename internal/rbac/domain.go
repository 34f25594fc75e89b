package rbac

import (
	"errors"

	"github.com/medika/medika/internal/authz"
)

var (
	// ErrNotFound indicates that no account exists for the user id.
	ErrNotFound = errors.New("rbac: account not found")
	// ErrInactive indicates a deactivated account.
	ErrInactive = errors.New("rbac: account inactive")
)

// Account is the stored identity a principal is built from.
type Account struct {
	UserID   int64
	Role     string
	DoctorID *int64
	IsActive bool
}

// Principal converts the account. An unrecognised stored role yields a
// principal with the zero role, which no rule admits.
func (a Account) Principal() *authz.Principal {
	role, err := authz.ParseRole(a.Role)
	if err != nil {
		role = ""
	}
	p := &authz.Principal{ID: a.UserID, Role: role}
	if role == authz.RoleDoctor && a.DoctorID != nil {
		p.Doctor = &authz.DoctorProfile{ID: *a.DoctorID}
	}
	return p
}
