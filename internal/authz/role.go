package authz

import (
	"errors"
	"strings"
)

// ErrInvalidRole is returned by ParseRole for values outside the closed role set.
var ErrInvalidRole = errors.New("authz: invalid role")

// Role is the closed set of staff roles known to the clinic.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

// Roles lists every valid role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleDoctor, RoleReceptionist}
}

// ParseRole normalises a stored role name. Unknown or empty values return the
// zero Role together with ErrInvalidRole; the zero Role matches no rule.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r.Match(true, true, true)
}

// Match selects the flag that belongs to r. Every role-set rule goes through
// Match so that adding a role changes this signature and breaks each caller
// until it decides what the new role may do. Invalid roles always get false.
func (r Role) Match(admin, doctor, receptionist bool) bool {
	switch r {
	case RoleAdmin:
		return admin
	case RoleDoctor:
		return doctor
	case RoleReceptionist:
		return receptionist
	default:
		return false
	}
}

func (r Role) String() string {
	if r == "" {
		return "invalid"
	}
	return string(r)
}
