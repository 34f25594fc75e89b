package users

import (
	"time"

	"github.com/medika/medika/internal/authz"
)

// User is a staff account.
type User struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	IsActive  bool           `json:"is_active"`
	Doctor    *DoctorProfile `json:"doctor,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DoctorProfile is the clinical identity of a doctor account.
type DoctorProfile struct {
	ID             int64  `json:"id"`
	Specialization string `json:"specialization,omitempty"`
	LicenseNumber  string `json:"license_number,omitempty"`
}

// Doctor is the public listing entry used when booking.
type Doctor struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization,omitempty"`
}

// Resource returns the authorization descriptor of the user.
func (u User) Resource() authz.User {
	return authz.User{ID: u.ID}
}

// DoctorRequest carries doctor profile fields.
type DoctorRequest struct {
	Specialization string `json:"specialization" validate:"omitempty,max=100"`
	LicenseNumber  string `json:"license_number" validate:"omitempty,max=50"`
}

// CreateRequest is the payload of POST /users.
type CreateRequest struct {
	Name     string         `json:"name" validate:"required,max=150"`
	Email    string         `json:"email" validate:"required,email,max=150"`
	Password string         `json:"password" validate:"required,min=8,max=72"`
	Role     string         `json:"role" validate:"required,oneof=admin doctor receptionist"`
	Doctor   *DoctorRequest `json:"doctor,omitempty"`
}

// UpdateRequest is the payload of PUT /users/{id}. Nil fields are kept.
type UpdateRequest struct {
	Name     *string        `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Email    *string        `json:"email,omitempty" validate:"omitempty,email,max=150"`
	Password *string        `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role     *string        `json:"role,omitempty" validate:"omitempty,oneof=admin doctor receptionist"`
	IsActive *bool          `json:"is_active,omitempty"`
	Doctor   *DoctorRequest `json:"doctor,omitempty"`
}

// ListFilters narrows the user listing.
type ListFilters struct {
	Role string
}
