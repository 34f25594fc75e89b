package patients

import (
	"time"

	"github.com/medika/medika/internal/authz"
)

// Gender values accepted for a patient.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Patient is a registered clinic patient.
type Patient struct {
	ID        int64      `json:"id"`
	MRN       string     `json:"mrn"`
	Name      string     `json:"name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    string     `json:"gender"`
	Phone     string     `json:"phone,omitempty"`
	Address   string     `json:"address,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// DoctorIDs lists doctors holding an appointment with the patient.
	DoctorIDs []int64 `json:"-"`
}

// Resource returns the authorization descriptor of the patient.
func (p Patient) Resource() authz.Patient {
	return authz.Patient{ID: p.ID, DoctorIDs: p.DoctorIDs}
}

// CreateRequest is the payload of POST /patients.
type CreateRequest struct {
	Name      string `json:"name" validate:"required,max=150"`
	BirthDate string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender    string `json:"gender" validate:"required,oneof=male female"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	Address   string `json:"address" validate:"omitempty,max=500"`
}

// UpdateRequest is the payload of PUT /patients/{id}. Nil fields are kept.
type UpdateRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	BirthDate *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender    *string `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ListFilters narrows the patient listing.
type ListFilters struct {
	Search string
	// DoctorID restricts to patients with an appointment for that doctor.
	DoctorID *int64
}
