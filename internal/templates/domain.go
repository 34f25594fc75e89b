package templates

import (
	"time"

	"github.com/medika/medika/internal/authz"
)

// Template is a doctor's reusable medical record skeleton.
type Template struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resource returns the authorization descriptor of the template.
func (t Template) Resource() authz.MedicalRecordTemplate {
	return authz.MedicalRecordTemplate{ID: t.ID, OwnerUserID: t.UserID}
}

// CreateRequest is the payload of POST /medical-record-templates.
type CreateRequest struct {
	Name string `json:"name" validate:"required,max=150"`
	Body string `json:"body" validate:"required,max=20000"`
}

// UpdateRequest is the payload of PUT /medical-record-templates/{id}.
type UpdateRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Body *string `json:"body,omitempty" validate:"omitempty,min=1,max=20000"`
}
