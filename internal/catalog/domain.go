package catalog

import (
	"time"

	"github.com/medika/medika/internal/authz"
)

// Service is a billable clinic service.
type Service struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	PriceCents      int64     `json:"price_cents"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Resource returns the authorization descriptor of the service.
func (s Service) Resource() authz.Service {
	return authz.Service{ID: s.ID}
}

// CreateRequest is the payload of POST /services.
type CreateRequest struct {
	Name            string `json:"name" validate:"required,max=150"`
	Description     string `json:"description" validate:"omitempty,max=1000"`
	PriceCents      int64  `json:"price_cents" validate:"gte=0"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0,lte=480"`
}

// UpdateRequest is the payload of PUT /services/{id}.
type UpdateRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	PriceCents      *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	DurationMinutes *int    `json:"duration_minutes,omitempty" validate:"omitempty,gt=0,lte=480"`
	IsActive        *bool   `json:"is_active,omitempty"`
}
