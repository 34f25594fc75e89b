package invoices

import (
	"time"

	"github.com/medika/medika/internal/authz"
)

// Status is the payment state of an invoice.
type Status string

const (
	StatusUnpaid    Status = "unpaid"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Invoice bills an appointment, or a walk-in when AppointmentID is nil.
type Invoice struct {
	ID            int64      `json:"id"`
	Number        string     `json:"number"`
	AppointmentID *int64     `json:"appointment_id,omitempty"`
	DoctorID      *int64     `json:"doctor_id,omitempty"`
	PatientName   string     `json:"patient_name,omitempty"`
	Status        Status     `json:"status"`
	TotalCents    int64      `json:"total_cents"`
	IssuedAt      time.Time  `json:"issued_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	Items         []Item     `json:"items"`
}

// Item is one billed line.
type Item struct {
	ID             int64  `json:"id"`
	ServiceID      int64  `json:"service_id"`
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// Resource returns the authorization descriptor of the invoice. The doctor
// is reached through the billed appointment.
func (inv Invoice) Resource() authz.Invoice {
	out := authz.Invoice{ID: inv.ID}
	if inv.AppointmentID != nil {
		ref := &authz.AppointmentRef{ID: *inv.AppointmentID}
		if inv.DoctorID != nil {
			ref.DoctorID = *inv.DoctorID
		}
		out.Appointment = ref
	}
	return out
}

// PricedService is the catalogue data needed to bill a line.
type PricedService struct {
	ID         int64
	Name       string
	PriceCents int64
}

// ItemRequest asks for quantity units of a service.
type ItemRequest struct {
	ServiceID int64 `json:"service_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=1000"`
}

// CreateRequest is the payload of POST /invoices.
type CreateRequest struct {
	AppointmentID *int64        `json:"appointment_id,omitempty" validate:"omitempty,gt=0"`
	Items         []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateRequest is the payload of PUT /invoices/{id}. Items replace the
// existing lines of an unpaid invoice.
type UpdateRequest struct {
	Status *Status       `json:"status,omitempty" validate:"omitempty,oneof=unpaid paid cancelled"`
	Items  []ItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// ListFilters narrows the invoice listing.
type ListFilters struct {
	Status Status
}
