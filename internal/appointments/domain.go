package appointments

import (
	"time"

	"github.com/medika/medika/internal/authz"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// CanTransition reports whether s may move to next. Only scheduled
// appointments move, and only forward.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	return s == StatusScheduled && (next == StatusCompleted || next == StatusCancelled)
}

// Appointment books a patient with a doctor for a clinic service.
type Appointment struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name,omitempty"`
	DoctorID    int64     `json:"doctor_id"`
	DoctorName  string    `json:"doctor_name,omitempty"`
	ServiceID   int64     `json:"service_id"`
	ServiceName string    `json:"service_name,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Resource returns the authorization descriptor of the appointment.
func (a Appointment) Resource() authz.Appointment {
	return authz.Appointment{ID: a.ID, PatientID: a.PatientID, DoctorID: a.DoctorID}
}

// CreateRequest is the payload of POST /appointments.
type CreateRequest struct {
	PatientID   int64     `json:"patient_id" validate:"required,gt=0"`
	DoctorID    int64     `json:"doctor_id" validate:"required,gt=0"`
	ServiceID   int64     `json:"service_id" validate:"required,gt=0"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Notes       string    `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateRequest is the payload of PUT /appointments/{id}. Nil fields are kept.
type UpdateRequest struct {
	DoctorID    *int64     `json:"doctor_id,omitempty" validate:"omitempty,gt=0"`
	ServiceID   *int64     `json:"service_id,omitempty" validate:"omitempty,gt=0"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Status      *Status    `json:"status,omitempty" validate:"omitempty,oneof=scheduled completed cancelled"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ListFilters narrows the appointment listing.
type ListFilters struct {
	DoctorID  *int64
	PatientID *int64
	Status    Status
	// Date selects appointments on one calendar day.
	Date time.Time
}
