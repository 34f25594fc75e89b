package records

import "time"

// Record is one clinical note written by a doctor for a patient.
type Record struct {
	ID         int64     `json:"id"`
	PatientID  int64     `json:"patient_id"`
	DoctorID   int64     `json:"doctor_id"`
	TemplateID *int64    `json:"template_id,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// AddRequest is the payload of POST /patients/{id}/medical-records. Content
// defaults to the template body when empty.
type AddRequest struct {
	TemplateID *int64 `json:"template_id,omitempty" validate:"omitempty,gt=0"`
	Content    string `json:"content" validate:"required_without=TemplateID,max=20000"`
}
