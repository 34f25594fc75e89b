package dashboard

import "time"

// AdminSummary is the clinic-wide overview.
type AdminSummary struct {
	Patients          int   `json:"patients"`
	AppointmentsToday int   `json:"appointments_today"`
	UnpaidInvoices    int   `json:"unpaid_invoices"`
	RevenueMonthCents int64 `json:"revenue_month_cents"`
	ActiveDoctors     int   `json:"active_doctors"`
}

// Visit is one appointment on a doctor's agenda.
type Visit struct {
	AppointmentID int64     `json:"appointment_id"`
	PatientID     int64     `json:"patient_id"`
	PatientName   string    `json:"patient_name"`
	ServiceName   string    `json:"service_name"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Status        string    `json:"status"`
}

// DoctorSummary is a doctor's own day.
type DoctorSummary struct {
	Today          []Visit `json:"today"`
	Upcoming       int     `json:"upcoming"`
	PatientsSeen   int     `json:"patients_seen"`
	CompletedMonth int     `json:"completed_month"`
}

// Window is the set of day and month boundaries the queries use.
type Window struct {
	DayStart   time.Time
	DayEnd     time.Time
	MonthStart time.Time
	MonthEnd   time.Time
}

// WindowAt returns the boundaries of the day and month containing t in loc.
func WindowAt(t time.Time, loc *time.Location) Window {
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	month := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return Window{DayStart: day, DayEnd: day.AddDate(0, 0, 1), MonthStart: month, MonthEnd: month.AddDate(0, 1, 0)}
}
