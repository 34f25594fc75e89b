package authz

import "slices"

// Resource is a resolved instance handed to instance-level rules. It carries
// only the fields the rules read.
type Resource interface {
	ResourceType() ResourceType
}

// AppointmentRef is the slice of an appointment an invoice needs.
type AppointmentRef struct {
	ID       int64
	DoctorID int64
}

// Invoice reaches its doctor through the appointment it bills.
type Invoice struct {
	ID          int64
	Appointment *AppointmentRef
}

func (Invoice) ResourceType() ResourceType { return ResourceInvoice }

// MedicalRecordTemplate is owned by the user who wrote it.
type MedicalRecordTemplate struct {
	ID          int64
	OwnerUserID int64
}

func (MedicalRecordTemplate) ResourceType() ResourceType { return ResourceMedicalRecordTemplate }

// Patient lists the doctors that hold an appointment with the patient.
type Patient struct {
	ID        int64
	DoctorIDs []int64
}

func (Patient) ResourceType() ResourceType { return ResourcePatient }

// AttendedBy reports whether doctorID appears in the patient's doctors.
func (p Patient) AttendedBy(doctorID int64) bool {
	return slices.Contains(p.DoctorIDs, doctorID)
}

type Appointment struct {
	ID        int64
	PatientID int64
	DoctorID  int64
}

func (Appointment) ResourceType() ResourceType { return ResourceAppointment }

type Service struct {
	ID int64
}

func (Service) ResourceType() ResourceType { return ResourceService }

type Setting struct {
	Key string
}

func (Setting) ResourceType() ResourceType { return ResourceSetting }

type User struct {
	ID int64
}

func (User) ResourceType() ResourceType { return ResourceUser }
