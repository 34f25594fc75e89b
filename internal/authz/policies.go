package authz

// DefaultPolicies returns the clinic's policy set, one entry per resource type.
func DefaultPolicies() []Policy {
	return []Policy{
		InvoicePolicy(),
		MedicalRecordTemplatePolicy(),
		PatientPolicy(),
		AppointmentPolicy(),
		ServicePolicy(),
		SettingPolicy(),
		UserPolicy(),
	}
}

// InvoicePolicy lets front-desk roles manage invoices. Doctors only see
// invoices whose appointment is theirs. Restore and force-delete are not
// defined.
func InvoicePolicy() Policy {
	frontDesk := allowRoles(true, false, true)
	return NewPolicy(ResourceInvoice, map[Action]Rule{
		ActionViewAny: frontDesk,
		ActionView:    forInstance(viewInvoice),
		ActionCreate:  frontDesk,
		ActionUpdate:  frontDesk,
		ActionDelete:  allowRoles(true, false, false),
	})
}

func viewInvoice(p Principal, inv Invoice) Decision {
	if p.Role == RoleDoctor {
		doctorID, ok := p.DoctorID()
		if !ok {
			return Deny("doctor profile not linked")
		}
		if inv.Appointment == nil {
			return Deny("invoice has no appointment")
		}
		if inv.Appointment.DoctorID != doctorID {
			return Deny("invoice belongs to another doctor")
		}
		return Allow()
	}
	if p.Role.Match(true, false, true) {
		return Allow()
	}
	return Deny("role " + p.Role.String() + " not permitted")
}

// MedicalRecordTemplatePolicy lets doctors list and create templates; owners
// edit and delete their own. There is no single-template view.
func MedicalRecordTemplatePolicy() Policy {
	doctors := allowRoles(false, true, false)
	owner := forInstance(ownsTemplate)
	return NewPolicy(ResourceMedicalRecordTemplate, map[Action]Rule{
		ActionViewAny:     doctors,
		ActionView:        denyAlways("templates have no detail view"),
		ActionCreate:      doctors,
		ActionUpdate:      owner,
		ActionDelete:      owner,
		ActionRestore:     denyAlways("templates cannot be restored"),
		ActionForceDelete: denyAlways("templates cannot be force deleted"),
	})
}

func ownsTemplate(p Principal, tpl MedicalRecordTemplate) Decision {
	if tpl.OwnerUserID != p.ID {
		return Deny("template owned by another user")
	}
	return Allow()
}

// PatientPolicy mirrors the manage-patients gate. Doctors may list patients
// (rows are filtered to their own) and open patients they attend.
func PatientPolicy() Policy {
	frontDesk := allowRoles(true, false, true)
	return NewPolicy(ResourcePatient, map[Action]Rule{
		ActionViewAny: allowRoles(true, true, true),
		ActionView: forInstance(func(p Principal, patient Patient) Decision {
			if doctorID, ok := p.DoctorID(); ok {
				if patient.AttendedBy(doctorID) {
					return Allow()
				}
				return Deny("patient not attended by doctor")
			}
			return frontDesk.Check(p, patient)
		}),
		ActionCreate: frontDesk,
		ActionUpdate: frontDesk,
		ActionDelete: allowRoles(true, false, false),
	})
}

// AppointmentPolicy mirrors the manage-appointments gate. Doctors may list
// and open their own appointments.
func AppointmentPolicy() Policy {
	frontDesk := allowRoles(true, false, true)
	return NewPolicy(ResourceAppointment, map[Action]Rule{
		ActionViewAny: allowRoles(true, true, true),
		ActionView: forInstance(func(p Principal, appt Appointment) Decision {
			if doctorID, ok := p.DoctorID(); ok {
				if appt.DoctorID == doctorID {
					return Allow()
				}
				return Deny("appointment belongs to another doctor")
			}
			return frontDesk.Check(p, appt)
		}),
		ActionCreate: frontDesk,
		ActionUpdate: frontDesk,
		ActionDelete: frontDesk,
	})
}

// ServicePolicy: every role reads the catalogue, only admins change it.
func ServicePolicy() Policy {
	everyone := allowRoles(true, true, true)
	admin := allowRoles(true, false, false)
	return NewPolicy(ResourceService, map[Action]Rule{
		ActionViewAny: everyone,
		ActionView:    everyone,
		ActionCreate:  admin,
		ActionUpdate:  admin,
		ActionDelete:  admin,
	})
}

// SettingPolicy: settings are a fixed key set, so there is no create or delete.
func SettingPolicy() Policy {
	admin := allowRoles(true, false, false)
	return NewPolicy(ResourceSetting, map[Action]Rule{
		ActionViewAny: admin,
		ActionView:    admin,
		ActionUpdate:  admin,
	})
}

// UserPolicy: admins manage accounts, everyone may view their own, nobody
// deletes themselves.
func UserPolicy() Policy {
	admin := allowRoles(true, false, false)
	return NewPolicy(ResourceUser, map[Action]Rule{
		ActionViewAny: admin,
		ActionView: forInstance(func(p Principal, u User) Decision {
			if u.ID == p.ID {
				return Allow()
			}
			return admin.Check(p, u)
		}),
		ActionCreate: admin,
		ActionUpdate: admin,
		ActionDelete: forInstance(func(p Principal, u User) Decision {
			if u.ID == p.ID {
				return Deny("users cannot delete themselves")
			}
			return admin.Check(p, u)
		}),
	})
}
