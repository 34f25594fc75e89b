package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func admin(id int64) *Principal        { return &Principal{ID: id, Role: RoleAdmin} }
func receptionist(id int64) *Principal { return &Principal{ID: id, Role: RoleReceptionist} }
func doctor(id, doctorID int64) *Principal {
	return &Principal{ID: id, Role: RoleDoctor, Doctor: &DoctorProfile{ID: doctorID}}
}

func allPrincipals() []*Principal {
	return []*Principal{
		admin(1),
		receptionist(2),
		doctor(3, 30),
		doctor(4, 40),
		{ID: 5, Role: RoleDoctor},
		{ID: 6, Role: ""},
		{ID: 7, Role: Role("nurse")},
	}
}

func TestInvoiceDeleteOnlyAdmin(t *testing.T) {
	r := New()
	inv := Invoice{ID: 1, Appointment: &AppointmentRef{ID: 1, DoctorID: 30}}
	for _, p := range allPrincipals() {
		got := r.Authorize(p, ActionDelete, ResourceInvoice, inv)
		if p.Role == RoleAdmin {
			assert.NoError(t, got, "role %s", p.Role)
			continue
		}
		assert.ErrorIs(t, got, ErrUnauthorized, "role %s", p.Role)
	}
}

func TestInvoiceViewDoctorScopedToOwnAppointments(t *testing.T) {
	r := New()
	p := doctor(7, 3)

	own := Invoice{ID: 10, Appointment: &AppointmentRef{ID: 1, DoctorID: 3}}
	other := Invoice{ID: 11, Appointment: &AppointmentRef{ID: 2, DoctorID: 9}}
	orphan := Invoice{ID: 12}

	assert.True(t, r.Decide(p, ActionView, ResourceInvoice, own).Allowed)
	assert.False(t, r.Decide(p, ActionView, ResourceInvoice, other).Allowed)
	assert.False(t, r.Decide(p, ActionView, ResourceInvoice, orphan).Allowed)
	assert.True(t, r.Decide(p, ActionView, ResourceInvoice, &own).Allowed, "pointer instances are accepted")
}

func TestInvoiceViewFrontDeskUnconditional(t *testing.T) {
	r := New()
	inv := Invoice{ID: 10, Appointment: &AppointmentRef{ID: 1, DoctorID: 99}}
	assert.NoError(t, r.Authorize(admin(1), ActionView, ResourceInvoice, inv))
	assert.NoError(t, r.Authorize(receptionist(2), ActionView, ResourceInvoice, inv))
	assert.NoError(t, r.Authorize(receptionist(2), ActionView, ResourceInvoice, Invoice{ID: 3}))
}

func TestInvoiceViewDoctorWithoutProfile(t *testing.T) {
	r := New()
	p := &Principal{ID: 5, Role: RoleDoctor}
	inv := Invoice{ID: 1, Appointment: &AppointmentRef{ID: 1, DoctorID: 0}}
	assert.ErrorIs(t, r.Authorize(p, ActionView, ResourceInvoice, inv), ErrUnauthorized)
}

func TestInvoiceClassActions(t *testing.T) {
	r := New()
	for _, action := range []Action{ActionViewAny, ActionCreate, ActionUpdate} {
		assert.NoError(t, r.Authorize(admin(1), action, ResourceInvoice, nil), action)
		assert.NoError(t, r.Authorize(receptionist(2), action, ResourceInvoice, nil), action)
		assert.ErrorIs(t, r.Authorize(doctor(3, 30), action, ResourceInvoice, nil), ErrUnauthorized, action)
	}
}

func TestInvoiceRestoreAndForceDeleteUndefined(t *testing.T) {
	r := New()
	for _, action := range []Action{ActionRestore, ActionForceDelete} {
		d := r.Decide(admin(1), action, ResourceInvoice, Invoice{ID: 1})
		assert.False(t, d.Allowed)
		assert.Equal(t, KindUnknownPolicy, d.Kind)
	}
}

func TestTemplateViewAlwaysDenied(t *testing.T) {
	r := New()
	for _, p := range allPrincipals() {
		owned := MedicalRecordTemplate{ID: 1, OwnerUserID: p.ID}
		d := r.Decide(p, ActionView, ResourceMedicalRecordTemplate, owned)
		assert.False(t, d.Allowed, "role %s", p.Role)
		assert.Equal(t, KindUnauthorized, d.Kind)
	}
}

func TestTemplateUpdateDeleteOwnershipOnly(t *testing.T) {
	r := New()
	for _, p := range allPrincipals() {
		for _, owner := range []int64{1, 2, 3, 4, 5, 6, 7, 99} {
			tpl := MedicalRecordTemplate{ID: 1, OwnerUserID: owner}
			for _, action := range []Action{ActionUpdate, ActionDelete} {
				got := r.Decide(p, action, ResourceMedicalRecordTemplate, tpl).Allowed
				assert.Equal(t, p.ID == owner, got, "principal %d owner %d %s", p.ID, owner, action)
			}
		}
	}
}

func TestTemplateAdminScenario(t *testing.T) {
	r := New()
	p := admin(1)
	assert.ErrorIs(t, r.Authorize(p, ActionCreate, ResourceMedicalRecordTemplate, nil), ErrUnauthorized)
	assert.ErrorIs(t, r.Authorize(p, ActionDelete, ResourceMedicalRecordTemplate, MedicalRecordTemplate{ID: 4, OwnerUserID: 8}), ErrUnauthorized)
	assert.NoError(t, r.Authorize(p, ActionDelete, ResourceMedicalRecordTemplate, MedicalRecordTemplate{ID: 5, OwnerUserID: 1}))
}

func TestTemplateDoctorListAndCreate(t *testing.T) {
	r := New()
	for _, action := range []Action{ActionViewAny, ActionCreate} {
		assert.NoError(t, r.Authorize(doctor(3, 30), action, ResourceMedicalRecordTemplate, nil))
		assert.Error(t, r.Authorize(receptionist(2), action, ResourceMedicalRecordTemplate, nil))
	}
	for _, action := range []Action{ActionRestore, ActionForceDelete} {
		d := r.Decide(doctor(3, 30), action, ResourceMedicalRecordTemplate, MedicalRecordTemplate{ID: 1, OwnerUserID: 3})
		assert.Equal(t, KindUnauthorized, d.Kind)
	}
}

func TestTemplateOwnershipRequiresInstance(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Authorize(doctor(3, 30), ActionUpdate, ResourceMedicalRecordTemplate, nil), ErrUnauthorized)
	assert.ErrorIs(t, r.Authorize(doctor(3, 30), ActionUpdate, ResourceMedicalRecordTemplate, Invoice{ID: 1}), ErrUnauthorized)
}

func TestInstanceRulesAcceptPointers(t *testing.T) {
	r := New()
	p := doctor(3, 30)
	tpl := &MedicalRecordTemplate{ID: 1, OwnerUserID: 3}
	assert.NoError(t, r.Authorize(p, ActionUpdate, ResourceMedicalRecordTemplate, tpl))

	inv := &Invoice{ID: 2, Appointment: &AppointmentRef{ID: 1, DoctorID: 30}}
	assert.NoError(t, r.Authorize(p, ActionView, ResourceInvoice, inv))

	var missing *MedicalRecordTemplate
	assert.ErrorIs(t, r.Authorize(p, ActionUpdate, ResourceMedicalRecordTemplate, missing), ErrUnauthorized)
}

func TestPatientPolicy(t *testing.T) {
	r := New()
	patient := Patient{ID: 1, DoctorIDs: []int64{30}}

	assert.NoError(t, r.Authorize(doctor(3, 30), ActionView, ResourcePatient, patient))
	assert.Error(t, r.Authorize(doctor(4, 40), ActionView, ResourcePatient, patient))
	assert.NoError(t, r.Authorize(receptionist(2), ActionView, ResourcePatient, patient))
	assert.NoError(t, r.Authorize(doctor(4, 40), ActionViewAny, ResourcePatient, nil))
	assert.Error(t, r.Authorize(doctor(3, 30), ActionUpdate, ResourcePatient, patient))
	assert.Error(t, r.Authorize(receptionist(2), ActionDelete, ResourcePatient, patient))
	assert.NoError(t, r.Authorize(admin(1), ActionDelete, ResourcePatient, patient))
}

func TestAppointmentPolicy(t *testing.T) {
	r := New()
	appt := Appointment{ID: 1, PatientID: 2, DoctorID: 30}

	assert.NoError(t, r.Authorize(doctor(3, 30), ActionView, ResourceAppointment, appt))
	assert.Error(t, r.Authorize(doctor(4, 40), ActionView, ResourceAppointment, appt))
	assert.NoError(t, r.Authorize(receptionist(2), ActionDelete, ResourceAppointment, appt))
	assert.Error(t, r.Authorize(doctor(3, 30), ActionCreate, ResourceAppointment, nil))
}

func TestUserPolicy(t *testing.T) {
	r := New()
	assert.NoError(t, r.Authorize(doctor(3, 30), ActionView, ResourceUser, User{ID: 3}))
	assert.Error(t, r.Authorize(doctor(3, 30), ActionView, ResourceUser, User{ID: 4}))
	assert.NoError(t, r.Authorize(admin(1), ActionDelete, ResourceUser, User{ID: 4}))
	assert.Error(t, r.Authorize(admin(1), ActionDelete, ResourceUser, User{ID: 1}))
}

func TestInvalidRoleDeniedByRoleRules(t *testing.T) {
	r := New()
	for _, p := range []*Principal{{ID: 6}, {ID: 7, Role: Role("nurse")}} {
		for _, rt := range ResourceTypes() {
			assert.False(t, r.Decide(p, ActionViewAny, rt, nil).Allowed, "%s %s", p.Role, rt)
		}
		for _, c := range r.Gates().Capabilities() {
			assert.False(t, r.Can(p, c))
		}
	}
}
