package authz

// Action names one question a policy can answer.
type Action string

const (
	ActionViewAny     Action = "view-any"
	ActionView        Action = "view"
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionRestore     Action = "restore"
	ActionForceDelete Action = "force-delete"
)

// Actions lists the fixed policy vocabulary.
func Actions() []Action {
	return []Action{
		ActionViewAny,
		ActionView,
		ActionCreate,
		ActionUpdate,
		ActionDelete,
		ActionRestore,
		ActionForceDelete,
	}
}

// ResourceType tags a protected entity kind.
type ResourceType string

const (
	ResourceInvoice               ResourceType = "invoice"
	ResourceMedicalRecordTemplate ResourceType = "medical-record-template"
	ResourcePatient               ResourceType = "patient"
	ResourceAppointment           ResourceType = "appointment"
	ResourceService               ResourceType = "service"
	ResourceSetting               ResourceType = "setting"
	ResourceUser                  ResourceType = "user"
)

// ResourceTypes lists every protected resource type.
func ResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceInvoice,
		ResourceMedicalRecordTemplate,
		ResourcePatient,
		ResourceAppointment,
		ResourceService,
		ResourceSetting,
		ResourceUser,
	}
}
