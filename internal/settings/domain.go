package settings

import "time"

// Keys are the only settings the clinic stores.
const (
	KeyClinicName    = "clinic_name"
	KeyClinicAddress = "clinic_address"
	KeyClinicPhone   = "clinic_phone"
	KeyInvoiceFooter = "invoice_footer"
	KeyTimezone      = "timezone"
)

// Keys lists the known setting keys in display order.
func Keys() []string {
	return []string{KeyClinicName, KeyClinicAddress, KeyClinicPhone, KeyInvoiceFooter, KeyTimezone}
}

// Setting is one key/value pair.
type Setting struct {
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// UpdateRequest is the payload of PUT /settings/{key}.
type UpdateRequest struct {
	Value string `json:"value" validate:"max=2000"`
}
