package seed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
users:
  - name: siti admin
    email: Admin@Klinik.test
    password: rahasia-admin
    role: admin
  - name: dr. budi
    email: budi@klinik.test
    password: rahasia-dokter
    role: doctor
    doctor:
      specialization: Umum
      license_number: STR-001
services:
  - name: Konsultasi Umum
    price_cents: 15000000
    duration_minutes: 15
settings:
  clinic_name: Klinik Sehat
`

func TestParseSample(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, f.Users, 2)
	assert.Equal(t, "STR-001", f.Users[1].Doctor.LicenseNumber)
	assert.Equal(t, int64(15000000), f.Services[0].PriceCents)
	assert.Equal(t, "Klinik Sehat", f.Settings["clinic_name"])
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse(strings.NewReader("patients: []\n"))
	assert.Error(t, err)
}

func TestValidateCollectsProblems(t *testing.T) {
	f := &File{
		Users: []User{
			{Name: "A", Email: "a@klinik.test", Password: "long-enough", Role: "admin"},
			{Name: "B", Email: "A@klinik.test", Password: "short", Role: "nurse", Doctor: &Doctor{}},
		},
		Services: []Service{
			{Name: "Cabut Gigi", PriceCents: -1, DurationMinutes: 0},
			{Name: "cabut gigi", DurationMinutes: 30},
		},
	}
	err := f.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "duplicate email")
	assert.Contains(t, msg, "password must be at least 8 characters")
	assert.Contains(t, msg, "doctor profile on nurse account")
	assert.Contains(t, msg, "price must not be negative")
	assert.Contains(t, msg, "duration must be positive")
	assert.Contains(t, msg, "duplicate name")
}

func TestValidateEmptyFile(t *testing.T) {
	assert.NoError(t, (&File{}).Validate())
}
