package authz

import (
	"fmt"
	"sort"
	"strings"
)

// Capability names an ability that is not tied to one resource type.
type Capability string

const (
	CapViewAdminDashboard  Capability = "view-admin-dashboard"
	CapManageUsers         Capability = "manage-users"
	CapManageServices      Capability = "manage-services"
	CapManagePatients      Capability = "manage-patients"
	CapManageAppointments  Capability = "manage-appointments"
	CapViewDoctorDashboard Capability = "view-doctor-dashboard"
	CapAddMedicalRecord    Capability = "add-medical-record"
)

// GateFunc decides a capability from the principal alone.
type GateFunc func(p Principal) bool

// Gates is an immutable capability registry. Build it once at startup and
// hand it to the Resolver.
type Gates struct {
	entries map[Capability]GateFunc
}

// NewGates copies entries into a registry. Later changes to entries do not
// affect the registry.
func NewGates(entries map[Capability]GateFunc) (*Gates, error) {
	copied := make(map[Capability]GateFunc, len(entries))
	for name, fn := range entries {
		if strings.TrimSpace(string(name)) == "" {
			return nil, fmt.Errorf("authz: gate name required")
		}
		if fn == nil {
			return nil, fmt.Errorf("authz: gate %q has no predicate", name)
		}
		copied[name] = fn
	}
	return &Gates{entries: copied}, nil
}

// RoleGate allows the flagged roles.
func RoleGate(admin, doctor, receptionist bool) GateFunc {
	return func(p Principal) bool {
		return p.Role.Match(admin, doctor, receptionist)
	}
}

// DefaultGates returns the clinic's capability registry.
func DefaultGates() *Gates {
	gates, err := NewGates(map[Capability]GateFunc{
		CapViewAdminDashboard:  RoleGate(true, false, false),
		CapManageUsers:         RoleGate(true, false, false),
		CapManageServices:      RoleGate(true, false, false),
		CapManagePatients:      RoleGate(true, false, true),
		CapManageAppointments:  RoleGate(true, false, true),
		CapViewDoctorDashboard: RoleGate(false, true, false),
		CapAddMedicalRecord:    RoleGate(false, true, false),
	})
	if err != nil {
		panic(err)
	}
	return gates
}

// Lookup returns the predicate for name.
func (g *Gates) Lookup(name Capability) (GateFunc, bool) {
	if g == nil {
		return nil, false
	}
	fn, ok := g.entries[name]
	return fn, ok
}

// Capabilities lists registered names sorted alphabetically.
func (g *Gates) Capabilities() []Capability {
	if g == nil {
		return nil
	}
	out := make([]Capability, 0, len(g.entries))
	for name := range g.entries {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
