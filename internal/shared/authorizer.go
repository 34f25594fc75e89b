package shared

import "github.com/medika/medika/internal/authz"

// Authorizer is the slice of *authz.Resolver domain services depend on.
type Authorizer interface {
	Authorize(p *authz.Principal, action authz.Action, resource authz.ResourceType, instance authz.Resource) error
	Check(p *authz.Principal, capability authz.Capability) error
}

var _ Authorizer = (*authz.Resolver)(nil)

// DoctorScope reports whether listings for p are narrowed to a single
// doctor. A doctor without a linked profile is restricted to id 0, which
// matches no rows.
func DoctorScope(p *authz.Principal) (doctorID int64, restricted bool) {
	if p == nil || p.Role != authz.RoleDoctor {
		return 0, false
	}
	id, _ := p.DoctorID()
	return id, true
}
