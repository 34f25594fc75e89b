package authz

import "context"

// DoctorProfile is the doctor record linked to a doctor principal.
type DoctorProfile struct {
	ID int64
}

// Principal is the authenticated actor making a request.
type Principal struct {
	ID     int64
	Role   Role
	Doctor *DoctorProfile
}

// DoctorID returns the linked doctor id. It only reports ok for doctor
// principals carrying a profile.
func (p Principal) DoctorID() (int64, bool) {
	if p.Role != RoleDoctor || p.Doctor == nil || p.Doctor.ID <= 0 {
		return 0, false
	}
	return p.Doctor.ID, true
}

func (p *Principal) authenticated() bool {
	return p != nil && p.ID > 0
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal stored in ctx, or nil.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
