package authz

// Cell is one role's answer in the permission matrix.
type Cell string

const (
	CellAllow       Cell = "allow"
	CellDeny        Cell = "deny"
	CellConditional Cell = "conditional"
	CellUndefined   Cell = "undefined"
)

// MatrixRow is the answer of every role for one (resource, action) pair.
type MatrixRow struct {
	Resource ResourceType
	Action   Action
	Cells    map[Role]Cell
}

// Matrix evaluates each policy rule for a representative principal of each
// role. Rules that read instance fields report CellConditional.
func (r *Resolver) Matrix() []MatrixRow {
	rows := make([]MatrixRow, 0, len(ResourceTypes())*len(Actions()))
	for _, resource := range ResourceTypes() {
		policy, hasPolicy := r.policies[resource]
		for _, action := range Actions() {
			row := MatrixRow{Resource: resource, Action: action, Cells: make(map[Role]Cell, len(Roles()))}
			rule, ok := policy.Rule(action)
			for _, role := range Roles() {
				switch {
				case !hasPolicy || !ok:
					row.Cells[role] = CellUndefined
				case rule.NeedsInstance:
					row.Cells[role] = CellConditional
				case rule.Check(samplePrincipal(role), nil).Allowed:
					row.Cells[role] = CellAllow
				default:
					row.Cells[role] = CellDeny
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func samplePrincipal(role Role) Principal {
	p := Principal{ID: 1, Role: role}
	if role == RoleDoctor {
		p.Doctor = &DoctorProfile{ID: 1}
	}
	return p
}
