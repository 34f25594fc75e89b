package authz

// Rule answers one action for one resource type. Check must be pure.
type Rule struct {
	Check func(p Principal, instance Resource) Decision
	// NeedsInstance marks rules that read instance fields.
	NeedsInstance bool
}

// Policy holds the rules of one resource type. Actions without a rule resolve
// to UnknownPolicy.
type Policy struct {
	resource ResourceType
	rules    map[Action]Rule
}

// NewPolicy copies rules into a Policy. Rules with a nil Check are dropped so
// they fail closed.
func NewPolicy(resource ResourceType, rules map[Action]Rule) Policy {
	copied := make(map[Action]Rule, len(rules))
	for action, rule := range rules {
		if rule.Check == nil {
			continue
		}
		copied[action] = rule
	}
	return Policy{resource: resource, rules: copied}
}

// ResourceType returns the resource type the policy guards.
func (p Policy) ResourceType() ResourceType {
	return p.resource
}

// Rule looks up the rule for action.
func (p Policy) Rule(action Action) (Rule, bool) {
	rule, ok := p.rules[action]
	return rule, ok
}

// Actions returns the registered actions in vocabulary order.
func (p Policy) Actions() []Action {
	out := make([]Action, 0, len(p.rules))
	for _, action := range Actions() {
		if _, ok := p.rules[action]; ok {
			out = append(out, action)
		}
	}
	return out
}

// allowRoles builds a role-membership rule.
func allowRoles(admin, doctor, receptionist bool) Rule {
	return Rule{Check: func(p Principal, _ Resource) Decision {
		if p.Role.Match(admin, doctor, receptionist) {
			return Allow()
		}
		return Deny("role " + p.Role.String() + " not permitted")
	}}
}

// denyAlways builds a rule that never allows.
func denyAlways(reason string) Rule {
	return Rule{Check: func(Principal, Resource) Decision {
		return Deny(reason)
	}}
}

// forInstance adapts a typed check into a Rule. Both T and *T are accepted; a
// missing instance or one of another type denies.
func forInstance[T Resource](check func(p Principal, instance T) Decision) Rule {
	return Rule{
		NeedsInstance: true,
		Check: func(p Principal, instance Resource) Decision {
			if instance == nil {
				return Deny("instance required")
			}
			if typed, ok := instance.(T); ok {
				return check(p, typed)
			}
			if ptr, ok := any(instance).(*T); ok && ptr != nil {
				return check(p, *ptr)
			}
			return Deny("instance type mismatch")
		},
	}
}
