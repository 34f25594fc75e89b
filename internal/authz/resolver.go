// Package authz decides whether a principal may perform an action on a clinic
// resource. Decisions are pure: policies and gates read only the principal and
// the resolved instance, and nothing is cached between calls.
package authz

import (
	"fmt"
	"log/slog"
)

// Observer receives every decision. Metrics hook in here.
type Observer interface {
	ObserveDecision(resource, action string, d Decision)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for deny and unknown-policy events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithObserver sets the decision observer.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// Resolver dispatches requests to the matching policy rule or gate. Unknown
// resource types, actions and capabilities deny.
type Resolver struct {
	policies map[ResourceType]Policy
	gates    *Gates
	logger   *slog.Logger
	observer Observer
}

// NewResolver builds a resolver over policies and gates. Two policies for the
// same resource type are rejected.
func NewResolver(policies []Policy, gates *Gates, opts ...Option) (*Resolver, error) {
	byType := make(map[ResourceType]Policy, len(policies))
	for _, p := range policies {
		if _, dup := byType[p.ResourceType()]; dup {
			return nil, fmt.Errorf("authz: duplicate policy for %s", p.ResourceType())
		}
		byType[p.ResourceType()] = p
	}
	r := &Resolver{policies: byType, gates: gates}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// New returns a resolver over DefaultPolicies and DefaultGates.
func New(opts ...Option) *Resolver {
	r, err := NewResolver(DefaultPolicies(), DefaultGates(), opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Decide evaluates action on resource for p. instance may be nil for
// class-level actions such as view-any and create.
func (r *Resolver) Decide(p *Principal, action Action, resource ResourceType, instance Resource) Decision {
	d := r.decide(p, action, resource, instance)
	r.record(string(resource), string(action), d)
	return d
}

func (r *Resolver) decide(p *Principal, action Action, resource ResourceType, instance Resource) Decision {
	if !p.authenticated() {
		return principalMissing()
	}
	policy, ok := r.policies[resource]
	if !ok {
		return unknownPolicy("no policy for resource " + string(resource))
	}
	rule, ok := policy.Rule(action)
	if !ok {
		return unknownPolicy("no rule for action " + string(action))
	}
	return rule.Check(*p, instance)
}

// Authorize is Decide returning nil on allow and a *DeniedError otherwise.
func (r *Resolver) Authorize(p *Principal, action Action, resource ResourceType, instance Resource) error {
	return r.Decide(p, action, resource, instance).Err(string(action), string(resource))
}

// Can reports whether p holds capability name.
func (r *Resolver) Can(p *Principal, name Capability) bool {
	return r.CheckDecision(p, name).Allowed
}

// Check is Can returning nil or a *DeniedError.
func (r *Resolver) Check(p *Principal, name Capability) error {
	return r.CheckDecision(p, name).Err(string(name), "")
}

// CheckDecision evaluates a gate and returns the full decision.
func (r *Resolver) CheckDecision(p *Principal, name Capability) Decision {
	d := r.check(p, name)
	r.record("gate", string(name), d)
	return d
}

func (r *Resolver) check(p *Principal, name Capability) Decision {
	if !p.authenticated() {
		return principalMissing()
	}
	fn, ok := r.gates.Lookup(name)
	if !ok {
		return unknownPolicy("no gate " + string(name))
	}
	if !fn(*p) {
		return Deny("role " + p.Role.String() + " lacks " + string(name))
	}
	return Allow()
}

// Capabilities returns the registered capabilities p holds. It is meant for
// rendering menus and is not observed.
func (r *Resolver) Capabilities(p *Principal) []Capability {
	var out []Capability
	for _, name := range r.gates.Capabilities() {
		if r.check(p, name).Allowed {
			out = append(out, name)
		}
	}
	return out
}

// Policy returns the policy registered for resource.
func (r *Resolver) Policy(resource ResourceType) (Policy, bool) {
	p, ok := r.policies[resource]
	return p, ok
}

// Gates exposes the registry the resolver was built with.
func (r *Resolver) Gates() *Gates {
	return r.gates
}

func (r *Resolver) record(resource, action string, d Decision) {
	if r.observer != nil {
		r.observer.ObserveDecision(resource, action, d)
	}
	if r.logger == nil || d.Allowed {
		return
	}
	attrs := []any{
		slog.String("resource", resource),
		slog.String("action", action),
		slog.String("reason", d.Reason),
	}
	if d.Kind == KindUnknownPolicy {
		r.logger.Warn("authz unknown policy", attrs...)
		return
	}
	r.logger.Debug("authz denied", append(attrs, slog.String("kind", string(d.Kind)))...)
}
