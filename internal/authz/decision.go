package authz

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means a rule evaluated to deny.
	ErrUnauthorized = errors.New("authz: unauthorized")
	// ErrUnknownPolicy means no rule is registered for the request. It denies
	// exactly like ErrUnauthorized.
	ErrUnknownPolicy = errors.New("authz: unknown policy")
	// ErrPrincipalMissing means no authenticated principal was supplied.
	ErrPrincipalMissing = errors.New("authz: principal missing")
)

// DenialKind classifies a deny outcome.
type DenialKind string

const (
	KindNone             DenialKind = ""
	KindUnauthorized     DenialKind = "unauthorized"
	KindUnknownPolicy    DenialKind = "unknown-policy"
	KindPrincipalMissing DenialKind = "principal-missing"
)

func (k DenialKind) sentinel() error {
	switch k {
	case KindUnknownPolicy:
		return ErrUnknownPolicy
	case KindPrincipalMissing:
		return ErrPrincipalMissing
	default:
		return ErrUnauthorized
	}
}

// Decision is the outcome of one evaluation. The zero value denies.
type Decision struct {
	Allowed bool
	Kind    DenialKind
	Reason  string
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns an Unauthorized decision with a reason for logs.
func Deny(reason string) Decision {
	return Decision{Kind: KindUnauthorized, Reason: reason}
}

func unknownPolicy(reason string) Decision {
	return Decision{Kind: KindUnknownPolicy, Reason: reason}
}

func principalMissing() Decision {
	return Decision{Kind: KindPrincipalMissing, Reason: "no authenticated principal"}
}

// Outcome is a short label used by metrics.
func (d Decision) Outcome() string {
	if d.Allowed {
		return "allow"
	}
	if d.Kind == KindNone {
		return string(KindUnauthorized)
	}
	return string(d.Kind)
}

// DeniedError carries the request that was denied. It unwraps to one of the
// package sentinels.
type DeniedError struct {
	Kind     DenialKind
	Action   string
	Resource string
	Reason   string
}

func (e *DeniedError) Error() string {
	target := e.Action
	if e.Resource != "" {
		target = e.Action + " " + e.Resource
	}
	msg := fmt.Sprintf("%s: %s", e.Kind.sentinel().Error(), target)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *DeniedError) Unwrap() error {
	return e.Kind.sentinel()
}

// Err converts d into nil or a *DeniedError.
func (d Decision) Err(action, resource string) error {
	if d.Allowed {
		return nil
	}
	kind := d.Kind
	if kind == KindNone {
		kind = KindUnauthorized
	}
	return &DeniedError{Kind: kind, Action: action, Resource: resource, Reason: d.Reason}
}
