package authz

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveDecision(resource, action string, d Decision) {
	o.outcomes = append(o.outcomes, resource+"/"+action+"/"+d.Outcome())
}

func TestUnregisteredActionFailsClosed(t *testing.T) {
	r := New()
	d := r.Decide(admin(1), Action("archive"), ResourceService, Service{ID: 1})
	assert.False(t, d.Allowed)
	assert.Equal(t, KindUnknownPolicy, d.Kind)

	err := r.Authorize(admin(1), Action("archive"), ResourceService, Service{ID: 1})
	assert.ErrorIs(t, err, ErrUnknownPolicy)

	var denied *DeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, "archive", denied.Action)
	assert.Equal(t, "service", denied.Resource)
}

func TestUnregisteredResourceFailsClosed(t *testing.T) {
	r, err := NewResolver([]Policy{InvoicePolicy()}, DefaultGates())
	require.NoError(t, err)
	assert.ErrorIs(t, r.Authorize(admin(1), ActionViewAny, ResourcePatient, nil), ErrUnknownPolicy)
	assert.ErrorIs(t, r.Authorize(admin(1), ActionViewAny, ResourceType("ward"), nil), ErrUnknownPolicy)
}

func TestEmptyResolverDeniesEverything(t *testing.T) {
	r, err := NewResolver(nil, nil)
	require.NoError(t, err)
	for _, rt := range ResourceTypes() {
		for _, action := range Actions() {
			assert.False(t, r.Decide(admin(1), action, rt, nil).Allowed)
		}
	}
	assert.False(t, r.Can(admin(1), CapManageUsers))
}

func TestNilCheckRuleIsDropped(t *testing.T) {
	policy := NewPolicy(ResourceService, map[Action]Rule{ActionViewAny: {}})
	r, err := NewResolver([]Policy{policy}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Authorize(admin(1), ActionViewAny, ResourceService, nil), ErrUnknownPolicy)
}

func TestDuplicatePolicyRejected(t *testing.T) {
	_, err := NewResolver([]Policy{InvoicePolicy(), InvoicePolicy()}, nil)
	assert.Error(t, err)
}

func TestMissingPrincipal(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Authorize(nil, ActionViewAny, ResourceService, nil), ErrPrincipalMissing)
	assert.ErrorIs(t, r.Authorize(&Principal{Role: RoleAdmin}, ActionViewAny, ResourceService, nil), ErrPrincipalMissing)
}

func TestObserverAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := &recordingObserver{}
	r := New(WithLogger(logger), WithObserver(obs))

	r.Decide(admin(1), ActionViewAny, ResourceInvoice, nil)
	r.Decide(doctor(3, 30), ActionDelete, ResourceInvoice, Invoice{ID: 1})
	r.Decide(admin(1), Action("archive"), ResourceService, nil)
	r.Can(admin(1), CapManageUsers)

	assert.Equal(t, []string{
		"invoice/view-any/allow",
		"invoice/delete/unauthorized",
		"service/archive/unknown-policy",
		"gate/manage-users/allow",
	}, obs.outcomes)
	assert.Contains(t, buf.String(), "authz unknown policy")
	assert.Contains(t, buf.String(), "authz denied")
}

func TestDeniedErrorMessage(t *testing.T) {
	err := Deny("role doctor not permitted").Err("delete", "invoice")
	assert.EqualError(t, err, "authz: unauthorized: delete invoice: role doctor not permitted")
	assert.NoError(t, Allow().Err("delete", "invoice"))
	assert.ErrorIs(t, Decision{}.Err("view", "invoice"), ErrUnauthorized)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Doctor ")
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, role)

	_, err = ParseRole("nurse")
	assert.ErrorIs(t, err, ErrInvalidRole)
	_, err = ParseRole("")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestMatrix(t *testing.T) {
	r := New()
	rows := r.Matrix()
	assert.Len(t, rows, len(ResourceTypes())*len(Actions()))

	find := func(rt ResourceType, a Action) MatrixRow {
		for _, row := range rows {
			if row.Resource == rt && row.Action == a {
				return row
			}
		}
		t.Fatalf("row %s/%s missing", rt, a)
		return MatrixRow{}
	}
	assert.Equal(t, CellAllow, find(ResourceInvoice, ActionDelete).Cells[RoleAdmin])
	assert.Equal(t, CellDeny, find(ResourceInvoice, ActionDelete).Cells[RoleDoctor])
	assert.Equal(t, CellConditional, find(ResourceInvoice, ActionView).Cells[RoleDoctor])
	assert.Equal(t, CellUndefined, find(ResourceInvoice, ActionRestore).Cells[RoleAdmin])
	assert.Equal(t, CellDeny, find(ResourceMedicalRecordTemplate, ActionView).Cells[RoleDoctor])
}
