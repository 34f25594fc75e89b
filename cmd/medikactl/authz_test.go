package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medika/medika/internal/authz"
)

func TestPrintMatrix(t *testing.T) {
	var buf bytes.Buffer
	printMatrix(&buf, authz.New())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "RESOURCE")
	assert.Contains(t, lines[0], "DOCTOR")
	assert.Len(t, lines, 1+len(authz.ResourceTypes())*len(authz.Actions()))
	assert.Contains(t, buf.String(), "conditional")
}

func TestRunCheck(t *testing.T) {
	r := authz.New()

	var buf bytes.Buffer
	require.NoError(t, runCheck(&buf, r, "admin", "create", "service"))
	assert.True(t, strings.HasPrefix(buf.String(), "allow:"))

	buf.Reset()
	assert.Error(t, runCheck(&buf, r, "receptionist", "create", "service"))
	assert.True(t, strings.HasPrefix(buf.String(), "deny:"))

	buf.Reset()
	assert.Error(t, runCheck(&buf, r, "doctor", "launch", "service"))
	assert.True(t, strings.HasPrefix(buf.String(), "deny:"))

	assert.ErrorIs(t, runCheck(&buf, r, "janitor", "view", "service"), authz.ErrInvalidRole)
}
