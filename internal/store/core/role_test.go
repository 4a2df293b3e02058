package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("Agent")
	assert.NoError(t, err)
	assert.Equal(t, RoleAgent, r)

	r, err = ParseRole("Supervisor")
	assert.NoError(t, err)
	assert.Equal(t, RoleSupervisor, r)

	for _, bad := range []string{"", "agent", "AGENT", "Admin"} {
		_, err := ParseRole(bad)
		assert.ErrorIs(t, err, ErrInvalid, "role=%q", bad)
	}
}

func TestRoleSatisfies(t *testing.T) {
	assert.True(t, RoleAgent.Satisfies(RoleAgent))
	assert.True(t, RoleSupervisor.Satisfies(RoleAgent))
	assert.True(t, RoleSupervisor.Satisfies(RoleSupervisor))

	assert.False(t, RoleAgent.Satisfies(RoleSupervisor))
	assert.False(t, Role("desconocido").Satisfies(RoleAgent))
	assert.False(t, RoleAgent.Satisfies(Role("desconocido")))
}

func TestInviteStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusRevoked.Valid())
	assert.False(t, InviteStatus("archived").Valid())
	assert.False(t, InviteStatus("").Valid())
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	tok := "abc"
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.False(t, (&Invitation{Token: &tok, TokenExpiresAt: &future}).TokenExpired(now))
	assert.True(t, (&Invitation{Token: &tok, TokenExpiresAt: &past}).TokenExpired(now))

	// Sin token no hay nada que activar.
	assert.True(t, (&Invitation{}).TokenExpired(now))
}
