package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"guest", "member", "manager", "admin", "system_admin", "super_admin"} {
		role, err := ParseRole(s)
		require.NoError(t, err)
		require.Equal(t, s, role.String())
	}

	for _, s := range []string{"", "root", "SuperAdmin", "system-admin"} {
		_, err := ParseRole(s)
		require.Error(t, err, "input %q", s)
	}
}

func TestRoleAtLeast(t *testing.T) {
	t.Parallel()

	require.True(t, RoleSuperAdmin.AtLeast(RoleSystemAdmin))
	require.True(t, RoleAdmin.AtLeast(RoleAdmin))
	require.False(t, RoleMember.AtLeast(RoleAdmin))
	require.False(t, Role("bogus").AtLeast(RoleGuest))
}

func TestProfileTwoFactorInvariants(t *testing.T) {
	t.Parallel()

	secret := "JBSWY3DPEHPK3PXP"
	enabled := time.Now()

	t.Run("enabled with secret", func(t *testing.T) {
		p := Profile{TwoFactorEnabled: &enabled, TOTPSecret: &secret}
		require.True(t, p.HasTwoFactor())
		require.False(t, p.TwoFactorMisconfigured())
	})

	t.Run("flagged enabled without secret is misconfigured, not enabled", func(t *testing.T) {
		p := Profile{TwoFactorEnabled: &enabled}
		require.False(t, p.HasTwoFactor())
		require.True(t, p.TwoFactorMisconfigured())
	})

	t.Run("disabled", func(t *testing.T) {
		p := Profile{}
		require.False(t, p.HasTwoFactor())
		require.False(t, p.TwoFactorMisconfigured())
	})
}
