package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/internal/store/drivers/sqlite"
)

const testElevationSecret = "sesame-open-sesame"

func newElevationService(st store.Store) *ElevationService {
	return &ElevationService{
		Store:  st,
		Audit:  &AuditService{Store: st},
		Logger: discardLogger(),
		Secret: testElevationSecret,
	}
}

func TestElevate(t *testing.T) {
	ctx := context.Background()

	t.Run("promotes system_admin and audits once", func(t *testing.T) {
		st := newTestStore(t)
		svc := newElevationService(st)
		user := seedUser(t, st, "sysadmin@example.com", "pw123456", domain.RoleSystemAdmin)

		res, err := svc.Elevate(ctx, user.ID, testElevationSecret)
		require.NoError(t, err)
		require.True(t, res.Changed)
		require.Equal(t, domain.RoleSuperAdmin, res.Role)

		got, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleSuperAdmin, got.Role)

		entries, err := st.AuditLog().ListAuditEntries(ctx, store.AuditFilter{ActorID: user.ID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, domain.AuditActionRoleElevated, entries[0].Action)
		require.Equal(t, "system_admin", entries[0].Changes["previous_role"])
		require.Equal(t, "super_admin", entries[0].Changes["new_role"])
	})

	t.Run("second elevate is idempotent with no extra audit", func(t *testing.T) {
		st := newTestStore(t)
		svc := newElevationService(st)
		user := seedUser(t, st, "sysadmin@example.com", "pw123456", domain.RoleSystemAdmin)

		_, err := svc.Elevate(ctx, user.ID, testElevationSecret)
		require.NoError(t, err)

		res, err := svc.Elevate(ctx, user.ID, testElevationSecret)
		require.NoError(t, err)
		require.False(t, res.Changed)
		require.Equal(t, domain.RoleSuperAdmin, res.Role)

		entries, err := st.AuditLog().ListAuditEntries(ctx, store.AuditFilter{ActorID: user.ID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("rejects non-system_admin naming the actual role", func(t *testing.T) {
		st := newTestStore(t)
		svc := newElevationService(st)
		user := seedUser(t, st, "member@example.com", "pw123456", domain.RoleMember)

		_, err := svc.Elevate(ctx, user.ID, testElevationSecret)
		require.ErrorIs(t, err, ErrElevationForbidden)
		require.Contains(t, err.Error(), "member")

		got, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleMember, got.Role)
	})

	t.Run("rejects wrong security code", func(t *testing.T) {
		st := newTestStore(t)
		svc := newElevationService(st)
		user := seedUser(t, st, "sysadmin@example.com", "pw123456", domain.RoleSystemAdmin)

		_, err := svc.Elevate(ctx, user.ID, "wrong-code")
		require.ErrorIs(t, err, ErrInvalidSecurityCode)

		got, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleSystemAdmin, got.Role)
	})

	t.Run("fails when secret unset", func(t *testing.T) {
		st := newTestStore(t)
		svc := newElevationService(st)
		svc.Secret = ""
		user := seedUser(t, st, "sysadmin@example.com", "pw123456", domain.RoleSystemAdmin)

		_, err := svc.Elevate(ctx, user.ID, "anything")
		require.ErrorIs(t, err, ErrElevationNotConfigured)
	})

	t.Run("audit failure does not roll back the role change", func(t *testing.T) {
		st := newTestStore(t)
		svc := newElevationService(st)
		user := seedUser(t, st, "sysadmin@example.com", "pw123456", domain.RoleSystemAdmin)

		// Point the audit trail at a dead store; the elevation itself must
		// still land.
		dead, err := sqlite.NewStore(":memory:")
		require.NoError(t, err)
		require.NoError(t, dead.Close())
		svc.Audit = &AuditService{Store: dead}

		res, err := svc.Elevate(ctx, user.ID, testElevationSecret)
		require.NoError(t, err)
		require.True(t, res.Changed)

		got, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleSuperAdmin, got.Role)
	})
}

func TestDemote(t *testing.T) {
	ctx := context.Background()

	t.Run("reverts super_admin and requests redirect", func(t *testing.T) {
		st := newTestStore(t)
		svc := newElevationService(st)
		user := seedUser(t, st, "super@example.com", "pw123456", domain.RoleSuperAdmin)

		res, err := svc.Demote(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, res.Changed)
		require.True(t, res.Redirect)
		require.Equal(t, domain.RoleSystemAdmin, res.Role)

		entries, err := st.AuditLog().ListAuditEntries(ctx, store.AuditFilter{ActorID: user.ID})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, domain.AuditActionRoleDemoted, entries[0].Action)
	})

	t.Run("demoting a non-super_admin is a no-op success", func(t *testing.T) {
		st := newTestStore(t)
		svc := newElevationService(st)
		user := seedUser(t, st, "admin@example.com", "pw123456", domain.RoleAdmin)

		res, err := svc.Demote(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, res.Changed)
		require.False(t, res.Redirect)
		require.Equal(t, domain.RoleAdmin, res.Role)

		// No transition happened, so nothing was audited.
		entries, err := st.AuditLog().ListAuditEntries(ctx, store.AuditFilter{ActorID: user.ID})
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}
