package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
)

func TestAssociations(t *testing.T) {
	ctx := context.Background()

	st := newTestStore(t)
	svc := &AssociationService{Store: st}
	owner := seedUser(t, st, "owner@b.com", "secret123", domain.RoleMember)
	member := seedUser(t, st, "member@b.com", "secret123", domain.RoleMember)

	assoc, err := svc.CreateAssociation(ctx, "Con Org", "Runs the local convention", owner.ID)
	require.NoError(t, err)

	t.Run("creator becomes owner", func(t *testing.T) {
		m, err := st.Memberships().GetMembership(ctx, assoc.ID, owner.ID)
		require.NoError(t, err)
		require.Equal(t, domain.MembershipRoleOwner, m.Role)
	})

	t.Run("add, promote, and remove a member", func(t *testing.T) {
		_, err := svc.AddMember(ctx, assoc.ID, member.ID, domain.MembershipRoleMember)
		require.NoError(t, err)

		_, err = svc.AddMember(ctx, assoc.ID, member.ID, domain.MembershipRoleManager)
		require.ErrorIs(t, err, ErrAlreadyMember)

		require.NoError(t, svc.UpdateMemberRole(ctx, assoc.ID, member.ID, domain.MembershipRoleManager))
		m, err := st.Memberships().GetMembership(ctx, assoc.ID, member.ID)
		require.NoError(t, err)
		require.Equal(t, domain.MembershipRoleManager, m.Role)

		require.NoError(t, svc.RemoveMember(ctx, assoc.ID, member.ID))
		_, err = st.Memberships().GetMembership(ctx, assoc.ID, member.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("membership role does not touch the global role", func(t *testing.T) {
		got, err := st.Users().GetUserByID(ctx, owner.ID)
		require.NoError(t, err)
		require.Equal(t, domain.RoleMember, got.Role)
	})
}

func TestAuditList(t *testing.T) {
	ctx := context.Background()

	st := newTestStore(t)
	audit := &AuditService{Store: st}

	for range 5 {
		require.NoError(t, audit.Record(ctx, domain.AuditEntry{
			Action:     domain.AuditActionRoleElevated,
			EntityType: "user",
			EntityID:   "u1",
			ActorID:    "u1",
		}))
	}

	entries, hasNext, err := audit.List(ctx, store.AuditFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.True(t, hasNext)

	entries, hasNext, err = audit.List(ctx, store.AuditFilter{Limit: 3, Offset: 3})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.False(t, hasNext)
}
