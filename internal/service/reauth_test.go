package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
)

type recordedIntent struct {
	userID string
	intent domain.PendingIntent
}

func newReauthHarness(t *testing.T) (*ReauthService, *[]recordedIntent, store.Store) {
	t.Helper()

	st := newTestStore(t)
	mfa := &MFAService{Store: st, Issuer: "KonBase"}
	svc := NewReauthService(st, mfa, discardLogger(), 15*time.Minute)

	executed := &[]recordedIntent{}
	svc.RegisterExecutor("delete_association", func(ctx context.Context, userID string, intent domain.PendingIntent) error {
		*executed = append(*executed, recordedIntent{userID: userID, intent: intent})
		return nil
	})
	svc.RegisterExecutor("demote_self", func(ctx context.Context, userID string, intent domain.PendingIntent) error {
		*executed = append(*executed, recordedIntent{userID: userID, intent: intent})
		return nil
	})
	return svc, executed, st
}

func TestReauthPolicy(t *testing.T) {
	svc, _, _ := newReauthHarness(t)
	base := time.Now()
	svc.now = func() time.Time { return base }

	const sid = "sess-1"

	t.Run("required with no prior verification", func(t *testing.T) {
		require.True(t, svc.IsReauthRequired(sid, ReauthOptions{}))
	})

	t.Run("fresh verification within window is not required", func(t *testing.T) {
		svc.gates[sid] = &gate{lastVerified: base.Add(-5 * time.Minute)}
		require.False(t, svc.IsReauthRequired(sid, ReauthOptions{}))
	})

	t.Run("stale verification outside window is required", func(t *testing.T) {
		svc.gates[sid] = &gate{lastVerified: base.Add(-20 * time.Minute)}
		require.True(t, svc.IsReauthRequired(sid, ReauthOptions{}))
	})

	t.Run("always-MFA ignores recency", func(t *testing.T) {
		svc.gates[sid] = &gate{lastVerified: base.Add(-1 * time.Minute)}
		require.True(t, svc.IsReauthRequired(sid, ReauthOptions{AlwaysMFA: true}))
	})
}

func TestReauthRequire(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh gate executes immediately", func(t *testing.T) {
		svc, executed, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)
		svc.gates["sid"] = &gate{lastVerified: time.Now()}

		res, err := svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "delete_association"}, ReauthOptions{})
		require.NoError(t, err)
		require.True(t, res.Executed)
		require.Len(t, *executed, 1)
	})

	t.Run("stale gate retains the intent", func(t *testing.T) {
		svc, executed, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		res, err := svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "delete_association"}, ReauthOptions{})
		require.NoError(t, err)
		require.False(t, res.Executed)
		require.Equal(t, domain.ReauthRequired, res.State)
		require.Empty(t, *executed)
	})

	t.Run("a newer intent silently replaces the older one", func(t *testing.T) {
		svc, executed, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		_, err := svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "delete_association"}, ReauthOptions{})
		require.NoError(t, err)
		_, err = svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "demote_self"}, ReauthOptions{})
		require.NoError(t, err)

		res, err := svc.SubmitPassword(ctx, "sid", user.ID, "secret123")
		require.NoError(t, err)
		require.True(t, res.Executed)

		// Only the newest intent ran; the replaced one was discarded.
		require.Len(t, *executed, 1)
		require.Equal(t, "demote_self", (*executed)[0].intent.Action)
	})

	t.Run("unregistered actions are rejected", func(t *testing.T) {
		svc, _, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		_, err := svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "nuke_everything"}, ReauthOptions{})
		require.ErrorIs(t, err, ErrUnknownAction)
	})
}

func TestReauthSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password keeps the intent for retry", func(t *testing.T) {
		svc, executed, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		_, err := svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "delete_association"}, ReauthOptions{})
		require.NoError(t, err)

		_, err = svc.SubmitPassword(ctx, "sid", user.ID, "wrong")
		require.ErrorIs(t, err, ErrInvalidPassword)
		require.Equal(t, domain.ReauthRequired, svc.State("sid"))
		require.Empty(t, *executed)

		// Retry succeeds without re-triggering the original action.
		res, err := svc.SubmitPassword(ctx, "sid", user.ID, "secret123")
		require.NoError(t, err)
		require.True(t, res.Executed)
		require.Len(t, *executed, 1)
	})

	t.Run("2FA user needs password then code", func(t *testing.T) {
		svc, executed, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)
		secret := enableTwoFactor(t, svc.MFA, user.ID)

		_, err := svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "delete_association"}, ReauthOptions{})
		require.NoError(t, err)

		res, err := svc.SubmitPassword(ctx, "sid", user.ID, "secret123")
		require.NoError(t, err)
		require.True(t, res.Requires2FA)
		require.False(t, res.Executed)
		require.Empty(t, *executed)

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		res, err = svc.SubmitCode(ctx, "sid", user.ID, code)
		require.NoError(t, err)
		require.True(t, res.Executed)
		require.Len(t, *executed, 1)
	})

	t.Run("rejected code keeps the password step", func(t *testing.T) {
		svc, executed, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)
		secret := enableTwoFactor(t, svc.MFA, user.ID)

		_, err := svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "delete_association"}, ReauthOptions{})
		require.NoError(t, err)

		res, err := svc.SubmitPassword(ctx, "sid", user.ID, "secret123")
		require.NoError(t, err)
		require.True(t, res.Requires2FA)

		stale, err := totp.GenerateCode(secret, time.Now().Add(-5*time.Minute))
		require.NoError(t, err)
		_, err = svc.SubmitCode(ctx, "sid", user.ID, stale)
		require.ErrorIs(t, err, ErrInvalidTOTPCode)
		require.Equal(t, domain.ReauthRequired, svc.State("sid"))

		// A fresh code completes the check without re-entering the password.
		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)
		res, err = svc.SubmitCode(ctx, "sid", user.ID, code)
		require.NoError(t, err)
		require.True(t, res.Executed)
		require.Len(t, *executed, 1)
	})

	t.Run("code before password is rejected", func(t *testing.T) {
		svc, _, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)
		enableTwoFactor(t, svc.MFA, user.ID)

		_, err := svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "delete_association"}, ReauthOptions{})
		require.NoError(t, err)

		_, err = svc.SubmitCode(ctx, "sid", user.ID, "123456")
		require.ErrorIs(t, err, ErrPasswordNotVerified)
	})

	t.Run("submitting with nothing pending fails", func(t *testing.T) {
		svc, _, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		_, err := svc.SubmitPassword(ctx, "sid", user.ID, "secret123")
		require.ErrorIs(t, err, ErrNoPendingAction)
	})
}

func TestReauthCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel discards the pending intent", func(t *testing.T) {
		svc, executed, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		_, err := svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "delete_association"}, ReauthOptions{})
		require.NoError(t, err)

		svc.Cancel("sid")
		require.Equal(t, domain.ReauthIdle, svc.State("sid"))

		_, err = svc.SubmitPassword(ctx, "sid", user.ID, "secret123")
		require.ErrorIs(t, err, ErrNoPendingAction)
		require.Empty(t, *executed)
	})

	t.Run("cancel during verification prevents late execution", func(t *testing.T) {
		svc, executed, st := newReauthHarness(t)
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		_, err := svc.Require(ctx, "sid", user.ID, domain.PendingIntent{Action: "delete_association"}, ReauthOptions{})
		require.NoError(t, err)

		// Simulate a cancel racing the credential check: the gate is
		// cleared after the password is taken but before completion.
		svc.Cancel("sid")

		res, err := svc.complete(ctx, "sid", user.ID)
		require.NoError(t, err)
		require.False(t, res.Executed)
		require.Empty(t, *executed)
	})
}

func TestReauthPruneStale(t *testing.T) {
	svc, _, _ := newReauthHarness(t)
	base := time.Now()
	svc.now = func() time.Time { return base }

	svc.gates["old"] = &gate{touchedAt: base.Add(-2 * time.Hour)}
	svc.gates["fresh"] = &gate{touchedAt: base}
	svc.gates["pending"] = &gate{
		touchedAt: base.Add(-2 * time.Hour),
		pending:   &domain.PendingIntent{Action: "delete_association"},
	}

	require.Equal(t, 1, svc.PruneStale())
	require.NotContains(t, svc.gates, "old")
	require.Contains(t, svc.gates, "fresh")
	require.Contains(t, svc.gates, "pending")
}
