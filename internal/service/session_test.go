package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/pkg/jwtx"
)

func newSessionService(t *testing.T) (*SessionService, *MFAService) {
	t.Helper()

	st := newTestStore(t)
	signer, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)

	mfa := &MFAService{Store: st, Issuer: "KonBase"}
	return &SessionService{
		Store:  st,
		MFA:    mfa,
		Signer: signer,
		Issuer: "konbase-test",
		TTL:    time.Hour,
	}, mfa
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues token with role and membership snapshot", func(t *testing.T) {
		svc, _ := newSessionService(t)
		user := seedUser(t, svc.Store, "a@b.com", "secret123", domain.RoleMember)

		assoc := domain.Association{ID: "assoc-1", Name: "Con Org"}
		require.NoError(t, svc.Store.Associations().CreateAssociation(ctx, assoc))
		require.NoError(t, svc.Store.Memberships().CreateMembership(ctx, domain.Membership{
			AssociationID: assoc.ID,
			UserID:        user.ID,
			Role:          domain.MembershipRoleManager,
		}))

		res, err := svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "secret123"})
		require.NoError(t, err)
		require.NotEmpty(t, res.Token)
		require.Equal(t, "member", res.Claims.Role)
		require.Equal(t, []string{jwtx.AMRPassword}, res.Claims.AMR)
		require.Len(t, res.Claims.Memberships, 1)
		require.Equal(t, assoc.ID, res.Claims.Memberships[0].AssociationID)
		require.Equal(t, "manager", res.Claims.Memberships[0].Role)
	})

	t.Run("unknown email and wrong password share one generic error", func(t *testing.T) {
		svc, _ := newSessionService(t)
		seedUser(t, svc.Store, "a@b.com", "secret123", domain.RoleMember)

		_, err := svc.Login(ctx, LoginRequest{Email: "nobody@b.com", Password: "secret123"})
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("2FA enabled without code is a distinct error", func(t *testing.T) {
		svc, mfa := newSessionService(t)
		user := seedUser(t, svc.Store, "a@b.com", "secret123", domain.RoleMember)
		enableTwoFactor(t, mfa, user.ID)

		_, err := svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "secret123"})
		require.ErrorIs(t, err, ErrTwoFactorRequired)
		require.NotErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("password is checked before the code", func(t *testing.T) {
		svc, mfa := newSessionService(t)
		user := seedUser(t, svc.Store, "a@b.com", "secret123", domain.RoleMember)
		enableTwoFactor(t, mfa, user.ID)

		// Wrong password plus missing code must surface as bad credentials,
		// not as a 2FA prompt.
		_, err := svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "wrong"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("valid code completes a 2FA login", func(t *testing.T) {
		svc, mfa := newSessionService(t)
		user := seedUser(t, svc.Store, "a@b.com", "secret123", domain.RoleMember)
		secret := enableTwoFactor(t, mfa, user.ID)

		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		res, err := svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "secret123", TOTPCode: code})
		require.NoError(t, err)
		require.Contains(t, res.Claims.AMR, jwtx.AMRMFA)
	})

	t.Run("wrong-length code fails fast", func(t *testing.T) {
		svc, mfa := newSessionService(t)
		user := seedUser(t, svc.Store, "a@b.com", "secret123", domain.RoleMember)
		enableTwoFactor(t, mfa, user.ID)

		_, err := svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "secret123", TOTPCode: "12345"})
		require.ErrorIs(t, err, ErrInvalidCodeFormat)
	})

	t.Run("recovery key logs in and is single use", func(t *testing.T) {
		svc, mfa := newSessionService(t)
		user := seedUser(t, svc.Store, "a@b.com", "secret123", domain.RoleMember)
		keys := enableTwoFactorKeys(t, mfa, user.ID)

		req := LoginRequest{Email: "a@b.com", Password: "secret123", RecoveryKey: keys[0]}
		_, err := svc.Login(ctx, req)
		require.NoError(t, err)

		_, err = svc.Login(ctx, req)
		require.ErrorIs(t, err, ErrInvalidRecoveryKey)
	})
}

// enableTwoFactor enrolls and enables 2FA for the user, returning the secret.
func enableTwoFactor(t *testing.T, mfa *MFAService, userID string) string {
	t.Helper()
	secret, _ := mustEnableTwoFactor(t, mfa, userID)
	return secret
}

// enableTwoFactorKeys enrolls and enables 2FA, returning the recovery keys.
func enableTwoFactorKeys(t *testing.T, mfa *MFAService, userID string) []string {
	t.Helper()
	_, keys := mustEnableTwoFactor(t, mfa, userID)
	return keys
}

func mustEnableTwoFactor(t *testing.T, mfa *MFAService, userID string) (string, []string) {
	t.Helper()
	ctx := context.Background()

	setup, err := mfa.Setup(ctx, userID)
	require.NoError(t, err)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	keys, err := mfa.Enable(ctx, userID, setup.Secret, code)
	require.NoError(t, err)
	return setup.Secret, keys
}
