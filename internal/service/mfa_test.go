package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/konbase/konbase/internal/domain"
)

func TestMFASetupAndEnable(t *testing.T) {
	ctx := context.Background()

	t.Run("setup persists nothing", func(t *testing.T) {
		st := newTestStore(t)
		mfa := &MFAService{Store: st, Issuer: "KonBase"}
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		setup, err := mfa.Setup(ctx, user.ID)
		require.NoError(t, err)
		require.NotEmpty(t, setup.Secret)
		require.Contains(t, setup.OTPAuthURL, "otpauth://")

		profile, err := st.Profiles().GetProfile(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, profile.HasTwoFactor())
		require.Nil(t, profile.TOTPSecret)
	})

	t.Run("enable with wrong code persists nothing", func(t *testing.T) {
		st := newTestStore(t)
		mfa := &MFAService{Store: st, Issuer: "KonBase"}
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		setup, err := mfa.Setup(ctx, user.ID)
		require.NoError(t, err)

		_, err = mfa.Enable(ctx, user.ID, setup.Secret, "000000")
		require.ErrorIs(t, err, ErrInvalidTOTPCode)

		profile, err := st.Profiles().GetProfile(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, profile.HasTwoFactor())

		count, err := st.RecoveryKeys().CountRecoveryKeys(ctx, user.ID)
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("enable with valid code stores secret and ten recovery keys", func(t *testing.T) {
		st := newTestStore(t)
		mfa := &MFAService{Store: st, Issuer: "KonBase"}
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		setup, err := mfa.Setup(ctx, user.ID)
		require.NoError(t, err)

		code, err := totp.GenerateCode(setup.Secret, time.Now())
		require.NoError(t, err)

		keys, err := mfa.Enable(ctx, user.ID, setup.Secret, code)
		require.NoError(t, err)
		require.Len(t, keys, 10)

		profile, err := st.Profiles().GetProfile(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, profile.HasTwoFactor())
		require.Equal(t, setup.Secret, *profile.TOTPSecret)

		count, err := st.RecoveryKeys().CountRecoveryKeys(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, 10, count)
	})

	t.Run("enable rejects malformed codes before any crypto", func(t *testing.T) {
		st := newTestStore(t)
		mfa := &MFAService{Store: st, Issuer: "KonBase"}
		user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)

		for _, code := range []string{"", "12345", "1234567", "12345a"} {
			_, err := mfa.Enable(ctx, user.ID, "IRRELEVANT", code)
			require.ErrorIs(t, err, ErrInvalidCodeFormat, "code %q", code)
		}
	})
}

func TestMFAVerifyCode(t *testing.T) {
	ctx := context.Background()

	st := newTestStore(t)
	mfa := &MFAService{Store: st, Issuer: "KonBase"}
	user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)
	secret := enableTwoFactor(t, mfa, user.ID)

	t.Run("accepts the current code", func(t *testing.T) {
		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, mfa.VerifyCode(ctx, user.ID, code))
	})

	t.Run("accepts a code one step behind for clock drift", func(t *testing.T) {
		code, err := totp.GenerateCode(secret, time.Now().Add(-30*time.Second))
		require.NoError(t, err)
		require.NoError(t, mfa.VerifyCode(ctx, user.ID, code))
	})

	t.Run("rejects a code far outside the window", func(t *testing.T) {
		code, err := totp.GenerateCode(secret, time.Now().Add(-5*time.Minute))
		require.NoError(t, err)
		require.ErrorIs(t, mfa.VerifyCode(ctx, user.ID, code), ErrInvalidTOTPCode)
	})
}

func TestMFADisable(t *testing.T) {
	ctx := context.Background()

	st := newTestStore(t)
	mfa := &MFAService{Store: st, Issuer: "KonBase"}
	user := seedUser(t, st, "a@b.com", "secret123", domain.RoleMember)
	enableTwoFactor(t, mfa, user.ID)

	require.NoError(t, mfa.Disable(ctx, user.ID))

	profile, err := st.Profiles().GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, profile.HasTwoFactor())
	require.Nil(t, profile.TOTPSecret)
	require.Nil(t, profile.TwoFactorEnabled)

	count, err := st.RecoveryKeys().CountRecoveryKeys(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}
