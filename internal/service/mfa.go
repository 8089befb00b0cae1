package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/pkg/cryptox"
)

const (
	recoveryKeyCount = 10
	totpCodeLength   = 6
)

var (
	// ErrInvalidCodeFormat rejects codes of the wrong shape before any
	// crypto or database work.
	ErrInvalidCodeFormat = errors.New("code must be exactly 6 digits")

	ErrInvalidTOTPCode         = errors.New("invalid 2FA code")
	ErrInvalidRecoveryKey      = errors.New("invalid recovery key")
	ErrTwoFactorNotEnabled     = errors.New("2FA not enabled for this user")
	ErrTwoFactorAlreadyEnabled = errors.New("2FA already enabled for this user")
)

// MFAService manages TOTP enrollment and verification. A secret generated by
// Setup is never stored; it only sticks once Enable sees one valid code for
// it, proving the user's authenticator holds it.
type MFAService struct {
	Store  store.Store
	Issuer string // issuer label shown in authenticator apps
}

// Setup generates a fresh TOTP secret and provisioning URL. Nothing is
// persisted here.
func (s *MFAService) Setup(ctx context.Context, userID string) (domain.TOTPSetup, error) {
	profile, err := s.Store.Profiles().GetProfile(ctx, userID)
	if err != nil {
		return domain.TOTPSetup{}, fmt.Errorf("get profile: %w", err)
	}
	if profile.HasTwoFactor() {
		return domain.TOTPSetup{}, ErrTwoFactorAlreadyEnabled
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.TOTPSetup{}, fmt.Errorf("get user: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TOTPSetup{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	return domain.TOTPSetup{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
	}, nil
}

// Enable validates the submitted code against the submitted secret, then
// persists the secret and a fresh set of recovery keys in one transaction.
// The plaintext keys are returned exactly once; only fingerprints are stored.
func (s *MFAService) Enable(ctx context.Context, userID, secret, code string) ([]string, error) {
	if !isTOTPCodeShape(code) {
		return nil, ErrInvalidCodeFormat
	}

	profile, err := s.Store.Profiles().GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile.HasTwoFactor() {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	if !totp.Validate(code, secret) {
		return nil, ErrInvalidTOTPCode
	}

	keys := make([]string, recoveryKeyCount)
	for i := range keys {
		key, err := cryptox.GenerateRecoveryKey()
		if err != nil {
			return nil, fmt.Errorf("generate recovery key: %w", err)
		}
		keys[i] = key
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Profiles().EnableTwoFactor(ctx, userID, secret); err != nil {
			return fmt.Errorf("enable 2FA: %w", err)
		}
		if err := tx.RecoveryKeys().DeleteAllRecoveryKeys(ctx, userID); err != nil {
			return fmt.Errorf("clear old recovery keys: %w", err)
		}
		for _, key := range keys {
			if err := tx.RecoveryKeys().CreateRecoveryKey(ctx, userID, cryptox.FingerprintToken(key)); err != nil {
				return fmt.Errorf("store recovery key: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Disable clears the secret, the enabled flag, and all recovery keys in one
// transaction.
func (s *MFAService) Disable(ctx context.Context, userID string) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Profiles().DisableTwoFactor(ctx, userID); err != nil {
			return fmt.Errorf("disable 2FA: %w", err)
		}
		if err := tx.RecoveryKeys().DeleteAllRecoveryKeys(ctx, userID); err != nil {
			return fmt.Errorf("delete recovery keys: %w", err)
		}
		return nil
	})
}

// VerifyCode checks a 6-digit TOTP code against the user's stored secret with
// a tolerance of one 30s step either side for clock drift.
func (s *MFAService) VerifyCode(ctx context.Context, userID, code string) error {
	if !isTOTPCodeShape(code) {
		return ErrInvalidCodeFormat
	}

	profile, err := s.Store.Profiles().GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile.TwoFactorMisconfigured() {
		return ErrTwoFactorMisconfigured
	}
	if !profile.HasTwoFactor() {
		return ErrTwoFactorNotEnabled
	}

	// totp.Validate uses Skew=1, i.e. a ±1 window.
	if !totp.Validate(code, *profile.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return nil
}

// VerifyRecoveryKey consumes a one-time recovery key. The key is deleted on
// use whether or not the caller completes the surrounding flow.
func (s *MFAService) VerifyRecoveryKey(ctx context.Context, userID, key string) error {
	existed, err := s.Store.RecoveryKeys().ConsumeRecoveryKey(ctx, userID, cryptox.FingerprintToken(key))
	if err != nil {
		return fmt.Errorf("consume recovery key: %w", err)
	}
	if !existed {
		return ErrInvalidRecoveryKey
	}
	return nil
}

// RemainingRecoveryKeys reports how many unused recovery keys the user holds.
func (s *MFAService) RemainingRecoveryKeys(ctx context.Context, userID string) (int, error) {
	return s.Store.RecoveryKeys().CountRecoveryKeys(ctx, userID)
}

func isTOTPCodeShape(code string) bool {
	if len(code) != totpCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
