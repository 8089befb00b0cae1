package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/pkg/cryptox"
	"github.com/konbase/konbase/pkg/idx"
	"github.com/konbase/konbase/pkg/jwtx"
)

var (
	// ErrInvalidCredentials is the deliberately generic sign-in failure; it
	// covers both unknown email and wrong password so callers cannot
	// enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrTwoFactorRequired means the password was correct but a 2FA code is
	// needed. Distinct from ErrInvalidCredentials so the client can prompt
	// progressively.
	ErrTwoFactorRequired = errors.New("2FA code required")

	// ErrTwoFactorMisconfigured means 2FA is flagged enabled but no secret
	// is stored. Operator-correctable, never presented as a user mistake.
	ErrTwoFactorMisconfigured = errors.New("2FA enabled but no secret configured")

	// ErrNoPasswordSet mirrors cryptox: the account has no password hash at
	// all (e.g. OAuth-only), which is not the same as a wrong password.
	ErrNoPasswordSet = cryptox.ErrNoPasswordSet
)

type LoginRequest struct {
	Email       string
	Password    string
	TOTPCode    string
	RecoveryKey string
}

type LoginResult struct {
	Token  string
	Claims jwtx.Claims
	User   domain.User
}

// SessionService authenticates credentials and issues stateless signed
// session tokens. Nothing is stored server-side; invalidation is by expiry.
type SessionService struct {
	Store  store.Store
	MFA    *MFAService
	Signer jwtx.Signer
	Issuer string
	TTL    time.Duration
}

// Login verifies credentials in strict order: user lookup, password, then
// 2FA. The password must pass before the TOTP code is even considered, and
// each 2FA failure mode maps to its own sentinel.
func (s *SessionService) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := cryptox.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		switch {
		case errors.Is(err, cryptox.ErrPasswordMismatch):
			return LoginResult{}, ErrInvalidCredentials
		case errors.Is(err, cryptox.ErrNoPasswordSet):
			return LoginResult{}, ErrNoPasswordSet
		default:
			return LoginResult{}, err
		}
	}

	profile, err := s.Store.Profiles().GetProfile(ctx, user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup profile: %w", err)
	}

	amr := []string{jwtx.AMRPassword}
	if profile.TwoFactorMisconfigured() {
		return LoginResult{}, ErrTwoFactorMisconfigured
	}
	if profile.HasTwoFactor() {
		switch {
		case req.RecoveryKey != "":
			if err := s.MFA.VerifyRecoveryKey(ctx, user.ID, req.RecoveryKey); err != nil {
				return LoginResult{}, err
			}
			amr = append(amr, jwtx.AMROTP, jwtx.AMRMFA)
		case req.TOTPCode == "":
			return LoginResult{}, ErrTwoFactorRequired
		default:
			if err := s.MFA.VerifyCode(ctx, user.ID, req.TOTPCode); err != nil {
				return LoginResult{}, err
			}
			amr = append(amr, jwtx.AMROTP, jwtx.AMRMFA)
		}
	}

	memberships, err := s.Store.Memberships().ListMembershipsByUser(ctx, user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("snapshot memberships: %w", err)
	}
	claims := jwtx.NewSessionClaims(
		user.ID,
		idx.New().String(),
		user.Role.String(),
		profile.DisplayName,
		membershipClaims(memberships),
		amr,
		s.Issuer,
		s.TTL,
		time.Now().UTC(),
	)

	token, err := s.Signer.Sign(claims)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign session token: %w", err)
	}
	return LoginResult{Token: token, Claims: claims, User: user}, nil
}

func membershipClaims(memberships []domain.Membership) []jwtx.MembershipClaim {
	out := make([]jwtx.MembershipClaim, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, jwtx.MembershipClaim{
			AssociationID: m.AssociationID,
			Role:          m.Role.String(),
		})
	}
	return out
}
