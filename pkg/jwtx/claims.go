package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the lifetime of an issued session token. Sessions are
// stateless signed tokens, so expiry is the only invalidation mechanism.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Authentication Method Reference values recorded in the "amr" claim.
//
//	"pwd": password-based authentication
//	"otp": a TOTP or recovery code was verified
//	"mfa": multiple factors were used
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRMFA      = "mfa"
)

// MembershipClaim is the association-membership snapshot embedded in a
// session token at issuance. The scoped role is independent of the global
// role claim.
type MembershipClaim struct {
	AssociationID string `json:"association_id"`
	Role          string `json:"role"`
}

// Claims are the session-token claims. The role and membership snapshot are
// captured at issuance; privilege-sensitive operations re-check the database
// rather than trusting these alone.
type Claims struct {
	jwt.RegisteredClaims

	// SID is the session id, minted fresh at each login.
	SID string `json:"sid,omitempty"`

	// Role is the user's global role at issuance time.
	Role string `json:"role,omitempty"`

	// DisplayName is the profile display name.
	DisplayName string `json:"display_name,omitempty"`

	// Memberships snapshots the user's association memberships.
	Memberships []MembershipClaim `json:"memberships,omitempty"`

	// AMR lists the authentication methods used at login.
	AMR []string `json:"amr,omitempty"`
}

// NewSessionClaims builds minimally-correct session claims.
func NewSessionClaims(
	subject, sid, role, displayName string,
	memberships []MembershipClaim,
	amr []string,
	issuer string,
	ttl time.Duration,
	now time.Time,
) Claims {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:         sid,
		Role:        role,
		DisplayName: displayName,
		Memberships: memberships,
		AMR:         amr,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks the issuer when one is expected.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token is inside its [nbf, exp] window.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt == nil || now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
