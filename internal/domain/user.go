package domain

import "time"

type User struct {
	ID           string
	Email        string // unique, lower-cased at signup
	PasswordHash string // bcrypt encoded; empty for OAuth-only accounts
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the 1:1 companion record to a User.
type Profile struct {
	UserID           string
	DisplayName      string
	TwoFactorEnabled *time.Time // when 2FA was enabled (nullable)
	TOTPSecret       *string    // base32 shared secret (nullable)
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasTwoFactor reports whether 2FA is actually usable. A set enabled flag
// with a missing secret is a misconfiguration and must not count as enabled.
func (p Profile) HasTwoFactor() bool {
	return p.TwoFactorEnabled != nil && p.TOTPSecret != nil && *p.TOTPSecret != ""
}

// TwoFactorMisconfigured reports the flagged-enabled-but-no-secret state,
// which callers surface as a configuration error rather than a user error.
func (p Profile) TwoFactorMisconfigured() bool {
	return p.TwoFactorEnabled != nil && (p.TOTPSecret == nil || *p.TOTPSecret == "")
}
