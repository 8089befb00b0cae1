package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost factor used for every stored credential.
const HashCost = 12

var (
	// ErrPasswordMismatch means the password was wrong. Expected failure,
	// never wrapped with internal detail.
	ErrPasswordMismatch = errors.New("cryptox: password does not match")

	// ErrNoPasswordSet means there is no stored hash to compare against.
	// Distinct from a mismatch so callers can message it differently
	// (e.g. OAuth-only accounts that never set a password).
	ErrNoPasswordSet = errors.New("cryptox: no password set")
)

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("cryptox: empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a stored bcrypt hash.
// A wrong password returns ErrPasswordMismatch; an absent hash returns
// ErrNoPasswordSet; a corrupt hash surfaces as a wrapped error.
func VerifyPassword(password, storedHash string) error {
	if storedHash == "" {
		return ErrNoPasswordSet
	}

	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("cryptox: verify password: %w", err)
	}
}
