package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// RecoveryKeyLength is the character length of a 2FA recovery key.
const RecoveryKeyLength = 10

const recoveryKeyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateToken creates a cryptographically secure random token of the given
// byte length, returned base64url-encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateRecoveryKey produces a single one-time 2FA recovery key: uppercase
// alphanumeric, uniform over the charset via crypto/rand.
func GenerateRecoveryKey() (string, error) {
	key := make([]byte, RecoveryKeyLength)
	for i := range key {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(recoveryKeyCharset))))
		if err != nil {
			return "", fmt.Errorf("cryptox: generate recovery key: %w", err)
		}
		key[i] = recoveryKeyCharset[n.Int64()]
	}
	return string(key), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url-encoded. Recovery keys are stored as fingerprints so a database
// leak does not expose usable keys.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
