package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// Signer produces signed session tokens.
type Signer interface {
	// Sign serializes claims into a signed compact JWT.
	Sign(claims Claims) (string, error)

	// KID returns the key identifier written into the token header.
	KID() string

	// Public returns the verification key for this signer.
	Public() ed25519.PublicKey
}

// EdDSASigner signs tokens with an Ed25519 key. One service issues and
// consumes these tokens, so a single algorithm is enough.
type EdDSASigner struct {
	kid string
	key ed25519.PrivateKey
}

// NewSigner loads an Ed25519 private key from PKCS8 PEM bytes. The kid is
// derived from the public key so restarts with the same key keep the same id.
func NewSigner(pemKey []byte) (*EdDSASigner, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for signing key")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q", block.Type)
	}

	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}
	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not an Ed25519 private key")
	}

	return &EdDSASigner{
		kid: deriveKID(key.Public().(ed25519.PublicKey)),
		key: key,
	}, nil
}

// NewEphemeralSigner generates a fresh Ed25519 key. Tokens signed with it do
// not survive a restart; fine for dev, not for prod.
func NewEphemeralSigner() (*EdDSASigner, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate key: %w", err)
	}
	return &EdDSASigner{
		kid: deriveKID(key.Public().(ed25519.PublicKey)),
		key: key,
	}, nil
}

// LoadOrGenerateSigner reads a PEM key from path, falling back to an
// ephemeral key when path is empty.
func LoadOrGenerateSigner(path string) (*EdDSASigner, error) {
	if path == "" {
		return NewEphemeralSigner()
	}
	pemKey, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jwtx: read signing key: %w", err)
	}
	return NewSigner(pemKey)
}

func (s *EdDSASigner) KID() string { return s.kid }

func (s *EdDSASigner) Public() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// Sign turns claims into a signed compact JWT string.
func (s *EdDSASigner) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = s.kid

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign token: %w", err)
	}
	return signed, nil
}

// deriveKID fingerprints the public key into a short stable identifier.
func deriveKID(pub ed25519.PublicKey) string {
	sum := sha256.Sum256(pub)
	return base64.RawURLEncoding.EncodeToString(sum[:8])
}
