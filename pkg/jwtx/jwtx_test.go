package jwtx_test

import (
	"testing"
	"time"

	"github.com/konbase/konbase/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)
	verifier := jwtx.NewVerifier(signer, "konbase")

	claims := jwtx.NewSessionClaims(
		"user-1", "sid-1", "system_admin", "Alice",
		[]jwtx.MembershipClaim{{AssociationID: "assoc-1", Role: "owner"}},
		[]string{jwtx.AMRPassword},
		"konbase",
		time.Hour,
		time.Now().UTC(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "sid-1", got.SID)
	require.Equal(t, "system_admin", got.Role)
	require.Equal(t, "Alice", got.DisplayName)
	require.Equal(t, claims.Memberships, got.Memberships)
	require.Equal(t, []string{jwtx.AMRPassword}, got.AMR)
	require.NoError(t, got.ValidateExpiry())
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	t.Parallel()

	signerA, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)
	signerB, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)

	claims := jwtx.NewSessionClaims("u", "s", "member", "", nil, nil, "konbase", time.Hour, time.Now().UTC())
	token, err := signerA.Sign(claims)
	require.NoError(t, err)

	_, err = jwtx.NewVerifier(signerB, "konbase").Verify(token)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)
	verifier := jwtx.NewVerifier(signer, "konbase")

	claims := jwtx.NewSessionClaims("u", "s", "member", "", nil, nil, "konbase", time.Minute, time.Now().UTC().Add(-time.Hour))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)

	claims := jwtx.NewSessionClaims("u", "s", "member", "", nil, nil, "someone-else", time.Hour, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = jwtx.NewVerifier(signer, "konbase").Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewEphemeralSigner()
	require.NoError(t, err)

	_, err = jwtx.NewVerifier(signer, "konbase").Verify("not.a.token")
	require.Error(t, err)
}
