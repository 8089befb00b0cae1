package cryptox_test

import (
	"testing"

	"github.com/konbase/konbase/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	a, err := cryptox.GenerateToken(cryptox.TokenSize128)
	require.NoError(t, err)
	b, err := cryptox.GenerateToken(cryptox.TokenSize128)
	require.NoError(t, err)

	require.Len(t, a, 22)
	require.NotEqual(t, a, b)

	_, err = cryptox.GenerateToken(0)
	require.Error(t, err)
}

func TestGenerateRecoveryKey(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for range 50 {
		key, err := cryptox.GenerateRecoveryKey()
		require.NoError(t, err)
		require.Len(t, key, cryptox.RecoveryKeyLength)
		for _, c := range key {
			require.True(t, (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'), "unexpected char %q", c)
		}
		seen[key] = struct{}{}
	}
	require.Len(t, seen, 50, "recovery keys should not collide")
}

func TestFingerprintTokenIsDeterministic(t *testing.T) {
	t.Parallel()

	require.Equal(t, cryptox.FingerprintToken("abc"), cryptox.FingerprintToken("abc"))
	require.NotEqual(t, cryptox.FingerprintToken("abc"), cryptox.FingerprintToken("abd"))
	require.Len(t, cryptox.FingerprintToken("abc"), 43)
}
