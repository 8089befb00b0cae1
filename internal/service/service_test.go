package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/konbase/konbase/internal/domain"
	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/internal/store/drivers/sqlite"
	"github.com/konbase/konbase/pkg/cryptox"
	"github.com/konbase/konbase/pkg/idx"
	"github.com/konbase/konbase/pkg/slogx"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = st.ApplyMigrations(context.Background())
	require.NoError(t, err)

	return st
}

func discardLogger() *slog.Logger {
	return slogx.Discard()
}

// seedUser creates a user plus profile with the given role and password.
func seedUser(t *testing.T, st store.Store, email, password string, role domain.Role) domain.User {
	t.Helper()
	ctx := context.Background()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, st.Users().CreateUser(ctx, user))
	require.NoError(t, st.Profiles().CreateProfile(ctx, domain.Profile{
		UserID:      user.ID,
		DisplayName: "Test User",
	}))
	return user
}
