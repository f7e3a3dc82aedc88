package repofake_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-queue-client/users"
	"github.com/jrsteele09/go-queue-client/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeProviderRepo(t *testing.T) {
	repo := repofake.NewFakeProviderRepo()

	p, err := users.NewProvider(" Owner@Example.com ", "secret", "Cafe", "High St", time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(p))
	require.Equal(t, 1, p.ID)
	require.Equal(t, "owner@example.com", p.Email)

	t.Run("duplicate email", func(t *testing.T) {
		dup, err := users.NewProvider("owner@example.com", "other", "", "", time.Now())
		require.NoError(t, err)
		require.ErrorIs(t, repo.Create(dup), users.ErrEmailExists)
	})

	t.Run("lookups", func(t *testing.T) {
		byEmail, err := repo.GetByEmail("OWNER@example.com")
		require.NoError(t, err)
		require.Equal(t, p.ID, byEmail.ID)
		require.True(t, byEmail.CheckPassword("secret"))
		require.False(t, byEmail.CheckPassword("wrong"))

		_, err = repo.GetByID(42)
		require.ErrorIs(t, err, users.ErrNotFound)
		_, err = repo.GetByEmail("nobody@example.com")
		require.ErrorIs(t, err, users.ErrNotFound)
	})

	t.Run("logged in flag", func(t *testing.T) {
		require.NoError(t, repo.SetLoggedIn(p.ID, true))
		got, err := repo.GetByID(p.ID)
		require.NoError(t, err)
		require.True(t, got.LoggedIn)
		require.ErrorIs(t, repo.SetLoggedIn(99, true), users.ErrNotFound)
	})
}
