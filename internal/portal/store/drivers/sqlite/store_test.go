package sqlite_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/internal/portal/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	// A second run is a no-op.
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestProfiles(t *testing.T) {
	s := newStore(t)
	profiles := s.Profiles()

	t.Run("missing", func(t *testing.T) {
		_, err := profiles.GetProfileByID(t.Context(), "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("insert then update keeps created_at", func(t *testing.T) {
		first, err := profiles.UpsertProfile(t.Context(), domain.Profile{
			ID:        "u-1",
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
		})
		require.NoError(t, err)
		require.Empty(t, first.Phone)
		require.False(t, first.CreatedAt.IsZero())

		time.Sleep(10 * time.Millisecond)

		second, err := profiles.UpsertProfile(t.Context(), domain.Profile{
			ID:        "u-1",
			FirstName: "Janet",
			LastName:  "Doe",
			Phone:     "+61 400 000 000",
			Email:     "jane@example.com",
		})
		require.NoError(t, err)
		require.Equal(t, "Janet", second.FirstName)
		require.Equal(t, "+61 400 000 000", second.Phone)
		require.True(t, first.CreatedAt.Equal(second.CreatedAt))
		require.True(t, second.UpdatedAt.After(first.UpdatedAt))

		got, err := profiles.GetProfileByID(t.Context(), "u-1")
		require.NoError(t, err)
		require.Equal(t, second.FirstName, got.FirstName)
		require.Equal(t, second.Phone, got.Phone)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, s.Ping(t.Context()))
	})
}
