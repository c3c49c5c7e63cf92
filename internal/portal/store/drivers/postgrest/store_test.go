package postgrest_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/internal/portal/store/drivers/postgrest"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, h http.HandlerFunc) *postgrest.Store {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	s, err := postgrest.NewStore(postgrest.Config{BaseURL: srv.URL, APIKey: "anon"})
	require.NoError(t, err)
	return s
}

func TestNewStore(t *testing.T) {
	_, err := postgrest.NewStore(postgrest.Config{BaseURL: "https://project.supabase.co"})
	require.Error(t, err)
}

func TestUpsertProfile(t *testing.T) {
	t.Run("sends merge upsert", func(t *testing.T) {
		s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/rest/v1/profiles", r.URL.Path)
			require.Equal(t, "id", r.URL.Query().Get("on_conflict"))
			require.Equal(t, "resolution=merge-duplicates,return=representation", r.Header.Get("Prefer"))
			require.Equal(t, "anon", r.Header.Get("apikey"))
			require.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

			body, _ := io.ReadAll(r.Body)
			var rows []map[string]any
			require.NoError(t, json.Unmarshal(body, &rows))
			require.Len(t, rows, 1)
			require.Equal(t, "u-1", rows[0]["id"])
			require.NotContains(t, rows[0], "created_at")
			require.Nil(t, rows[0]["phone"])

			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`[{"id":"u-1","first_name":"Jane","last_name":"Doe","phone":null,"email":"jane@example.com","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-05-01T00:00:00Z"}]`))
		})

		ctx := postgrest.WithAccessToken(t.Context(), "user-token")
		p, err := s.Profiles().UpsertProfile(ctx, domain.Profile{
			ID: "u-1", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
		})
		require.NoError(t, err)
		require.Equal(t, "Jane", p.FirstName)
		require.Equal(t, 2024, p.CreatedAt.Year())
	})

	t.Run("row level security rejection", func(t *testing.T) {
		s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"42501","message":"new row violates row-level security policy for table \"profiles\""}`))
		})

		_, err := s.Profiles().UpsertProfile(t.Context(), domain.Profile{ID: "u-1"})
		require.ErrorContains(t, err, "42501")
		require.ErrorContains(t, err, "row-level security")
	})
}

func TestGetProfileByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodGet, r.Method)
			require.Equal(t, "/rest/v1/profiles", r.URL.Path)
			require.Equal(t, "eq.u-1", r.URL.Query().Get("id"))
			require.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[{"id":"u-1","first_name":"Jane","last_name":"Doe","phone":"+61 400","email":"jane@example.com"}]`))
		})

		p, err := s.Profiles().GetProfileByID(t.Context(), "u-1")
		require.NoError(t, err)
		require.Equal(t, "+61 400", p.Phone)
	})

	t.Run("empty result is not found", func(t *testing.T) {
		s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})

		_, err := s.Profiles().GetProfileByID(t.Context(), "u-2")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestPing(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "id", r.URL.Query().Get("select"))
			_, _ = w.Write([]byte(`[]`))
		})
		require.NoError(t, s.Ping(t.Context()))
	})

	t.Run("unavailable", func(t *testing.T) {
		s := newStore(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"code":"PGRST000","message":"Could not connect with the database"}`))
		})
		require.Error(t, s.Ping(t.Context()))
		require.NoError(t, s.ApplyMigrations())
	})
}
