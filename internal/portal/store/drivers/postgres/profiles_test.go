package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/stretchr/testify/require"
)

var profileColumns = []string{"id", "first_name", "last_name", "phone", "email", "created_at", "updated_at"}

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := New(db)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestUpsertProfile(t *testing.T) {
	q := `(?s)^INSERT\s+INTO\s+profiles\s*\(id,\s*first_name,\s*last_name,\s*phone,\s*email,\s*created_at,\s*updated_at\)` +
		`.*ON\s+CONFLICT\s+\(id\)\s+DO\s+UPDATE.*RETURNING`

	t.Run("success", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		updated := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		mock.ExpectQuery(q).
			WithArgs("u-1", "Jane", "Doe", nil, "jane@example.com", updated).
			WillReturnRows(sqlmock.NewRows(profileColumns).
				AddRow("u-1", "Jane", "Doe", nil, "jane@example.com", created, updated))

		got, err := s.Profiles().UpsertProfile(t.Context(), domain.Profile{
			ID: "u-1", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
		})
		require.NoError(t, err)
		require.Equal(t, created, got.CreatedAt)
		require.Empty(t, got.Phone)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("phone is passed through", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		now := s.now()

		mock.ExpectQuery(q).
			WithArgs("u-1", "Jane", "Doe", "+61 400", "jane@example.com", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(profileColumns).
				AddRow("u-1", "Jane", "Doe", "+61 400", "jane@example.com", now, now))

		got, err := s.Profiles().UpsertProfile(t.Context(), domain.Profile{
			ID: "u-1", FirstName: "Jane", LastName: "Doe", Phone: "+61 400", Email: "jane@example.com",
		})
		require.NoError(t, err)
		require.Equal(t, "+61 400", got.Phone)
	})

	t.Run("database error is wrapped", func(t *testing.T) {
		s, mock := newStoreWithMock(t)

		mock.ExpectQuery(q).WillReturnError(errors.New("db down"))

		_, err := s.Profiles().UpsertProfile(t.Context(), domain.Profile{ID: "u-1"})
		require.ErrorContains(t, err, "upsert profile: db down")
	})
}

func TestGetProfileByID(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+profiles\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		s, mock := newStoreWithMock(t)
		now := s.now()

		mock.ExpectQuery(q).WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows(profileColumns).
				AddRow("u-1", "Jane", "Doe", "+61 400", "jane@example.com", now, now))

		got, err := s.Profiles().GetProfileByID(t.Context(), "u-1")
		require.NoError(t, err)
		require.Equal(t, "Jane", got.FirstName)
		require.Equal(t, "+61 400", got.Phone)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newStoreWithMock(t)

		mock.ExpectQuery(q).WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(profileColumns))

		_, err := s.Profiles().GetProfileByID(t.Context(), "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
