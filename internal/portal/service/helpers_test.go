package service_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/identity"
	"github.com/aussiebroadwan/portal/internal/portal/identity/drivers/memory"
	"github.com/aussiebroadwan/portal/internal/portal/notify"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/internal/portal/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newIdentity(t *testing.T, autoConfirm bool) *memory.Provider {
	t.Helper()
	p, err := memory.New(memory.Config{Secret: "test-secret", AutoConfirm: autoConfirm})
	require.NoError(t, err)
	return p
}

func newProfiles(t *testing.T) store.Profiles {
	profiles, _ := newProfilesDB(t)
	return profiles
}

// newProfilesDB also returns a second handle on the same database file for
// assertions on the raw table.
func newProfilesDB(t *testing.T) (store.Profiles, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portal.db")

	s, err := sqlite.NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return s.Profiles(), db
}

func countProfiles(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(t.Context(), `SELECT count(*) FROM profiles`).Scan(&n))
	return n
}

// stubProvider fails the test on any method that is not overridden.
type stubProvider struct {
	identity.Provider

	signUp       func(identity.SignUpParams) (*domain.Identity, error)
	createUser   func(identity.CreateUserParams) (*domain.Identity, error)
	adminConfirm func(email string) (identity.ConfirmResult, error)
	calls        int
}

func (s *stubProvider) AdminConfirmEmail(_ context.Context, email string) (identity.ConfirmResult, error) {
	s.calls++
	return s.adminConfirm(email)
}

func (s *stubProvider) SignUp(_ context.Context, p identity.SignUpParams) (*domain.Identity, error) {
	s.calls++
	return s.signUp(p)
}

func (s *stubProvider) CreateUser(_ context.Context, p identity.CreateUserParams) (*domain.Identity, error) {
	s.calls++
	return s.createUser(p)
}

var errStoreDown = errors.New("store down")

type brokenProfiles struct{}

func (brokenProfiles) UpsertProfile(context.Context, domain.Profile) (domain.Profile, error) {
	return domain.Profile{}, errStoreDown
}

func (brokenProfiles) GetProfileByID(context.Context, string) (domain.Profile, error) {
	return domain.Profile{}, errStoreDown
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (r *recordingNotifier) NotifyRegistered(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
