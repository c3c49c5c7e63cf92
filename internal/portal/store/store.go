package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface implemented by the sqlite,
// postgres and postgrest drivers.
type Store interface {
	Profiles() Profiles

	// ApplyMigrations brings the schema up to date. Drivers that talk to a
	// schema they do not own treat it as a no-op.
	ApplyMigrations() error

	Close() error

	// Ping verifies the backing database is reachable.
	Ping(ctx context.Context) error
}

type Profiles interface {
	// UpsertProfile inserts the row or replaces the mutable columns of the
	// existing row with the same id. CreatedAt of an existing row is kept.
	UpsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error)

	// GetProfileByID returns ErrNotFound when no row exists.
	GetProfileByID(ctx context.Context, id string) (domain.Profile, error)
}
