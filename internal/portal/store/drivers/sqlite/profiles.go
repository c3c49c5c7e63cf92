package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
)

const upsertProfile = `
INSERT INTO profiles (id, first_name, last_name, phone, email, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    first_name = excluded.first_name,
    last_name  = excluded.last_name,
    phone      = excluded.phone,
    email      = excluded.email,
    updated_at = excluded.updated_at
RETURNING id, first_name, last_name, phone, email, created_at, updated_at`

const getProfileByID = `
SELECT id, first_name, last_name, phone, email, created_at, updated_at
FROM profiles
WHERE id = ?`

type profilesRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *profilesRepo) UpsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	now := r.now().UTC()
	row := r.db.QueryRowContext(ctx, upsertProfile,
		p.ID,
		p.FirstName,
		p.LastName,
		mapStringNull(p.Phone),
		p.Email,
		now,
		now,
	)
	return scanProfile(row)
}

func (r *profilesRepo) GetProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, getProfileByID, id))
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return p, nil
}

func scanProfile(row *sql.Row) (domain.Profile, error) {
	var (
		p     domain.Profile
		phone sql.NullString
	)
	if err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &phone, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Profile{}, err
	}
	p.Phone = mapNullString(phone)
	return p, nil
}
