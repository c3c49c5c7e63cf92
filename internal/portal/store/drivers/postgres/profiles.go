package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
)

const upsertProfile = `INSERT INTO profiles (id, first_name, last_name, phone, email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (id) DO UPDATE SET
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    phone = EXCLUDED.phone,
    email = EXCLUDED.email,
    updated_at = EXCLUDED.updated_at
RETURNING id, first_name, last_name, phone, email, created_at, updated_at`

const getProfileByID = `SELECT id, first_name, last_name, phone, email, created_at, updated_at
FROM profiles
WHERE id = $1`

type profilesRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *profilesRepo) UpsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	var phone sql.NullString
	if p.Phone != "" {
		phone = sql.NullString{String: p.Phone, Valid: true}
	}

	out, err := scanProfile(r.db.QueryRowContext(ctx, upsertProfile,
		p.ID, p.FirstName, p.LastName, phone, p.Email, r.now().UTC()))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("upsert profile: %w", err)
	}
	return out, nil
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
	if phone.Valid {
		p.Phone = phone.String
	}
	return p, nil
}
