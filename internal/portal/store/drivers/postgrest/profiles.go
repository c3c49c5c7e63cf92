package postgrest

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/store"
)

// row is the wire shape of a profiles row. created_at is left to the
// column default so a merge keeps the original value.
type row struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     *string    `json:"phone"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type profilesRepo struct {
	s *Store
}

func (r *profilesRepo) UpsertProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	in := row{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		UpdatedAt: time.Now().UTC(),
	}
	if p.Phone != "" {
		in.Phone = &p.Phone
	}

	var rows []row
	_, err := r.s.client(ctx).From(table).
		Upsert([]row{in}, "id", "representation", "").
		ExecuteToWithContext(ctx, &rows)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("postgrest: upsert profile: %w", err)
	}
	if len(rows) == 0 {
		return mapRow(in), nil
	}
	return mapRow(rows[0]), nil
}

func (r *profilesRepo) GetProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	var rows []row
	_, err := r.s.client(ctx).From(table).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		ExecuteToWithContext(ctx, &rows)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("postgrest: get profile: %w", err)
	}
	if len(rows) == 0 {
		return domain.Profile{}, store.ErrNotFound
	}
	return mapRow(rows[0]), nil
}

func mapRow(r row) domain.Profile {
	p := domain.Profile{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	return p
}
