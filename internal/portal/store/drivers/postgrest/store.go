// Package postgrest stores profiles in the hosted project's database through
// its REST interface. The schema is owned by the project, so migrations are
// not applied from here.
package postgrest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/portal/internal/portal/store"
	postgrestgo "github.com/supabase-community/postgrest-go"
)

const (
	table  = "profiles"
	schema = "public"
)

// Config points the driver at a project.
type Config struct {
	BaseURL string
	// APIKey is sent as the apikey header and, unless a user token is
	// attached to the context, as the bearer.
	APIKey string
}

type Store struct {
	restURL string
	apiKey  string
}

var _ store.Store = (*Store)(nil)

func NewStore(cfg Config) (*Store, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, errors.New("postgrest: base url and api key are required")
	}

	restURL := strings.TrimSuffix(cfg.BaseURL, "/") + "/rest/v1"
	if _, err := postgrestgo.NewClientWithError(restURL, schema, nil); err != nil {
		return nil, fmt.Errorf("postgrest: %w", err)
	}
	return &Store{restURL: restURL, apiKey: cfg.APIKey}, nil
}

type ctxKey struct{}

// WithAccessToken makes requests carrying ctx run as the signed-in user so
// row level security applies.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, token)
}

// client returns a client authorised as the user attached to ctx, or with
// the API key. Clients are per call since the SDK keeps the bearer on the
// client itself.
func (s *Store) client(ctx context.Context) *postgrestgo.Client {
	bearer := s.apiKey
	if tok, ok := ctx.Value(ctxKey{}).(string); ok && tok != "" {
		bearer = tok
	}
	return postgrestgo.NewClient(s.restURL, schema, map[string]string{
		"apikey":        s.apiKey,
		"Authorization": "Bearer " + bearer,
	})
}

func (s *Store) Profiles() store.Profiles { return &profilesRepo{s: s} }

func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return nil }

// Ping reads a single id from the table.
func (s *Store) Ping(ctx context.Context) error {
	_, _, err := s.client(ctx).From(table).Select("id", "", false).Limit(1, "").ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("postgrest: %w", err)
	}
	return nil
}
