package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/stretchr/testify/require"
)

func TestDeriveDisplayName(t *testing.T) {
	t.Run("profile wins", func(t *testing.T) {
		n := domain.DeriveDisplayName(
			&domain.Profile{FirstName: "jane", LastName: "doe"},
			domain.Identity{Email: "x@example.com", Metadata: map[string]any{"first_name": "Other"}},
		)
		require.Equal(t, "Jane Doe", n.Full())
	})

	t.Run("metadata first and last", func(t *testing.T) {
		n := domain.DeriveDisplayName(nil, domain.Identity{
			Metadata: map[string]any{"first_name": " ada ", "last_name": "lovelace"},
		})
		require.Equal(t, domain.DisplayName{First: "Ada", Last: "Lovelace"}, n)
	})

	t.Run("empty profile falls through to metadata", func(t *testing.T) {
		n := domain.DeriveDisplayName(&domain.Profile{}, domain.Identity{
			Metadata: map[string]any{"full_name": "grace brewster hopper"},
		})
		require.Equal(t, "Grace", n.First)
		require.Equal(t, "Brewster hopper", n.Last)
	})

	t.Run("name metadata", func(t *testing.T) {
		n := domain.DeriveDisplayName(nil, domain.Identity{Metadata: map[string]any{"name": "linus"}})
		require.Equal(t, domain.DisplayName{First: "Linus"}, n)
	})

	t.Run("non string metadata is ignored", func(t *testing.T) {
		n := domain.DeriveDisplayName(nil, domain.Identity{
			Email:    "jane.doe@example.com",
			Metadata: map[string]any{"first_name": 42},
		})
		require.Equal(t, "Jane.doe", n.First)
	})

	t.Run("email local part", func(t *testing.T) {
		n := domain.DeriveDisplayName(nil, domain.Identity{Email: "jane@example.com"})
		require.Equal(t, "Jane", n.Full())
	})

	t.Run("default", func(t *testing.T) {
		n := domain.DeriveDisplayName(nil, domain.Identity{})
		require.Equal(t, domain.DefaultGreetingName, n.Full())
	})
}

func TestClassifyRegistration(t *testing.T) {
	now := time.Now()

	require.Equal(t, domain.StatusUnknown, domain.ClassifyRegistration(nil))
	require.Equal(t, domain.StatusUnknown, domain.ClassifyRegistration(&domain.Identity{}))
	require.Equal(t, domain.StatusRegistered,
		domain.ClassifyRegistration(&domain.Identity{ID: "u", EmailConfirmedAt: &now}))
	require.Equal(t, domain.StatusConfirmationRequired,
		domain.ClassifyRegistration(&domain.Identity{ID: "u", ConfirmationSentAt: &now}))
	require.Equal(t, domain.StatusConfirmationRequired,
		domain.ClassifyRegistration(&domain.Identity{ID: "u"}))
}

func TestIdentityConfirmation(t *testing.T) {
	now := time.Now()

	pending := domain.Identity{ConfirmationSentAt: &now}
	require.True(t, pending.ConfirmationPending())
	require.False(t, pending.Confirmed())

	confirmed := domain.Identity{ConfirmationSentAt: &now, EmailConfirmedAt: &now}
	require.False(t, confirmed.ConfirmationPending())
	require.True(t, confirmed.Confirmed())
}

func TestProfileFromIdentity(t *testing.T) {
	p := domain.ProfileFromIdentity(domain.Identity{
		ID:       "u-1",
		Email:    "jane@example.com",
		Metadata: domain.ProfileMetadata("Jane", "Doe", "+61 400 000 000"),
	})

	require.Equal(t, "u-1", p.ID)
	require.Equal(t, "Jane", p.FirstName)
	require.Equal(t, "Doe", p.LastName)
	require.Equal(t, "+61 400 000 000", p.Phone)
	require.Equal(t, "jane@example.com", p.Email)
}

func TestProfileMetadata(t *testing.T) {
	md := domain.ProfileMetadata("Jane", "", "")
	require.Equal(t, "Jane", md[domain.MetaFullName])

	id := domain.Identity{Metadata: map[string]any{domain.MetaFirstName: "  Jane  "}}
	require.Equal(t, "Jane", id.MetadataString(domain.MetaFirstName))
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	require.False(t, domain.Session{}.Expired(now))
	require.True(t, domain.Session{ExpiresAt: now}.Expired(now))
	require.False(t, domain.Session{ExpiresAt: now.Add(time.Minute)}.Expired(now))
}
