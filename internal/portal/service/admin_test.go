package service_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/portal/internal/portal/identity"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/stretchr/testify/require"
)

func TestConfirmEmailAsAdmin(t *testing.T) {
	t.Run("confirms then reports already confirmed", func(t *testing.T) {
		idp := newIdentity(t, false)
		user := registerUser(t, idp, false)
		svc := &service.RegistrationService{Identity: idp}

		res, err := svc.ConfirmEmailAsAdmin(t.Context(), service.AdminConfirmInput{Email: " jane@example.com "})
		require.NoError(t, err)
		require.Equal(t, user.ID, res.Identity.ID)
		require.False(t, res.AlreadyConfirmed)
		require.Equal(t, service.MsgEmailConfirmed, res.Message)

		sessions := &service.SessionService{Identity: idp}
		_, err = sessions.Login(t.Context(), service.LoginInput{Email: "jane@example.com", Password: "longenough1"})
		require.NoError(t, err)

		res, err = svc.ConfirmEmailAsAdmin(t.Context(), service.AdminConfirmInput{Email: "jane@example.com"})
		require.NoError(t, err)
		require.True(t, res.AlreadyConfirmed)
		require.Equal(t, service.MsgAlreadyConfirmed, res.Message)
	})

	t.Run("unknown address", func(t *testing.T) {
		svc := &service.RegistrationService{Identity: newIdentity(t, false)}
		_, err := svc.ConfirmEmailAsAdmin(t.Context(), service.AdminConfirmInput{Email: "nobody@example.com"})
		se := requireKind(t, err, service.KindNotFound)
		require.Equal(t, service.MsgUserNotFound, se.Message)
	})

	t.Run("invalid email never reaches the backend", func(t *testing.T) {
		stub := &stubProvider{}
		svc := &service.RegistrationService{Identity: stub}
		_, err := svc.ConfirmEmailAsAdmin(t.Context(), service.AdminConfirmInput{Email: "nope"})
		se := requireKind(t, err, service.KindValidation)
		require.Equal(t, "Please enter a valid email address", se.Fields["email"])
		require.Zero(t, stub.calls)
	})

	t.Run("administrative key missing", func(t *testing.T) {
		stub := &stubProvider{adminConfirm: func(string) (identity.ConfirmResult, error) {
			return identity.ConfirmResult{}, identity.ErrAdminUnavailable
		}}
		svc := &service.RegistrationService{Identity: stub}
		_, err := svc.ConfirmEmailAsAdmin(t.Context(), service.AdminConfirmInput{Email: "jane@example.com"})
		se := requireKind(t, err, service.KindConfiguration)
		require.Equal(t, service.MsgAdminUnavailable, se.Message)
	})

	t.Run("backend failure keeps its detail", func(t *testing.T) {
		stub := &stubProvider{adminConfirm: func(string) (identity.ConfirmResult, error) {
			return identity.ConfirmResult{}, &identity.ProviderError{Status: http.StatusBadGateway, Message: "upstream down", Err: errors.New("502")}
		}}
		svc := &service.RegistrationService{Identity: stub}
		_, err := svc.ConfirmEmailAsAdmin(t.Context(), service.AdminConfirmInput{Email: "jane@example.com"})
		se := requireKind(t, err, service.KindProvider)
		require.Equal(t, "upstream down", se.Detail)
	})
}
