package memory_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/identity"
	"github.com/aussiebroadwan/portal/internal/portal/identity/drivers/memory"
	"github.com/stretchr/testify/require"
)

var cred = domain.Credential{Email: "Jane@Example.com", Password: "longenough1"}

func newProvider(t *testing.T, autoConfirm bool) *memory.Provider {
	t.Helper()
	p, err := memory.New(memory.Config{Secret: "test-secret", AutoConfirm: autoConfirm})
	require.NoError(t, err)
	return p
}

func TestSignUp(t *testing.T) {
	t.Run("auto confirm registers immediately", func(t *testing.T) {
		p := newProvider(t, true)

		id, err := p.SignUp(t.Context(), identity.SignUpParams{
			Credential: cred,
			Metadata:   domain.ProfileMetadata("Jane", "Doe", ""),
		})
		require.NoError(t, err)
		require.NotEmpty(t, id.ID)
		require.Equal(t, "jane@example.com", id.Email)
		require.Equal(t, domain.StatusRegistered, domain.ClassifyRegistration(id))
		require.Equal(t, "Jane", id.MetadataString(domain.MetaFirstName))

		_, err = p.SignUp(t.Context(), identity.SignUpParams{Credential: cred})
		require.ErrorIs(t, err, identity.ErrAlreadyRegistered)
	})

	t.Run("pending confirmation can sign up again", func(t *testing.T) {
		p := newProvider(t, false)

		first, err := p.SignUp(t.Context(), identity.SignUpParams{Credential: cred})
		require.NoError(t, err)
		require.Equal(t, domain.StatusConfirmationRequired, domain.ClassifyRegistration(first))

		second, err := p.SignUp(t.Context(), identity.SignUpParams{Credential: cred})
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)
	})
}

func TestSignInAndConfirm(t *testing.T) {
	p := newProvider(t, false)
	_, err := p.SignUp(t.Context(), identity.SignUpParams{Credential: cred})
	require.NoError(t, err)

	t.Run("unconfirmed", func(t *testing.T) {
		_, err := p.SignIn(t.Context(), cred)
		require.ErrorIs(t, err, identity.ErrEmailNotConfirmed)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := p.SignIn(t.Context(), domain.Credential{Email: cred.Email, Password: "nope-nope"})
		require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := p.SignIn(t.Context(), domain.Credential{Email: "ghost@example.com", Password: "whatever1"})
		require.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("confirm then sign in", func(t *testing.T) {
		hash, ok := p.PendingConfirmation(cred.Email)
		require.True(t, ok)

		sess, err := p.VerifyEmail(t.Context(), hash, "email")
		require.NoError(t, err)
		require.True(t, sess.User.Confirmed())

		_, err = p.VerifyEmail(t.Context(), hash, "email")
		require.ErrorIs(t, err, identity.ErrInvalidSession)

		sess, err = p.SignIn(t.Context(), cred)
		require.NoError(t, err)
		require.NotEmpty(t, sess.AccessToken)
		require.NotEmpty(t, sess.RefreshToken)
	})
}

func TestSessionLifecycle(t *testing.T) {
	p := newProvider(t, true)
	_, err := p.SignUp(t.Context(), identity.SignUpParams{Credential: cred})
	require.NoError(t, err)

	sess, err := p.SignIn(t.Context(), cred)
	require.NoError(t, err)

	t.Run("get user", func(t *testing.T) {
		u, err := p.GetUser(t.Context(), sess.AccessToken)
		require.NoError(t, err)
		require.Equal(t, sess.User.ID, u.ID)
	})

	t.Run("update metadata merges", func(t *testing.T) {
		u, err := p.UpdateUserMetadata(t.Context(), sess.AccessToken, map[string]any{"phone": "123"})
		require.NoError(t, err)
		require.Equal(t, "123", u.MetadataString("phone"))
	})

	t.Run("refresh is single use", func(t *testing.T) {
		next, err := p.Refresh(t.Context(), sess.RefreshToken)
		require.NoError(t, err)
		require.NotEqual(t, sess.RefreshToken, next.RefreshToken)

		_, err = p.Refresh(t.Context(), sess.RefreshToken)
		require.ErrorIs(t, err, identity.ErrInvalidSession)
		sess = next
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := p.GetUser(t.Context(), "not-a-jwt")
		require.ErrorIs(t, err, identity.ErrInvalidSession)
	})

	t.Run("sign out revokes", func(t *testing.T) {
		require.NoError(t, p.SignOut(t.Context(), sess.AccessToken))

		_, err := p.GetUser(t.Context(), sess.AccessToken)
		require.ErrorIs(t, err, identity.ErrInvalidSession)
		_, err = p.Refresh(t.Context(), sess.RefreshToken)
		require.ErrorIs(t, err, identity.ErrInvalidSession)
	})
}

func TestAccessTokenExpiry(t *testing.T) {
	p := newProvider(t, true)
	now := time.Now()
	p.SetClock(func() time.Time { return now })

	_, err := p.SignUp(t.Context(), identity.SignUpParams{Credential: cred})
	require.NoError(t, err)
	sess, err := p.SignIn(t.Context(), cred)
	require.NoError(t, err)

	p.SetClock(func() time.Time { return now.Add(2 * time.Hour) })
	_, err = p.GetUser(t.Context(), sess.AccessToken)
	require.ErrorIs(t, err, identity.ErrInvalidSession)

	require.NoError(t, p.SignOut(t.Context(), mustSignIn(t, p)))
	require.Equal(t, 1, p.Sweep(now.Add(4*time.Hour)))
}

func TestCreateUser(t *testing.T) {
	p := newProvider(t, false)

	id, err := p.CreateUser(t.Context(), identity.CreateUserParams{Credential: cred})
	require.NoError(t, err)
	require.True(t, id.Confirmed())

	_, err = p.CreateUser(t.Context(), identity.CreateUserParams{Credential: cred})
	require.ErrorIs(t, err, identity.ErrAlreadyRegistered)
}

func mustSignIn(t *testing.T, p *memory.Provider) string {
	t.Helper()
	sess, err := p.SignIn(t.Context(), cred)
	require.NoError(t, err)
	return sess.AccessToken
}

func TestAdminConfirmEmail(t *testing.T) {
	p := newProvider(t, false)

	_, err := p.AdminConfirmEmail(t.Context(), "nobody@example.com")
	require.ErrorIs(t, err, identity.ErrUserNotFound)

	id, err := p.SignUp(t.Context(), identity.SignUpParams{Credential: cred})
	require.NoError(t, err)
	_, pending := p.PendingConfirmation(cred.Email)
	require.True(t, pending)

	res, err := p.AdminConfirmEmail(t.Context(), " JANE@example.com ")
	require.NoError(t, err)
	require.False(t, res.AlreadyConfirmed)
	require.Equal(t, id.ID, res.Identity.ID)
	require.True(t, res.Identity.Confirmed())

	_, pending = p.PendingConfirmation(cred.Email)
	require.False(t, pending, "the emailed link is no longer needed")

	_, err = p.SignIn(t.Context(), cred)
	require.NoError(t, err)

	res, err = p.AdminConfirmEmail(t.Context(), cred.Email)
	require.NoError(t, err)
	require.True(t, res.AlreadyConfirmed)
}
