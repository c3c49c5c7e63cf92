package service_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/identity"
	"github.com/aussiebroadwan/portal/internal/portal/notify"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/internal/portal/store/drivers/postgrest"
	"github.com/stretchr/testify/require"
)

func registerUser(t *testing.T, idp identity.Provider, confirmed bool) domain.Identity {
	t.Helper()
	md := domain.ProfileMetadata("Jane", "Doe", "")
	cred := domain.Credential{Email: "jane@example.com", Password: "longenough1"}

	var (
		id  *domain.Identity
		err error
	)
	if confirmed {
		id, err = idp.CreateUser(t.Context(), identity.CreateUserParams{Credential: cred, Metadata: md})
	} else {
		id, err = idp.SignUp(t.Context(), identity.SignUpParams{Credential: cred, Metadata: md})
	}
	require.NoError(t, err)
	return *id
}

func TestLogin(t *testing.T) {
	t.Run("seeds a missing profile", func(t *testing.T) {
		idp := newIdentity(t, false)
		profiles := newProfiles(t)
		user := registerUser(t, idp, true)
		svc := &service.SessionService{Identity: idp, Profiles: profiles}

		sess, err := svc.Login(t.Context(), service.LoginInput{Email: " jane@example.com", Password: "longenough1"})
		require.NoError(t, err)
		require.Equal(t, user.ID, sess.User.ID)
		require.NotEmpty(t, sess.AccessToken)

		p, err := profiles.GetProfileByID(t.Context(), user.ID)
		require.NoError(t, err)
		require.Equal(t, "Jane", p.FirstName)
		require.Equal(t, "Doe", p.LastName)
	})

	t.Run("wrong password", func(t *testing.T) {
		idp := newIdentity(t, false)
		registerUser(t, idp, true)
		svc := &service.SessionService{Identity: idp, Profiles: newProfiles(t)}

		_, err := svc.Login(t.Context(), service.LoginInput{Email: "jane@example.com", Password: "wrong-password"})
		se := requireKind(t, err, service.KindInvalidCredentials)
		require.Equal(t, service.MsgInvalidCredentials, se.Message)
	})

	t.Run("unconfirmed", func(t *testing.T) {
		idp := newIdentity(t, false)
		registerUser(t, idp, false)
		svc := &service.SessionService{Identity: idp, Profiles: newProfiles(t)}

		_, err := svc.Login(t.Context(), service.LoginInput{Email: "jane@example.com", Password: "longenough1"})
		requireKind(t, err, service.KindEmailNotConfirmed)
	})

	t.Run("invalid form", func(t *testing.T) {
		svc := &service.SessionService{Identity: &stubProvider{}}
		_, err := svc.Login(t.Context(), service.LoginInput{Email: "nope"})
		se := requireKind(t, err, service.KindValidation)
		require.Len(t, se.Fields, 2)
	})

	t.Run("profile store outage does not block login", func(t *testing.T) {
		idp := newIdentity(t, false)
		registerUser(t, idp, true)
		svc := &service.SessionService{Identity: idp, Profiles: brokenProfiles{}}

		_, err := svc.Login(t.Context(), service.LoginInput{Email: "jane@example.com", Password: "longenough1"})
		require.NoError(t, err)
	})
}

func TestResolve(t *testing.T) {
	idp := newIdentity(t, false)
	registerUser(t, idp, true)
	svc := &service.SessionService{Identity: idp, Profiles: newProfiles(t)}

	sess, err := svc.Login(t.Context(), service.LoginInput{Email: "jane@example.com", Password: "longenough1"})
	require.NoError(t, err)

	t.Run("no tokens", func(t *testing.T) {
		require.Nil(t, svc.Resolve(t.Context(), "", ""))
	})

	t.Run("valid access token", func(t *testing.T) {
		got := svc.Resolve(t.Context(), sess.AccessToken, sess.RefreshToken)
		require.NotNil(t, got)
		require.False(t, got.Rotated)
		require.Equal(t, sess.User.ID, got.User.ID)
		require.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)
	})

	t.Run("garbage without refresh", func(t *testing.T) {
		require.Nil(t, svc.Resolve(t.Context(), "not-a-token", ""))
	})

	t.Run("expired access token is refreshed once", func(t *testing.T) {
		later := time.Now().Add(2 * time.Hour)
		idp.SetClock(func() time.Time { return later })
		t.Cleanup(func() { idp.SetClock(time.Now) })

		got := svc.Resolve(t.Context(), sess.AccessToken, sess.RefreshToken)
		require.NotNil(t, got)
		require.True(t, got.Rotated)
		require.NotEqual(t, sess.AccessToken, got.AccessToken)
		require.NotEqual(t, sess.RefreshToken, got.RefreshToken)

		// The old refresh token was consumed.
		require.Nil(t, svc.Resolve(t.Context(), sess.AccessToken, sess.RefreshToken))
	})
}

func TestLogout(t *testing.T) {
	idp := newIdentity(t, false)
	registerUser(t, idp, true)
	svc := &service.SessionService{Identity: idp}

	sess, err := svc.Login(t.Context(), service.LoginInput{Email: "jane@example.com", Password: "longenough1"})
	require.NoError(t, err)

	svc.Logout(t.Context(), sess.AccessToken)
	require.Nil(t, svc.Resolve(t.Context(), sess.AccessToken, sess.RefreshToken))

	// Unknown and empty tokens are ignored.
	svc.Logout(t.Context(), sess.AccessToken)
	svc.Logout(t.Context(), "")
}

func TestDashboard(t *testing.T) {
	idp := newIdentity(t, false)
	profiles := newProfiles(t)
	user := registerUser(t, idp, true)
	svc := &service.SessionService{Identity: idp, Profiles: profiles}

	t.Run("without profile falls back to metadata", func(t *testing.T) {
		view := svc.Dashboard(t.Context(), domain.Session{User: user})
		require.Nil(t, view.Profile)
		require.Equal(t, "Jane Doe", view.DisplayName.Full())
	})

	t.Run("profile store outage", func(t *testing.T) {
		broken := &service.SessionService{Identity: idp, Profiles: brokenProfiles{}}
		view := broken.Dashboard(t.Context(), domain.Session{User: domain.Identity{ID: "x", Email: "sam@example.com"}})
		require.Nil(t, view.Profile)
		require.Equal(t, "Sam", view.DisplayName.Full())
	})

	t.Run("save profile", func(t *testing.T) {
		sess, err := svc.Login(t.Context(), service.LoginInput{Email: "jane@example.com", Password: "longenough1"})
		require.NoError(t, err)

		p, err := svc.SaveProfile(t.Context(), sess, service.ProfileInput{FirstName: " Janet ", LastName: "Doe", Phone: "0400"})
		require.NoError(t, err)
		require.Equal(t, "Janet", p.FirstName)
		require.Equal(t, user.Email, p.Email)

		view := svc.Dashboard(t.Context(), sess)
		require.NotNil(t, view.Profile)
		require.Equal(t, "Janet Doe", view.DisplayName.Full())

		refreshed, err := idp.GetUser(t.Context(), sess.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "Janet", refreshed.MetadataString(domain.MetaFirstName))

		_, err = svc.SaveProfile(t.Context(), sess, service.ProfileInput{FirstName: "Janet"})
		requireKind(t, err, service.KindValidation)
	})
}

func TestConfirmEmail(t *testing.T) {
	idp := newIdentity(t, false)
	profiles := newProfiles(t)
	user := registerUser(t, idp, false)
	svc := &service.SessionService{Identity: idp, Profiles: profiles}

	hash, ok := idp.PendingConfirmation(user.Email)
	require.True(t, ok)

	_, err := svc.ConfirmEmail(t.Context(), "", "email")
	requireKind(t, err, service.KindUnauthenticated)

	_, err = svc.ConfirmEmail(t.Context(), "bogus", "email")
	requireKind(t, err, service.KindUnauthenticated)

	sess, err := svc.ConfirmEmail(t.Context(), hash, "email")
	require.NoError(t, err)
	require.Equal(t, user.ID, sess.User.ID)
	require.True(t, sess.User.Confirmed())

	_, err = profiles.GetProfileByID(t.Context(), user.ID)
	require.NoError(t, err)

	// Links are single use.
	_, err = svc.ConfirmEmail(t.Context(), hash, "email")
	requireKind(t, err, service.KindUnauthenticated)
}

func TestSendWelcome(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		svc := &service.SessionService{Mailer: notify.NewMailer(notify.MailerConfig{})}
		_, err := svc.SendWelcome(t.Context(), service.WelcomeInput{Name: "Jane", Email: "jane@example.com"})
		se := requireKind(t, err, service.KindConfiguration)
		require.Equal(t, service.MsgEmailConfiguration, se.Message)
		require.Contains(t, se.Detail, "RESEND_API_KEY")
	})

	t.Run("invalid", func(t *testing.T) {
		svc := &service.SessionService{}
		_, err := svc.SendWelcome(t.Context(), service.WelcomeInput{Name: "Jane", Email: "bad"})
		se := requireKind(t, err, service.KindValidation)
		require.Equal(t, "Invalid email format", se.Message)
	})

	t.Run("sent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"msg-1"}`))
		}))
		defer srv.Close()

		svc := &service.SessionService{Mailer: notify.NewMailer(notify.MailerConfig{APIKey: "re_test", Endpoint: srv.URL})}
		id, err := svc.SendWelcome(t.Context(), service.WelcomeInput{Name: "Jane", Email: "jane@example.com"})
		require.NoError(t, err)
		require.Equal(t, "msg-1", id)
	})
}

// rlsServer is a profiles table behind row level security: only user
// bearers may read or write.
type rlsServer struct {
	mu      sync.Mutex
	bearers []string
	rows    map[string]json.RawMessage
}

func newRLSProfiles(t *testing.T) (*rlsServer, store.Profiles) {
	t.Helper()
	rs := &rlsServer{rows: map[string]json.RawMessage{}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		defer rs.mu.Unlock()

		bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		rs.bearers = append(rs.bearers, r.Method+" "+bearer)

		w.Header().Set("Content-Type", "application/json")
		if bearer == "anon" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"code":"42501","message":"new row violates row-level security policy for table \"profiles\""}`)
			return
		}

		switch r.Method {
		case http.MethodGet:
			id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq.")
			if row, ok := rs.rows[id]; ok {
				_, _ = w.Write(append(append([]byte("["), row...), ']'))
				return
			}
			_, _ = io.WriteString(w, `[]`)
		case http.MethodPost:
			var in []map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			row, _ := json.Marshal(in[0])
			rs.rows[in[0]["id"].(string)] = row
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write(append(append([]byte("["), row...), ']'))
		}
	}))
	t.Cleanup(srv.Close)

	st, err := postgrest.NewStore(postgrest.Config{BaseURL: srv.URL, APIKey: "anon"})
	require.NoError(t, err)
	return rs, st.Profiles()
}

func (rs *rlsServer) calls() []string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string(nil), rs.bearers...)
}

func TestProfileSeedRunsAsUser(t *testing.T) {
	t.Run("login", func(t *testing.T) {
		idp := newIdentity(t, true)
		user := registerUser(t, idp, true)
		rs, profiles := newRLSProfiles(t)
		svc := &service.SessionService{Identity: idp, Profiles: profiles, TokenContext: postgrest.WithAccessToken}

		sess, err := svc.Login(t.Context(), service.LoginInput{Email: "jane@example.com", Password: "longenough1"})
		require.NoError(t, err)
		require.Equal(t, []string{"GET " + sess.AccessToken, "POST " + sess.AccessToken}, rs.calls())

		ctx := postgrest.WithAccessToken(t.Context(), sess.AccessToken)
		p, err := profiles.GetProfileByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "Jane", p.FirstName)
	})

	t.Run("email confirmation", func(t *testing.T) {
		idp := newIdentity(t, false)
		user := registerUser(t, idp, false)
		rs, profiles := newRLSProfiles(t)
		svc := &service.SessionService{Identity: idp, Profiles: profiles, TokenContext: postgrest.WithAccessToken}

		hash, ok := idp.PendingConfirmation(user.Email)
		require.True(t, ok)

		sess, err := svc.ConfirmEmail(t.Context(), hash, "email")
		require.NoError(t, err)
		require.Equal(t, []string{"GET " + sess.AccessToken, "POST " + sess.AccessToken}, rs.calls())
	})

	t.Run("without a token context the anon key is refused", func(t *testing.T) {
		idp := newIdentity(t, true)
		registerUser(t, idp, true)
		rs, profiles := newRLSProfiles(t)
		svc := &service.SessionService{Identity: idp, Profiles: profiles}

		_, err := svc.Login(t.Context(), service.LoginInput{Email: "jane@example.com", Password: "longenough1"})
		require.NoError(t, err)
		require.Equal(t, []string{"GET anon"}, rs.calls())
	})
}
