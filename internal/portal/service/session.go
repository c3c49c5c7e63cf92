package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/identity"
	"github.com/aussiebroadwan/portal/internal/portal/metrics"
	"github.com/aussiebroadwan/portal/internal/portal/notify"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
)

// Additional session messages.
const (
	MsgLoggedIn      = "Login successful"
	MsgLoggedOut     = "Logged out"
	MsgProfileSaved  = "Profile saved"
	MsgWelcomeSent   = "Welcome email sent successfully"
	MsgConfirmFailed = "Email confirmation link is invalid or has expired"
)

// Session is an active session as seen by callers. Rotated is set when the
// access token had to be refreshed and the caller must persist the new
// tokens.
type Session struct {
	domain.Session
	Rotated bool
}

// DashboardView is what the dashboard renders for a signed-in user.
type DashboardView struct {
	User        domain.Identity
	Profile     *domain.Profile
	DisplayName domain.DisplayName
}

// SessionService handles sign-in, sign-out and everything a signed-in user
// can do.
type SessionService struct {
	Identity identity.Provider
	Profiles store.Profiles
	Mailer   *notify.Mailer

	// TokenContext, when set, scopes profile seeding to the user the
	// session was just issued for so row level security admits it.
	TokenContext func(ctx context.Context, accessToken string) context.Context

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login signs the user in. A missing profile row is seeded from the
// identity's metadata; failing to do so does not fail the login.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (domain.Session, error) {
	l := slogx.FromContext(ctx)
	in.Email = strings.TrimSpace(in.Email)

	if fields := ValidateLogin(in); len(fields) > 0 {
		metrics.RecordLogin(string(KindValidation))
		return domain.Session{}, validationError(fields)
	}

	sess, err := s.Identity.SignIn(ctx, domain.Credential{Email: in.Email, Password: in.Password})
	if err != nil {
		se := loginError(err)
		metrics.RecordLogin(string(se.Kind))
		l.Info("login failed", "kind", se.Kind, "error", err)
		return domain.Session{}, se
	}

	s.ensureProfile(ctx, sess)

	metrics.RecordLogin("success")
	l.Info("user logged in", "user_id", sess.User.ID)
	return sess, nil
}

func loginError(err error) *Error {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return &Error{Kind: KindInvalidCredentials, Message: MsgInvalidCredentials, Err: err}
	case errors.Is(err, identity.ErrEmailNotConfirmed):
		return &Error{Kind: KindEmailNotConfirmed, Message: MsgEmailNotConfirmed, Err: err}
	case errors.Is(err, identity.ErrRateLimited):
		return &Error{Kind: KindRateLimited, Message: MsgLoginRateLimited, RetryAfter: DefaultCooldown, Err: err}
	default:
		return &Error{Kind: KindProvider, Message: MsgProviderFailure, Detail: identity.Detail(err), Err: err}
	}
}

func (s *SessionService) ensureProfile(ctx context.Context, sess domain.Session) {
	id := sess.User
	if s.Profiles == nil || id.ID == "" {
		return
	}
	l := slogx.FromContext(ctx)
	if s.TokenContext != nil && sess.AccessToken != "" {
		ctx = s.TokenContext(ctx, sess.AccessToken)
	}

	_, err := s.Profiles.GetProfileByID(ctx, id.ID)
	if err == nil {
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		l.Warn("profile lookup failed", "user_id", id.ID, "error", err)
		return
	}

	if _, err := s.Profiles.UpsertProfile(ctx, domain.ProfileFromIdentity(id)); err != nil {
		l.Warn("profile seed failed", "user_id", id.ID, "error", err)
		metrics.RecordProfileWriteFailure()
		return
	}
	l.Info("profile seeded from identity", "user_id", id.ID)
}

// Logout revokes the session. Backend failures are logged only; the caller
// always clears its cookies.
func (s *SessionService) Logout(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	if err := s.Identity.SignOut(ctx, accessToken); err != nil {
		slogx.FromContext(ctx).Warn("sign out failed", "error", err)
	}
}

// Resolve returns the active session for the given tokens or nil. An
// invalid or expired access token is refreshed at most once. Any backend
// failure counts as no session.
func (s *SessionService) Resolve(ctx context.Context, accessToken, refreshToken string) *Session {
	l := slogx.FromContext(ctx)

	if accessToken != "" {
		user, err := s.Identity.GetUser(ctx, accessToken)
		if err == nil {
			return &Session{Session: domain.Session{
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
				ExpiresAt:    tokenExpiry(accessToken),
				User:         user,
			}}
		}
		if !errors.Is(err, identity.ErrInvalidSession) {
			l.Warn("session lookup failed", "error", err)
		}
	}

	if refreshToken == "" {
		return nil
	}

	sess, err := s.Identity.Refresh(ctx, refreshToken)
	if err != nil {
		if !errors.Is(err, identity.ErrInvalidSession) {
			l.Warn("session refresh failed", "error", err)
		}
		return nil
	}
	if sess.Expired(s.now()) {
		return nil
	}

	l.Debug("session refreshed", "user_id", sess.User.ID)
	return &Session{Session: sess, Rotated: true}
}

// tokenExpiry reads exp from an access token the backend has already
// accepted. The signature is not checked here.
func tokenExpiry(accessToken string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Dashboard assembles the dashboard view. A missing or unreadable profile
// row leaves Profile nil.
func (s *SessionService) Dashboard(ctx context.Context, sess domain.Session) DashboardView {
	view := DashboardView{User: sess.User}

	if s.Profiles != nil {
		p, err := s.Profiles.GetProfileByID(ctx, sess.User.ID)
		switch {
		case err == nil:
			view.Profile = &p
		case errors.Is(err, store.ErrNotFound):
		default:
			slogx.FromContext(ctx).Warn("profile read failed", "user_id", sess.User.ID, "error", err)
		}
	}

	view.DisplayName = domain.DeriveDisplayName(view.Profile, sess.User)
	return view
}

// SaveProfile upserts the signed-in user's profile row and mirrors the names
// into the identity's metadata.
func (s *SessionService) SaveProfile(ctx context.Context, sess domain.Session, in ProfileInput) (domain.Profile, error) {
	l := slogx.FromContext(ctx)

	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)

	if fields := ValidateProfile(in); len(fields) > 0 {
		return domain.Profile{}, validationError(fields)
	}

	p, err := s.Profiles.UpsertProfile(ctx, domain.Profile{
		ID:        sess.User.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Email:     sess.User.Email,
	})
	if err != nil {
		metrics.RecordProfileWriteFailure()
		return domain.Profile{}, err
	}

	md := domain.ProfileMetadata(in.FirstName, in.LastName, in.Phone)
	if _, err := s.Identity.UpdateUserMetadata(ctx, sess.AccessToken, md); err != nil {
		l.Warn("metadata update failed", "user_id", sess.User.ID, "error", err)
	}

	l.Info("profile saved", "user_id", sess.User.ID)
	return p, nil
}

// ConfirmEmail exchanges an emailed token hash for a session.
func (s *SessionService) ConfirmEmail(ctx context.Context, tokenHash, verifyType string) (domain.Session, error) {
	if tokenHash == "" {
		return domain.Session{}, &Error{Kind: KindUnauthenticated, Message: MsgConfirmFailed}
	}

	sess, err := s.Identity.VerifyEmail(ctx, tokenHash, verifyType)
	if err != nil {
		slogx.FromContext(ctx).Info("email confirmation failed", "error", err)
		if errors.Is(err, identity.ErrInvalidSession) || errors.Is(err, identity.ErrInvalidCredentials) {
			return domain.Session{}, &Error{Kind: KindUnauthenticated, Message: MsgConfirmFailed, Err: err}
		}
		return domain.Session{}, &Error{Kind: KindProvider, Message: MsgProviderFailure, Detail: identity.Detail(err), Err: err}
	}

	s.ensureProfile(ctx, sess)
	return sess, nil
}

// SendWelcome mails the welcome message and returns the provider's message
// id.
func (s *SessionService) SendWelcome(ctx context.Context, in WelcomeInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if msg := ValidateWelcome(in); msg != "" {
		return "", &Error{Kind: KindValidation, Message: msg}
	}

	mailer := s.Mailer
	if mailer == nil {
		mailer = notify.NewMailer(notify.MailerConfig{})
	}

	id, err := mailer.SendWelcome(ctx, in.Name, in.Email)
	if err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			return "", &Error{Kind: KindConfiguration, Message: MsgEmailConfiguration, Detail: err.Error(), Err: err}
		}
		slogx.FromContext(ctx).Error("welcome email failed", "error", err)
		return "", &Error{Kind: KindProvider, Message: "Failed to send welcome email", Detail: err.Error(), Err: err}
	}

	slogx.FromContext(ctx).Info("welcome email sent", "message_id", id)
	return id, nil
}
