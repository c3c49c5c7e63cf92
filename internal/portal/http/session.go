package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/metrics"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// Session cookie names.
const (
	AccessCookie  = "portal_access_token"
	RefreshCookie = "portal_refresh_token"
)

// refreshCookieTTL bounds how long the refresh cookie outlives the access
// token.
const refreshCookieTTL = 30 * 24 * time.Hour

type sessionKey struct{}

func withSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session resolved for the request, or nil.
func SessionFromContext(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return s
}

// Sessions carries what the handlers need to resolve and persist sessions.
type Sessions struct {
	Service *service.SessionService
	Cookies httpx.CookieOptions

	// TokenContext, when set, lets downstream stores act as the signed-in
	// user.
	TokenContext func(ctx context.Context, accessToken string) context.Context
}

func (s *Sessions) setCookies(w http.ResponseWriter, sess domain.Session) {
	httpx.SetSessionCookie(w, s.Cookies, AccessCookie, sess.AccessToken, sess.ExpiresAt)
	if sess.RefreshToken != "" {
		httpx.SetSessionCookie(w, s.Cookies, RefreshCookie, sess.RefreshToken, time.Now().Add(refreshCookieTTL))
	}
}

func (s *Sessions) clearCookies(w http.ResponseWriter) {
	httpx.ClearCookie(w, s.Cookies, AccessCookie)
	httpx.ClearCookie(w, s.Cookies, RefreshCookie)
}

// resolve looks the session up from the bearer header or the cookies, and
// rotates the cookies when the backend had to refresh it.
func (s *Sessions) resolve(w http.ResponseWriter, r *http.Request) *domain.Session {
	if token := httpx.BearerToken(r); token != "" {
		if sess := s.Service.Resolve(r.Context(), token, ""); sess != nil {
			return &sess.Session
		}
		return nil
	}

	access := httpx.CookieValue(r, AccessCookie)
	refresh := httpx.CookieValue(r, RefreshCookie)
	if access == "" && refresh == "" {
		return nil
	}

	sess := s.Service.Resolve(r.Context(), access, refresh)
	if sess == nil {
		s.clearCookies(w)
		return nil
	}
	if sess.Rotated {
		s.setCookies(w, sess.Session)
	}
	return &sess.Session
}

// Attach resolves the session on every request and stores it in the
// context. It never rejects a request.
func (s *Sessions) Attach() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := s.resolve(w, r)
			if sess != nil {
				ctx := httpx.WithUserID(withSession(r.Context(), sess), sess.User.ID)
				if s.TokenContext != nil {
					ctx = s.TokenContext(ctx, sess.AccessToken)
				}
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require answers 401 when Attach found no session.
func Require() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if SessionFromContext(r.Context()) == nil {
				httpx.WriteJSON(w, http.StatusUnauthorized, portalsdk.ErrorResponse{
					Message: service.MsgUnauthenticated,
					Code:    portalsdk.CodeUnauthenticated,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GuardPages applies the page access rules to a request that already went
// through Attach.
func GuardPages(g service.Guard) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authenticated := SessionFromContext(r.Context()) != nil
			d := g.Decide(r.URL.Path, authenticated)
			if d.Action == service.Pass {
				if authenticated {
					httpx.NoCache(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			metrics.RecordGuardRedirect(d.Action.String())
			httpx.SeeOther(w, r, d.Location)
		})
	}
}
