package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

type LoginHandler struct {
	Sessions *Sessions
	Guard    service.Guard
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Signs in with email and password. The session is returned as HttpOnly cookies.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	portalsdk.LoginResponse	"Signed in"
//	@Failure		400		{object}	portalsdk.ErrorResponse	"Validation failed or invalid credentials"
//	@Failure		403		{object}	portalsdk.ErrorResponse	"Email not confirmed"
//	@Failure		429		{object}	portalsdk.ErrorResponse	"Rate limited"
//	@Failure		500		{object}	portalsdk.ErrorResponse	"Identity backend unreachable"
//	@Router			/api/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	sess, err := h.Sessions.Service.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Sessions.setCookies(w, sess)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.LoginResponse{
		Message:   service.MsgLoggedIn,
		User:      userSummary(sess.User),
		Status:    string(domain.StatusRegistered),
		Redirect:  h.Guard.PostLoginTarget(req.RedirectedFrom),
		ExpiresAt: sess.ExpiresAt,
	})
}

type LogoutHandler struct {
	Sessions *Sessions
}

// ServeHTTP godoc
//
//	@Summary		Logout Endpoint
//	@Description	Revokes the session with the identity backend and clears the session cookies. Always succeeds.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	portalsdk.MessageResponse
//	@Router			/api/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.MessageResponse{Message: service.MsgLoggedOut})
}

func (h *LogoutHandler) logout(w http.ResponseWriter, r *http.Request) {
	token := httpx.BearerToken(r)
	if sess := SessionFromContext(r.Context()); sess != nil {
		token = sess.AccessToken
	}
	if token == "" {
		token = httpx.CookieValue(r, AccessCookie)
	}
	h.Sessions.Service.Logout(r.Context(), token)
	h.Sessions.clearCookies(w)
}

type SessionHandler struct {
	Sessions *Sessions
}

// ServeHTTP godoc
//
//	@Summary		Current Session Endpoint
//	@Description	Returns the signed-in user, the stored profile and the display name used by the dashboard.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	portalsdk.SessionResponse
//	@Failure		401	{object}	portalsdk.ErrorResponse	"No active session"
//	@Router			/api/auth/session [get].
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	view := h.Sessions.Service.Dashboard(r.Context(), *sess)

	resp := portalsdk.SessionResponse{
		User:        userSummary(view.User),
		DisplayName: view.DisplayName.Full(),
		ExpiresAt:   sess.ExpiresAt,
	}
	if view.Profile != nil {
		p := profileResponse(*view.Profile)
		resp.Profile = &p
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func userSummary(id domain.Identity) portalsdk.UserSummary {
	return portalsdk.UserSummary{ID: id.ID, Email: id.Email}
}

func profileResponse(p domain.Profile) portalsdk.Profile {
	return portalsdk.Profile{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Email:     p.Email,
		CreatedAt: p.CreatedAt.UTC().Truncate(time.Second),
		UpdatedAt: p.UpdatedAt.UTC().Truncate(time.Second),
	}
}
