package http

import (
	"net/http"

	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

type ProfileHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Save Profile Endpoint
//	@Description	Upserts the signed-in user's profile row and mirrors the names into the identity metadata.
//	@Tags			Profile
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		portalsdk.ProfileRequest	true	"Profile fields"
//	@Success		200		{object}	portalsdk.ProfileResponse
//	@Failure		400		{object}	portalsdk.ErrorResponse	"Validation failed"
//	@Failure		401		{object}	portalsdk.ErrorResponse	"No active session"
//	@Failure		500		{object}	portalsdk.ErrorResponse	"Profile store unavailable"
//	@Router			/api/profile [post].
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.ProfileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	sess := SessionFromContext(r.Context())
	p, err := h.SessionService.SaveProfile(r.Context(), *sess, service.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		if service.KindOf(err) == "" {
			slogx.FromContext(r.Context()).Error("failed to save profile", "error", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, portalsdk.ErrorResponse{
				Message: "Failed to save profile",
				Code:    portalsdk.CodeInternal,
			})
			return
		}
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, portalsdk.ProfileResponse{
		Message: service.MsgProfileSaved,
		Profile: profileResponse(p),
	})
}
