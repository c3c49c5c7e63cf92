package http

import (
	"net/http"

	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

type WelcomeEmailHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Send Welcome Email Endpoint
//	@Description	Sends the welcome mail through the transactional email provider.
//	@Tags			Email
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.WelcomeEmailRequest	true	"Recipient"
//	@Success		200		{object}	portalsdk.WelcomeEmailResponse
//	@Failure		400		{object}	portalsdk.ErrorResponse	"Missing name or invalid email"
//	@Failure		500		{object}	portalsdk.ErrorResponse	"Email provider not configured or failed"
//	@Router			/api/send-welcome-email [post].
func (h *WelcomeEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.WelcomeEmailRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	id, err := h.SessionService.SendWelcome(r.Context(), service.WelcomeInput{Name: req.Name, Email: req.Email})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, portalsdk.WelcomeEmailResponse{
		Success: true,
		Message: service.MsgWelcomeSent,
		ID:      id,
	})
}
