package http

import (
	"net/http"

	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

type AdminConfirmHandler struct {
	RegistrationService *service.RegistrationService
}

// ServeHTTP godoc
//
//	@Summary		Admin Confirm Endpoint
//	@Description	Marks a registered address confirmed through the identity backend's administrative API.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.AdminConfirmRequest	true	"Address to confirm"
//	@Success		200		{object}	portalsdk.AdminConfirmResponse	"Confirmed, or already confirmed"
//	@Failure		400		{object}	portalsdk.ErrorResponse			"Missing or invalid email"
//	@Failure		404		{object}	portalsdk.ErrorResponse			"No identity with that address"
//	@Failure		500		{object}	portalsdk.ErrorResponse			"Administrative key not configured or backend failure"
//	@Router			/api/auth/admin-confirm [post].
func (h *AdminConfirmHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.AdminConfirmRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	res, err := h.RegistrationService.ConfirmEmailAsAdmin(r.Context(), service.AdminConfirmInput{Email: req.Email})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, portalsdk.AdminConfirmResponse{
		Message:          res.Message,
		User:             portalsdk.UserSummary{ID: res.Identity.ID, Email: res.Identity.Email},
		AlreadyConfirmed: res.AlreadyConfirmed,
	})
}
