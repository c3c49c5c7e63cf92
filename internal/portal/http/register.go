package http

import (
	"net/http"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

type RegisterHandler struct {
	RegistrationService *service.RegistrationService
}

// ServeHTTP godoc
//
//	@Summary		Register Endpoint
//	@Description	Creates an identity with the identity backend, stores the profile row and fires the configured post-registration delivery.
//	@Description	A failed profile write or delivery is reported in the body and does not fail the request.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.RegisterRequest	true	"Registration form"
//	@Success		201		{object}	portalsdk.RegisterResponse	"Identity created"
//	@Success		202		{object}	portalsdk.RegisterResponse	"Accepted, the backend disclosed no user"
//	@Failure		400		{object}	portalsdk.ErrorResponse		"Validation failed, already registered or refused by the backend"
//	@Failure		429		{object}	portalsdk.ErrorResponse		"Rate limited"
//	@Failure		500		{object}	portalsdk.ErrorResponse		"Identity backend unreachable or misconfigured"
//	@Router			/api/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "Invalid request body")
		return
	}

	res, err := h.RegistrationService.Register(r.Context(), registrationInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := portalsdk.RegisterResponse{
		Message:      res.Message,
		Status:       string(res.Status),
		ProfileSaved: res.ProfileSaved,
		Delivery:     string(res.Delivery),
	}
	status := http.StatusAccepted
	if res.Status != domain.StatusUnknown {
		resp.User = &portalsdk.UserSummary{ID: res.Identity.ID, Email: res.Identity.Email}
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, resp)
}

func registrationInput(req portalsdk.RegisterRequest) service.RegistrationInput {
	phone := req.Phone
	if phone == "" {
		phone = req.PhoneNumber
	}
	return service.RegistrationInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Phone:           phone,
	}
}
