package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/portal/internal/portal/service"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// statusFor maps a service failure kind to an HTTP status and wire code.
func statusFor(kind service.Kind) (int, string) {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest, portalsdk.CodeValidation
	case service.KindAlreadyRegistered:
		return http.StatusBadRequest, portalsdk.CodeAlreadyRegistered
	case service.KindRejected:
		return http.StatusBadRequest, portalsdk.CodeRejected
	case service.KindInvalidCredentials:
		return http.StatusBadRequest, portalsdk.CodeInvalidCredentials
	case service.KindEmailNotConfirmed:
		return http.StatusForbidden, portalsdk.CodeEmailNotConfirmed
	case service.KindUnauthenticated:
		return http.StatusUnauthorized, portalsdk.CodeUnauthenticated
	case service.KindNotFound:
		return http.StatusNotFound, portalsdk.CodeNotFound
	case service.KindRateLimited:
		return http.StatusTooManyRequests, portalsdk.CodeRateLimited
	case service.KindConfiguration:
		return http.StatusInternalServerError, portalsdk.CodeConfiguration
	default:
		return http.StatusInternalServerError, portalsdk.CodeProvider
	}
}

// writeError renders err as a portalsdk.ErrorResponse. Errors that are not
// *service.Error become a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		slogx.FromContext(r.Context()).Error("unhandled error", "error", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, portalsdk.ErrorResponse{
			Message: "Internal server error",
			Code:    portalsdk.CodeInternal,
		})
		return
	}

	status, code := statusFor(se.Kind)
	resp := portalsdk.ErrorResponse{
		Message: se.Message,
		Code:    code,
		Details: se.Detail,
		Fields:  se.Fields,
	}
	if se.RetryAfter > 0 {
		resp.RetryAfter = int(math.Ceil(se.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
	}
	httpx.WriteJSON(w, status, resp)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	httpx.WriteJSON(w, http.StatusBadRequest, portalsdk.ErrorResponse{
		Message: msg,
		Code:    portalsdk.CodeInvalidRequest,
	})
}
