package portalsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Stable error codes.
const (
	CodeValidation         = "validation_error"
	CodeAlreadyRegistered  = "already_registered"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeRejected           = "rejected"
	CodeConfiguration      = "configuration_error"
	CodeProvider           = "provider_error"
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotConfirmed  = "email_not_confirmed"
	CodeUnauthenticated    = "unauthenticated"
	CodeNotFound           = "not_found"
	CodeInvalidRequest     = "invalid_request"
	CodeInternal           = "internal_error"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	StatusCode int `json:"-"`

	Message    string            `json:"error"`
	Code       string            `json:"code,omitempty"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	RetryAfter int               `json:"retry_after,omitempty"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("portal: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("portal: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// parseErrorResponse builds an *ErrorResponse from a non-2xx answer.
func parseErrorResponse(resp *http.Response, body []byte) error {
	errResp := &ErrorResponse{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(body, errResp); err != nil || errResp.Message == "" {
		errResp.Message = http.StatusText(resp.StatusCode)
	}
	return errResp
}
