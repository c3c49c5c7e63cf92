package gotrue

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoServiceKey is returned by admin operations on a client without a
// service role key.
var ErrNoServiceKey = errors.New("gotrue: service role key not configured")

// ErrUserNotFound is returned when an admin lookup matches no user.
var ErrUserNotFound = errors.New("gotrue: user not found")

// Error codes returned in the "error_code" field.
const (
	CodeUserAlreadyExists  = "user_already_exists"
	CodeEmailExists        = "email_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotConfirmed  = "email_not_confirmed"
	CodeOverRequestLimit   = "over_request_rate_limit"
	CodeOverEmailSendLimit = "over_email_send_rate_limit"
	CodeBadJWT             = "bad_jwt"
	CodeSessionNotFound    = "session_not_found"
	CodeUserNotFound       = "user_not_found"
	CodeOTPExpired         = "otp_expired"
	CodeInvalidGrant       = "invalid_grant"
)

// APIError is a non-2xx answer from the auth API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("gotrue: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gotrue: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsRateLimited reports a 429 or one of the over_*_rate_limit codes.
func (e *APIError) IsRateLimited() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if strings.HasPrefix(e.Code, "over_") && strings.HasSuffix(e.Code, "_rate_limit") {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
}

// IsAlreadyRegistered reports a sign-up for an address that is taken.
func (e *APIError) IsAlreadyRegistered() bool {
	switch e.Code {
	case CodeUserAlreadyExists, CodeEmailExists:
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), "already registered")
}

// IsInvalidCredentials reports a rejected email/password pair.
func (e *APIError) IsInvalidCredentials() bool {
	switch e.Code {
	case CodeInvalidCredentials, CodeInvalidGrant:
		return !e.IsEmailNotConfirmed()
	}
	return strings.Contains(strings.ToLower(e.Message), "invalid login credentials")
}

// IsEmailNotConfirmed reports a sign-in before the address was confirmed.
func (e *APIError) IsEmailNotConfirmed() bool {
	return e.Code == CodeEmailNotConfirmed ||
		strings.Contains(strings.ToLower(e.Message), "email not confirmed")
}

// IsInvalidSession reports an access or refresh token the API no longer accepts.
func (e *APIError) IsInvalidSession() bool {
	switch e.Code {
	case CodeBadJWT, CodeSessionNotFound, CodeUserNotFound, CodeOTPExpired:
		return true
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// errorBody covers both error shapes the API emits: the native
// {code, error_code, msg} and the OAuth style {error, error_description}.
type errorBody struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	apiErr.Code = eb.ErrorCode
	if apiErr.Code == "" {
		apiErr.Code = eb.Error
	}

	switch {
	case eb.Msg != "":
		apiErr.Message = eb.Msg
	case eb.ErrorDescription != "":
		apiErr.Message = eb.ErrorDescription
	case eb.Message != "":
		apiErr.Message = eb.Message
	default:
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}
