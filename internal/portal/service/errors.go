package service

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure at the service boundary.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindAlreadyRegistered  Kind = "already_registered"
	KindRateLimited        Kind = "rate_limited"
	KindConfiguration      Kind = "configuration_error"
	KindRejected           Kind = "rejected"
	KindProvider           Kind = "provider_error"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindEmailNotConfirmed  Kind = "email_not_confirmed"
	KindUnauthenticated    Kind = "unauthenticated"
	KindNotFound           Kind = "not_found"
)

// User facing messages.
const (
	MsgValidationFailed   = "Please correct the highlighted fields"
	MsgAlreadyRegistered  = "This email is already registered. Please use a different email or try logging in."
	MsgRateLimited        = "Too many registration attempts. Please try again later or use a different email address."
	MsgAdminUnavailable   = "Server is not configured for admin operations"
	MsgProviderFailure    = "Error connecting to authentication service"
	MsgInvalidCredentials = "Invalid email or password"
	MsgEmailNotConfirmed  = "Please confirm your email before logging in"
	MsgLoginRateLimited   = "Too many login attempts. Please try again later."
	MsgUnauthenticated    = "Not authenticated"
	MsgEmailConfiguration = "Email service configuration error"
)

// Error is returned by every service operation that fails for a reason the
// caller should present.
type Error struct {
	Kind    Kind
	Message string

	// Fields maps field names to messages for validation failures.
	Fields map[string]string

	// RetryAfter is set for rate limited failures.
	RetryAfter time.Duration

	// Detail is supplementary backend text, safe to show.
	Detail string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func validationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: MsgValidationFailed, Fields: fields}
}
