// Package identity is the port to the external identity backend that owns
// credentials, confirmation state and sessions.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
)

var (
	ErrAlreadyRegistered  = errors.New("identity: email already registered")
	ErrRateLimited        = errors.New("identity: rate limited")
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrEmailNotConfirmed  = errors.New("identity: email not confirmed")
	ErrInvalidSession     = errors.New("identity: invalid or expired session")
	ErrAdminUnavailable   = errors.New("identity: administrative key not configured")
	ErrUnavailable        = errors.New("identity: backend unavailable")
	ErrUserNotFound       = errors.New("identity: user not found")
)

// SignUpParams describes a public sign-up.
type SignUpParams struct {
	Credential domain.Credential
	Metadata   map[string]any
	// RedirectTo is where the confirmation link sends the user.
	RedirectTo string
}

// CreateUserParams describes an administrative user creation that marks the
// address as already confirmed.
type CreateUserParams struct {
	Credential domain.Credential
	Metadata   map[string]any
}

// ConfirmResult is the outcome of an administrative email confirmation.
type ConfirmResult struct {
	Identity         domain.Identity
	AlreadyConfirmed bool
}

// Provider is implemented by identity backend drivers. A nil *Identity with
// a nil error from SignUp means the backend accepted the request but did not
// disclose a user.
type Provider interface {
	SignUp(ctx context.Context, p SignUpParams) (*domain.Identity, error)
	CreateUser(ctx context.Context, p CreateUserParams) (*domain.Identity, error)
	SignIn(ctx context.Context, c domain.Credential) (domain.Session, error)
	Refresh(ctx context.Context, refreshToken string) (domain.Session, error)
	GetUser(ctx context.Context, accessToken string) (domain.Identity, error)
	UpdateUserMetadata(ctx context.Context, accessToken string, md map[string]any) (domain.Identity, error)
	SignOut(ctx context.Context, accessToken string) error
	VerifyEmail(ctx context.Context, tokenHash, verifyType string) (domain.Session, error)
	// AdminConfirmEmail marks the address of an existing identity confirmed
	// without a link. It needs the administrative key.
	AdminConfirmEmail(ctx context.Context, email string) (ConfirmResult, error)
	Ping(ctx context.Context) error
}

// ProviderError carries the backend's own status and text while unwrapping
// to one of the sentinel errors above (or to nothing for unexpected failures).
type ProviderError struct {
	Kind    error
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Kind != nil {
		return fmt.Sprintf("%v: %s", e.Kind, msg)
	}
	return "identity: " + msg
}

// Unwrap exposes both the sentinel kind and the transport error.
func (e *ProviderError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Detail returns the backend's message for supplementary display.
func Detail(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return ""
}
