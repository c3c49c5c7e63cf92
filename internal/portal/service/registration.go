package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/cooldown"
	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/identity"
	"github.com/aussiebroadwan/portal/internal/portal/metrics"
	"github.com/aussiebroadwan/portal/internal/portal/notify"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// DefaultCooldown is how long an address is held back after the identity
// backend rate-limited its sign-up.
const DefaultCooldown = 60 * time.Second

// Registration outcome messages.
const (
	MsgRegistered           = "Registration successful! You can now log in with your credentials."
	MsgConfirmationRequired = "Registration successful! Please check your email for confirmation before logging in."
	MsgRegistrationAccepted = "Registration received. Please check your email for further instructions."
)

// RegistrationResult describes a successful registration.
type RegistrationResult struct {
	Status domain.RegistrationStatus
	// Identity is nil when Status is StatusUnknown.
	Identity     *domain.Identity
	ProfileSaved bool
	Delivery     domain.DeliveryState
	Message      string
}

// RegistrationService creates an identity, writes its profile row and fires
// the post-registration delivery.
type RegistrationService struct {
	Identity identity.Provider
	Profiles store.Profiles
	Cooldown cooldown.Tracker
	Delivery *notify.Dispatcher

	// SiteURL is the public base URL used for the confirmation redirect.
	SiteURL string

	// SkipEmailConfirmation creates already confirmed identities through the
	// backend's administrative API.
	SkipEmailConfirmation bool

	// CooldownWindow defaults to DefaultCooldown.
	CooldownWindow time.Duration
}

// Register runs the registration flow. Validation failures and a cooling
// down address never reach the identity backend. A failed profile write or
// delivery is reported in the result and does not fail the registration.
func (s *RegistrationService) Register(ctx context.Context, in RegistrationInput) (*RegistrationResult, error) {
	l := slogx.FromContext(ctx)
	in = in.Normalized()

	if fields := ValidateRegistration(in); len(fields) > 0 {
		metrics.RecordRegistrationError(string(KindValidation))
		return nil, validationError(fields)
	}

	key := cooldownKey(in.Email)
	if s.Cooldown != nil {
		left, err := s.Cooldown.Remaining(ctx, key)
		switch {
		case err != nil:
			l.Warn("cooldown lookup failed", "error", err)
		case left > 0:
			metrics.RecordRegistrationError(string(KindRateLimited))
			return nil, &Error{Kind: KindRateLimited, Message: MsgRateLimited, RetryAfter: left}
		}
	}

	id, err := s.createIdentity(ctx, in)
	if err != nil {
		se := s.translateError(ctx, key, err)
		metrics.RecordRegistrationError(string(se.Kind))
		l.Warn("registration rejected", "kind", se.Kind, "error", err)
		return nil, se
	}

	status := domain.ClassifyRegistration(id)
	res := &RegistrationResult{
		Status:   status,
		Delivery: domain.DeliverySkipped,
		Message:  registrationMessage(status),
	}

	if status == domain.StatusUnknown {
		l.Info("registration accepted without user")
		metrics.RecordRegistration(string(status))
		return res, nil
	}
	res.Identity = id

	email := id.Email
	if email == "" {
		email = strings.ToLower(in.Email)
	}

	if _, err := s.Profiles.UpsertProfile(ctx, domain.Profile{
		ID:        id.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Email:     email,
	}); err != nil {
		l.Error("profile write failed", "user_id", id.ID, "error", err)
		metrics.RecordProfileWriteFailure()
	} else {
		res.ProfileSaved = true
	}

	res.Delivery = s.Delivery.Deliver(ctx, notify.Event{
		UserID:    id.ID,
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Status:    string(status),
	})

	l.Info("user registered",
		"user_id", id.ID,
		"status", status,
		"profile_saved", res.ProfileSaved,
		"delivery", res.Delivery,
	)
	l.Debug("registered address", "email", slogx.MaskEmail(email))
	metrics.RecordRegistration(string(status))

	return res, nil
}

func (s *RegistrationService) createIdentity(ctx context.Context, in RegistrationInput) (*domain.Identity, error) {
	cred := domain.Credential{Email: in.Email, Password: in.Password}
	md := domain.ProfileMetadata(in.FirstName, in.LastName, in.Phone)

	if s.SkipEmailConfirmation {
		return s.Identity.CreateUser(ctx, identity.CreateUserParams{Credential: cred, Metadata: md})
	}

	var redirect string
	if s.SiteURL != "" {
		redirect = strings.TrimSuffix(s.SiteURL, "/") + "/auth/confirm"
	}
	return s.Identity.SignUp(ctx, identity.SignUpParams{
		Credential: cred,
		Metadata:   md,
		RedirectTo: redirect,
	})
}

// translateError maps a backend failure to the service taxonomy. A rate
// limited sign-up starts the cooldown for the address.
func (s *RegistrationService) translateError(ctx context.Context, key string, err error) *Error {
	switch {
	case errors.Is(err, identity.ErrAlreadyRegistered):
		return &Error{Kind: KindAlreadyRegistered, Message: MsgAlreadyRegistered, Err: err}

	case errors.Is(err, identity.ErrRateLimited):
		window := s.cooldownWindow()
		if s.Cooldown != nil {
			if cerr := s.Cooldown.Start(ctx, key, window); cerr != nil {
				slogx.FromContext(ctx).Warn("cooldown start failed", "error", cerr)
			}
		}
		return &Error{Kind: KindRateLimited, Message: MsgRateLimited, RetryAfter: window, Err: err}

	case errors.Is(err, identity.ErrAdminUnavailable):
		return &Error{Kind: KindConfiguration, Message: MsgAdminUnavailable, Err: err}
	}

	var pe *identity.ProviderError
	if errors.As(err, &pe) && pe.Kind == nil && pe.Status >= http.StatusBadRequest && pe.Status < http.StatusInternalServerError {
		// The backend refused the request itself (weak password, signups
		// disabled); pass its text through.
		return &Error{Kind: KindRejected, Message: pe.Message, Err: err}
	}

	return &Error{Kind: KindProvider, Message: MsgProviderFailure, Detail: identity.Detail(err), Err: err}
}

func (s *RegistrationService) cooldownWindow() time.Duration {
	if s.CooldownWindow <= 0 {
		return DefaultCooldown
	}
	return s.CooldownWindow
}

func registrationMessage(status domain.RegistrationStatus) string {
	switch status {
	case domain.StatusRegistered:
		return MsgRegistered
	case domain.StatusConfirmationRequired:
		return MsgConfirmationRequired
	default:
		return MsgRegistrationAccepted
	}
}

// cooldownKey identifies an address without storing it.
func cooldownKey(email string) string {
	return cryptox.FingerprintToken(strings.ToLower(strings.TrimSpace(email)))
}
