// Package gotrue adapts the hosted GoTrue API to identity.Provider.
package gotrue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/identity"
	"github.com/aussiebroadwan/portal/internal/portal/metrics"
	"github.com/aussiebroadwan/portal/pkg/gotrue"
)

// Provider calls the hosted auth API through a gotrue.Client.
type Provider struct {
	client *gotrue.Client
	now    func() time.Time
}

var _ identity.Provider = (*Provider)(nil)

// New wraps client. Admin operations need a client carrying a service key.
func New(client *gotrue.Client) *Provider {
	return &Provider{client: client, now: time.Now}
}

func (p *Provider) SignUp(ctx context.Context, in identity.SignUpParams) (*domain.Identity, error) {
	defer metrics.ObserveIdentityCall("sign_up", time.Now())

	res, err := p.client.SignUp(ctx, gotrue.SignUpRequest{
		Email:      in.Credential.Email,
		Password:   in.Credential.Password,
		Data:       in.Metadata,
		RedirectTo: in.RedirectTo,
	})
	if err != nil {
		return nil, mapError(err, opSignUp)
	}
	if res.User == nil || res.User.ID == "" {
		return nil, nil
	}
	if res.User.Obfuscated() {
		return nil, &identity.ProviderError{
			Kind:    identity.ErrAlreadyRegistered,
			Message: "User already registered",
		}
	}

	id := toIdentity(*res.User)
	return &id, nil
}

func (p *Provider) CreateUser(ctx context.Context, in identity.CreateUserParams) (*domain.Identity, error) {
	defer metrics.ObserveIdentityCall("admin_create_user", time.Now())

	u, err := p.client.AdminCreateUser(ctx, gotrue.AdminUserRequest{
		Email:        in.Credential.Email,
		Password:     in.Credential.Password,
		EmailConfirm: true,
		UserMetadata: in.Metadata,
	})
	if err != nil {
		if errors.Is(err, gotrue.ErrNoServiceKey) {
			return nil, identity.ErrAdminUnavailable
		}
		return nil, mapError(err, opSignUp)
	}
	if u.ID == "" {
		return nil, nil
	}

	id := toIdentity(*u)
	return &id, nil
}

func (p *Provider) SignIn(ctx context.Context, c domain.Credential) (domain.Session, error) {
	defer metrics.ObserveIdentityCall("sign_in", time.Now())

	tok, err := p.client.SignInWithPassword(ctx, c.Email, c.Password)
	if err != nil {
		return domain.Session{}, mapError(err, opSignIn)
	}
	return p.toSession(tok), nil
}

func (p *Provider) Refresh(ctx context.Context, refreshToken string) (domain.Session, error) {
	defer metrics.ObserveIdentityCall("refresh", time.Now())

	tok, err := p.client.RefreshToken(ctx, refreshToken)
	if err != nil {
		return domain.Session{}, mapError(err, opSession)
	}
	return p.toSession(tok), nil
}

func (p *Provider) GetUser(ctx context.Context, accessToken string) (domain.Identity, error) {
	defer metrics.ObserveIdentityCall("get_user", time.Now())

	u, err := p.client.GetUser(ctx, accessToken)
	if err != nil {
		return domain.Identity{}, mapError(err, opSession)
	}
	return toIdentity(*u), nil
}

func (p *Provider) UpdateUserMetadata(ctx context.Context, accessToken string, md map[string]any) (domain.Identity, error) {
	defer metrics.ObserveIdentityCall("update_user", time.Now())

	u, err := p.client.UpdateUser(ctx, accessToken, gotrue.UpdateUserRequest{Data: md})
	if err != nil {
		return domain.Identity{}, mapError(err, opSession)
	}
	return toIdentity(*u), nil
}

func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	defer metrics.ObserveIdentityCall("sign_out", time.Now())

	if err := p.client.Logout(ctx, accessToken); err != nil {
		return mapError(err, opSession)
	}
	return nil
}

func (p *Provider) VerifyEmail(ctx context.Context, tokenHash, verifyType string) (domain.Session, error) {
	defer metrics.ObserveIdentityCall("verify", time.Now())

	if verifyType == "" {
		verifyType = "email"
	}
	tok, err := p.client.Verify(ctx, gotrue.VerifyRequest{Type: verifyType, TokenHash: tokenHash})
	if err != nil {
		return domain.Session{}, mapError(err, opSession)
	}
	return p.toSession(tok), nil
}

func (p *Provider) AdminConfirmEmail(ctx context.Context, email string) (identity.ConfirmResult, error) {
	defer metrics.ObserveIdentityCall("admin_confirm", time.Now())

	u, err := p.client.AdminFindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, gotrue.ErrNoServiceKey):
		return identity.ConfirmResult{}, identity.ErrAdminUnavailable
	case errors.Is(err, gotrue.ErrUserNotFound):
		return identity.ConfirmResult{}, &identity.ProviderError{
			Kind:    identity.ErrUserNotFound,
			Status:  404,
			Message: "User not found",
		}
	case err != nil:
		return identity.ConfirmResult{}, mapError(err, opAdmin)
	}

	if u.EmailConfirmedAt != nil {
		return identity.ConfirmResult{Identity: toIdentity(*u), AlreadyConfirmed: true}, nil
	}

	confirmed, err := p.client.AdminConfirmEmail(ctx, u.ID)
	if err != nil {
		return identity.ConfirmResult{}, mapError(err, opAdmin)
	}
	return identity.ConfirmResult{Identity: toIdentity(*confirmed)}, nil
}

func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.client.Health(ctx); err != nil {
		return mapError(err, opHealth)
	}
	return nil
}

type operation int

const (
	opSignUp operation = iota
	opSignIn
	opSession
	opAdmin
	opHealth
)

// mapError translates an API failure into a ProviderError whose kind depends
// on the operation that produced it.
func mapError(err error, op operation) error {
	var apiErr *gotrue.APIError
	if !errors.As(err, &apiErr) {
		return &identity.ProviderError{Kind: identity.ErrUnavailable, Err: err}
	}

	pe := &identity.ProviderError{
		Status:  apiErr.StatusCode,
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Err:     apiErr,
	}

	switch {
	case apiErr.IsRateLimited():
		pe.Kind = identity.ErrRateLimited
	case op == opSignUp && apiErr.IsAlreadyRegistered():
		pe.Kind = identity.ErrAlreadyRegistered
	case op == opSignIn && apiErr.IsEmailNotConfirmed():
		pe.Kind = identity.ErrEmailNotConfirmed
	case op == opSignIn && apiErr.IsInvalidCredentials():
		pe.Kind = identity.ErrInvalidCredentials
	case op == opSession && (apiErr.IsInvalidSession() || apiErr.IsInvalidCredentials() || apiErr.StatusCode == 400):
		pe.Kind = identity.ErrInvalidSession
	case op == opAdmin && apiErr.Code == gotrue.CodeUserNotFound:
		pe.Kind = identity.ErrUserNotFound
	case apiErr.StatusCode >= 500:
		pe.Kind = identity.ErrUnavailable
	}

	return pe
}

func toIdentity(u gotrue.User) domain.Identity {
	return domain.Identity{
		ID:                 u.ID,
		Email:              strings.ToLower(u.Email),
		EmailConfirmedAt:   u.EmailConfirmedAt,
		ConfirmationSentAt: u.ConfirmationSentAt,
		Metadata:           u.UserMetadata,
		CreatedAt:          u.CreatedAt,
	}
}

func (p *Provider) toSession(tok *gotrue.TokenResponse) domain.Session {
	return domain.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry(p.now()),
		User:         toIdentity(tok.User),
	}
}
