// Package memory is an in-process identity backend used for local runs,
// container tests and the mock mode of the service. It keeps everything in
// memory and loses it on restart.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/identity"
	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "portal-memory-identity"

// Config tunes the in-memory backend.
type Config struct {
	// Secret signs access tokens. A random one is generated when empty.
	Secret string
	// AccessTTL defaults to one hour.
	AccessTTL time.Duration
	// AutoConfirm confirms addresses at sign-up instead of issuing a
	// confirmation token.
	AutoConfirm bool
	Logger      *slog.Logger
}

type user struct {
	id                 string
	email              string
	passwordHash       string
	confirmedAt        *time.Time
	confirmationSentAt *time.Time
	metadata           map[string]any
	createdAt          time.Time
}

// Provider implements identity.Provider in memory.
type Provider struct {
	mu sync.Mutex

	byEmail map[string]*user
	byID    map[string]*user

	refreshTokens map[string]string // fingerprint -> user id
	confirmations map[string]string // token hash -> user id
	revoked       map[string]time.Time

	secret      []byte
	accessTTL   time.Duration
	autoConfirm bool
	logger      *slog.Logger
	now         func() time.Time
}

var _ identity.Provider = (*Provider)(nil)

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// New creates an empty backend.
func New(cfg Config) (*Provider, error) {
	secret := cfg.Secret
	if secret == "" {
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, err
		}
		secret = generated
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Provider{
		byEmail:       make(map[string]*user),
		byID:          make(map[string]*user),
		refreshTokens: make(map[string]string),
		confirmations: make(map[string]string),
		revoked:       make(map[string]time.Time),
		secret:        []byte(secret),
		accessTTL:     cfg.AccessTTL,
		autoConfirm:   cfg.AutoConfirm,
		logger:        cfg.Logger,
		now:           time.Now,
	}, nil
}

// SetClock replaces the time source. Tests only.
func (p *Provider) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// SignUp mirrors the hosted backend: an unconfirmed address can sign up
// again and gets the same identity back, a confirmed one is rejected.
func (p *Provider) SignUp(ctx context.Context, in identity.SignUpParams) (*domain.Identity, error) {
	email := normalizeEmail(in.Credential.Email)

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now().UTC()

	if u, ok := p.byEmail[email]; ok {
		if u.confirmedAt != nil {
			return nil, alreadyRegistered()
		}
		u.confirmationSentAt = &now
		p.issueConfirmationLocked(u)
		id := u.identity()
		return &id, nil
	}

	u, err := p.createLocked(email, in.Credential.Password, in.Metadata, now)
	if err != nil {
		return nil, err
	}

	if p.autoConfirm {
		u.confirmedAt = &now
	} else {
		u.confirmationSentAt = &now
		p.issueConfirmationLocked(u)
	}

	id := u.identity()
	return &id, nil
}

func (p *Provider) CreateUser(ctx context.Context, in identity.CreateUserParams) (*domain.Identity, error) {
	email := normalizeEmail(in.Credential.Email)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byEmail[email]; ok {
		return nil, alreadyRegistered()
	}

	now := p.now().UTC()
	u, err := p.createLocked(email, in.Credential.Password, in.Metadata, now)
	if err != nil {
		return nil, err
	}
	u.confirmedAt = &now

	id := u.identity()
	return &id, nil
}

func (p *Provider) SignIn(ctx context.Context, c domain.Credential) (domain.Session, error) {
	p.mu.Lock()
	u, ok := p.byEmail[normalizeEmail(c.Email)]
	p.mu.Unlock()

	// Hash verification runs outside the lock; it is deliberately slow.
	if !ok || cryptox.VerifyPassword(c.Password, u.passwordHash) != nil {
		return domain.Session{}, &identity.ProviderError{
			Kind:    identity.ErrInvalidCredentials,
			Status:  400,
			Code:    "invalid_credentials",
			Message: "Invalid login credentials",
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if u.confirmedAt == nil {
		return domain.Session{}, &identity.ProviderError{
			Kind:    identity.ErrEmailNotConfirmed,
			Status:  400,
			Code:    "email_not_confirmed",
			Message: "Email not confirmed",
		}
	}

	return p.issueSessionLocked(u)
}

func (p *Provider) Refresh(ctx context.Context, refreshToken string) (domain.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fp := cryptox.FingerprintToken(refreshToken)
	userID, ok := p.refreshTokens[fp]
	if !ok {
		return domain.Session{}, invalidSession("Invalid Refresh Token")
	}
	delete(p.refreshTokens, fp)

	u, ok := p.byID[userID]
	if !ok {
		return domain.Session{}, invalidSession("User not found")
	}
	return p.issueSessionLocked(u)
}

func (p *Provider) GetUser(ctx context.Context, accessToken string) (domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, _, err := p.userFromTokenLocked(accessToken)
	if err != nil {
		return domain.Identity{}, err
	}
	return u.identity(), nil
}

func (p *Provider) UpdateUserMetadata(ctx context.Context, accessToken string, md map[string]any) (domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, _, err := p.userFromTokenLocked(accessToken)
	if err != nil {
		return domain.Identity{}, err
	}
	if u.metadata == nil {
		u.metadata = make(map[string]any, len(md))
	}
	maps.Copy(u.metadata, md)
	return u.identity(), nil
}

// SignOut revokes the access token and every refresh token of the user.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, claims, err := p.userFromTokenLocked(accessToken)
	if err != nil {
		return err
	}

	p.revoked[claims.ID] = claims.ExpiresAt.Time
	for fp, id := range p.refreshTokens {
		if id == u.id {
			delete(p.refreshTokens, fp)
		}
	}
	return nil
}

func (p *Provider) VerifyEmail(ctx context.Context, tokenHash, verifyType string) (domain.Session, error) {
	switch verifyType {
	case "", "email", "signup":
	default:
		return domain.Session{}, invalidSession("unsupported verification type")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	userID, ok := p.confirmations[tokenHash]
	if !ok {
		return domain.Session{}, invalidSession("Email link is invalid or has expired")
	}
	delete(p.confirmations, tokenHash)

	u, ok := p.byID[userID]
	if !ok {
		return domain.Session{}, invalidSession("User not found")
	}

	now := p.now().UTC()
	u.confirmedAt = &now
	return p.issueSessionLocked(u)
}

// AdminConfirmEmail confirms the address and drops any outstanding link.
func (p *Provider) AdminConfirmEmail(ctx context.Context, email string) (identity.ConfirmResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.byEmail[normalizeEmail(email)]
	if !ok {
		return identity.ConfirmResult{}, &identity.ProviderError{
			Kind:    identity.ErrUserNotFound,
			Status:  404,
			Code:    "user_not_found",
			Message: "User not found",
		}
	}
	if u.confirmedAt != nil {
		return identity.ConfirmResult{Identity: u.identity(), AlreadyConfirmed: true}, nil
	}

	now := p.now().UTC()
	u.confirmedAt = &now
	for hash, id := range p.confirmations {
		if id == u.id {
			delete(p.confirmations, hash)
		}
	}
	return identity.ConfirmResult{Identity: u.identity()}, nil
}

// Ping always succeeds.
func (p *Provider) Ping(ctx context.Context) error { return nil }

// PendingConfirmation returns the token hash that would have been mailed to
// email, if a confirmation is outstanding.
func (p *Provider) PendingConfirmation(email string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.byEmail[normalizeEmail(email)]
	if !ok {
		return "", false
	}
	for hash, id := range p.confirmations {
		if id == u.id {
			return hash, true
		}
	}
	return "", false
}

// Sweep drops expired revocations. Safe to call from a housekeeping loop.
func (p *Provider) Sweep(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for jti, exp := range p.revoked {
		if !now.Before(exp) {
			delete(p.revoked, jti)
			removed++
		}
	}
	return removed
}

func (p *Provider) createLocked(email, password string, md map[string]any, now time.Time) (*user, error) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("memory identity: hash password: %w", err)
	}

	u := &user{
		id:           uuid.NewString(),
		email:        email,
		passwordHash: hash,
		metadata:     maps.Clone(md),
		createdAt:    now,
	}
	p.byEmail[email] = u
	p.byID[u.id] = u
	return u, nil
}

func (p *Provider) issueConfirmationLocked(u *user) {
	for hash, id := range p.confirmations {
		if id == u.id {
			delete(p.confirmations, hash)
		}
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		p.logger.Error("memory identity: confirmation token", "error", err)
		return
	}
	hash := cryptox.FingerprintToken(token)
	p.confirmations[hash] = u.id

	p.logger.Debug("memory identity: confirmation issued",
		"user_id", u.id,
		"confirm_path", "/auth/confirm?type=email&token_hash="+hash,
	)
}

func (p *Provider) issueSessionLocked(u *user) (domain.Session, error) {
	now := p.now()
	exp := now.Add(p.accessTTL)

	claims := accessClaims{
		Email: u.email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.id,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return domain.Session{}, fmt.Errorf("memory identity: sign access token: %w", err)
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}
	p.refreshTokens[cryptox.FingerprintToken(refresh)] = u.id

	return domain.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
		User:         u.identity(),
	}, nil
}

func (p *Provider) userFromTokenLocked(accessToken string) (*user, *accessClaims, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(accessToken, &claims,
		func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, invalidSession("token is expired")
		}
		return nil, nil, invalidSession("invalid JWT")
	}

	if _, revoked := p.revoked[claims.ID]; revoked {
		return nil, nil, invalidSession("session revoked")
	}

	u, ok := p.byID[claims.Subject]
	if !ok {
		return nil, nil, invalidSession("User not found")
	}
	return u, &claims, nil
}

func (u *user) identity() domain.Identity {
	return domain.Identity{
		ID:                 u.id,
		Email:              u.email,
		EmailConfirmedAt:   copyTime(u.confirmedAt),
		ConfirmationSentAt: copyTime(u.confirmationSentAt),
		Metadata:           maps.Clone(u.metadata),
		CreatedAt:          u.createdAt,
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func alreadyRegistered() error {
	return &identity.ProviderError{
		Kind:    identity.ErrAlreadyRegistered,
		Status:  422,
		Code:    "user_already_exists",
		Message: "User already registered",
	}
}

func invalidSession(msg string) error {
	return &identity.ProviderError{
		Kind:    identity.ErrInvalidSession,
		Status:  401,
		Message: msg,
	}
}
