package gotrue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// SignUp registers a user. Depending on project settings the result carries
// a session (auto-confirm) or only the user awaiting confirmation.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	path := "/auth/v1/signup"
	if req.RedirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(req.RedirectTo)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, req, c.APIKey, c.APIKey)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := decodeJSON(resp, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return &SignUpResult{}, nil
	}

	var session TokenResponse
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("failed to decode sign-up response: %w", err)
	}
	if session.AccessToken != "" {
		user := session.User
		return &SignUpResult{User: &user, Session: &session}, nil
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode sign-up response: %w", err)
	}
	if user.ID == "" {
		return &SignUpResult{}, nil
	}
	return &SignUpResult{User: &user}, nil
}

// SignInWithPassword runs the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*TokenResponse, error) {
	return c.token(ctx, "password", passwordGrant{Email: email, Password: password})
}

// RefreshToken exchanges a refresh token for a new session. Refresh tokens
// are single use.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.token(ctx, "refresh_token", refreshGrant{RefreshToken: refreshToken})
}

func (c *Client) token(ctx context.Context, grantType string, payload any) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost,
		"/auth/v1/token?grant_type="+url.QueryEscape(grantType),
		payload, c.APIKey, c.APIKey)
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser returns the user owning accessToken. The API validates the token
// on every call.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/v1/user", nil, c.APIKey, accessToken)
	if err != nil {
		return nil, err
	}

	var out User
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser merges data into the user's metadata.
func (c *Client) UpdateUser(ctx context.Context, accessToken string, req UpdateUserRequest) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, "/auth/v1/user", req, c.APIKey, accessToken)
	if err != nil {
		return nil, err
	}

	var out User
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the session behind accessToken.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/logout", nil, c.APIKey, accessToken)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// Verify exchanges an emailed token hash for a session.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/verify", req, c.APIKey, c.APIKey)
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
