package gotrue

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// AdminCreateUser creates a user with the service role key, optionally
// marking the address confirmed so no confirmation mail is sent.
func (c *Client) AdminCreateUser(ctx context.Context, req AdminUserRequest) (*User, error) {
	if !c.HasServiceKey() {
		return nil, ErrNoServiceKey
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/v1/admin/users", req, c.ServiceKey, c.ServiceKey)
	if err != nil {
		return nil, err
	}

	var out User
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminFindUserByEmail looks a user up by exact address. The list endpoint
// filters by substring, so the result is matched again here.
func (c *Client) AdminFindUserByEmail(ctx context.Context, email string) (*User, error) {
	if !c.HasServiceKey() {
		return nil, ErrNoServiceKey
	}

	q := url.Values{}
	q.Set("filter", email)
	q.Set("per_page", "50")

	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/v1/admin/users?"+q.Encode(), nil, c.ServiceKey, c.ServiceKey)
	if err != nil {
		return nil, err
	}

	var out struct {
		Users []User `json:"users"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	for i := range out.Users {
		if strings.EqualFold(out.Users[i].Email, email) {
			return &out.Users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// AdminUpdateUser changes a user by id with the service role key.
func (c *Client) AdminUpdateUser(ctx context.Context, userID string, req AdminUpdateUserRequest) (*User, error) {
	if !c.HasServiceKey() {
		return nil, ErrNoServiceKey
	}

	resp, err := c.doRequest(ctx, http.MethodPut, "/auth/v1/admin/users/"+url.PathEscape(userID), req, c.ServiceKey, c.ServiceKey)
	if err != nil {
		return nil, err
	}

	var out User
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminConfirmEmail marks the user's address confirmed.
func (c *Client) AdminConfirmEmail(ctx context.Context, userID string) (*User, error) {
	return c.AdminUpdateUser(ctx, userID, AdminUpdateUserRequest{EmailConfirm: true})
}
