package gotrue

import "time"

// User is the user object returned by the auth API.
type User struct {
	ID                 string         `json:"id"`
	Aud                string         `json:"aud,omitempty"`
	Role               string         `json:"role,omitempty"`
	Email              string         `json:"email"`
	Phone              string         `json:"phone,omitempty"`
	EmailConfirmedAt   *time.Time     `json:"email_confirmed_at,omitempty"`
	ConfirmationSentAt *time.Time     `json:"confirmation_sent_at,omitempty"`
	UserMetadata       map[string]any `json:"user_metadata,omitempty"`
	AppMetadata        map[string]any `json:"app_metadata,omitempty"`
	Identities         []UserIdentity `json:"identities"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// UserIdentity is one linked login method of a user.
type UserIdentity struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// Obfuscated reports whether the API answered a sign-up for an address that
// already belongs to a confirmed user. The API hides that fact by returning a
// user with an empty (not absent) identity list.
func (u *User) Obfuscated() bool {
	return u.Identities != nil && len(u.Identities) == 0
}

// TokenResponse is a session issued by the token and verify endpoints.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Expiry returns the absolute access token expiry.
func (t *TokenResponse) Expiry(now time.Time) time.Time {
	if t.ExpiresAt > 0 {
		return time.Unix(t.ExpiresAt, 0)
	}
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// SignUpRequest creates a user through the public sign-up endpoint.
type SignUpRequest struct {
	Email      string         `json:"email"`
	Password   string         `json:"password"`
	Data       map[string]any `json:"data,omitempty"`
	RedirectTo string         `json:"-"`
}

// SignUpResult holds a user and, when the project auto-confirms sign-ups,
// the session issued along with it.
type SignUpResult struct {
	User    *User
	Session *TokenResponse
}

// AdminUserRequest creates a user with the service role key.
type AdminUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// AdminUpdateUserRequest changes a user with the service role key.
type AdminUpdateUserRequest struct {
	EmailConfirm bool           `json:"email_confirm,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// UpdateUserRequest updates the signed-in user's metadata.
type UpdateUserRequest struct {
	Data map[string]any `json:"data"`
}

// VerifyRequest exchanges an emailed token hash for a session.
type VerifyRequest struct {
	Type      string `json:"type"`
	TokenHash string `json:"token_hash"`
}

type passwordGrant struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshGrant struct {
	RefreshToken string `json:"refresh_token"`
}
