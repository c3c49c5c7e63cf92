package portalsdk

import "time"

// ============================================================================
// Registration
// ============================================================================

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	FirstName string `json:"firstName" example:"Jane"`
	LastName  string `json:"lastName" example:"Doe"`
	Email     string `json:"email" example:"jane@example.com"`
	Password  string `json:"password" example:"correct-horse"`

	// ConfirmPassword is only checked when present.
	ConfirmPassword *string `json:"confirmPassword,omitempty"`

	// Phone is optional. PhoneNumber is accepted as an alias.
	Phone       string `json:"phone,omitempty" example:"+61 400 000 000"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// UserSummary identifies a user in responses.
type UserSummary struct {
	ID    string `json:"id" example:"7b0e2c9e-4a51-4c2b-9f55-0d3b9a8f6f10"`
	Email string `json:"email" example:"jane@example.com"`
}

// RegisterResponse is returned with 201 (or 202 when the backend did not
// disclose a user).
type RegisterResponse struct {
	Message string       `json:"message"`
	User    *UserSummary `json:"user,omitempty"`

	// Status is REGISTERED, CONFIRMATION_REQUIRED or UNKNOWN.
	Status string `json:"status" example:"CONFIRMATION_REQUIRED"`

	// ProfileSaved is false when the profile row could not be written.
	ProfileSaved bool `json:"profileSaved"`

	// Delivery is delivered, failed or skipped.
	Delivery string `json:"delivery" example:"skipped"`
}

// AdminConfirmRequest is the body of POST /api/auth/admin-confirm.
type AdminConfirmRequest struct {
	Email string `json:"email" example:"jane@example.com"`
}

// AdminConfirmResponse is returned when the address is confirmed, or was
// already.
type AdminConfirmResponse struct {
	Message          string      `json:"message" example:"Email confirmed successfully"`
	User             UserSummary `json:"user"`
	AlreadyConfirmed bool        `json:"alreadyConfirmed"`
}

// ============================================================================
// Sessions
// ============================================================================

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" example:"jane@example.com"`
	Password string `json:"password" example:"correct-horse"`

	// RedirectedFrom is the page the guard bounced the user from. Only local
	// absolute paths are honoured.
	RedirectedFrom string `json:"redirectedFrom,omitempty" example:"/dashboard"`
}

// LoginResponse is returned on a successful sign-in along with the session
// cookies.
type LoginResponse struct {
	Message   string      `json:"message"`
	User      UserSummary `json:"user"`
	Status    string      `json:"status" example:"REGISTERED"`
	Redirect  string      `json:"redirect" example:"/dashboard"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// SessionResponse describes the current session.
type SessionResponse struct {
	User        UserSummary `json:"user"`
	DisplayName string      `json:"displayName" example:"Jane Doe"`
	Profile     *Profile    `json:"profile,omitempty"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

// MessageResponse carries a single human readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Profiles
// ============================================================================

// Profile is a stored profile row.
type Profile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileRequest is the body of POST /api/profile.
type ProfileRequest struct {
	FirstName string `json:"firstName" example:"Jane"`
	LastName  string `json:"lastName" example:"Doe"`
	Phone     string `json:"phone,omitempty" example:"+61 400 000 000"`
}

// ProfileResponse is returned after saving a profile.
type ProfileResponse struct {
	Message string  `json:"message"`
	Profile Profile `json:"profile"`
}

// ============================================================================
// Welcome mail
// ============================================================================

// WelcomeEmailRequest is the body of POST /api/send-welcome-email.
type WelcomeEmailRequest struct {
	Name  string `json:"name" example:"Jane"`
	Email string `json:"email" example:"jane@example.com"`
}

// WelcomeEmailResponse is returned once the provider accepted the mail.
type WelcomeEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz. Checks is only set by
// /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each dependency as "ok" or "unavailable".
type HealthChecks struct {
	ProfileStore string `json:"profile_store"`
	Identity     string `json:"identity"`
}
