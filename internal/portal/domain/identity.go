package domain

import (
	"strings"
	"time"
)

// Credential is an email/password pair. It is forwarded to the identity
// backend and never persisted or logged.
type Credential struct {
	Email    string
	Password string
}

// Identity is a user as known by the identity backend. ID is opaque and
// immutable.
type Identity struct {
	ID                 string
	Email              string
	EmailConfirmedAt   *time.Time
	ConfirmationSentAt *time.Time
	Metadata           map[string]any
	CreatedAt          time.Time
}

// Confirmed reports whether the email address has been confirmed.
func (i Identity) Confirmed() bool {
	return i.EmailConfirmedAt != nil && !i.EmailConfirmedAt.IsZero()
}

// ConfirmationPending reports whether a confirmation mail went out and has
// not been acted on yet.
func (i Identity) ConfirmationPending() bool {
	return !i.Confirmed() && i.ConfirmationSentAt != nil && !i.ConfirmationSentAt.IsZero()
}

// MetadataString returns a trimmed string metadata value, or "".
func (i Identity) MetadataString(key string) string {
	v, ok := i.Metadata[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}
