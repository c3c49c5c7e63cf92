// Package notify delivers the post-registration event to whichever target
// is configured and sends the welcome mail.
package notify

import (
	"context"
	"errors"
	"strings"
)

// ErrNotConfigured is returned when a target is selected but its
// credentials or address are missing.
var ErrNotConfigured = errors.New("notify: not configured")

// Target names the delivery channel selected by DELIVERY_TARGET.
type Target string

const (
	TargetNone    Target = "none"
	TargetEmail   Target = "email"
	TargetWebhook Target = "webhook"
	TargetQueue   Target = "queue"
)

// ParseTarget maps a configuration value to a Target.
func ParseTarget(s string) (Target, bool) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case "", TargetNone:
		return TargetNone, true
	case TargetEmail, TargetWebhook, TargetQueue:
		return t, true
	default:
		return "", false
	}
}

// Event describes a completed registration. It never carries the password.
type Event struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Status    string `json:"status"`
}

// FullName joins first and last name.
func (e Event) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Notifier is implemented by every delivery target.
type Notifier interface {
	NotifyRegistered(ctx context.Context, ev Event) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) NotifyRegistered(context.Context, Event) error { return nil }
