// Package cooldown remembers keys that must not be retried until a window
// has passed. The registration flow uses it after the identity backend
// rate-limits a sign-up.
package cooldown

import (
	"context"
	"time"
)

// Tracker is implemented by the memory and redis drivers.
type Tracker interface {
	// Remaining returns how long key is still cooling down, or zero.
	Remaining(ctx context.Context, key string) (time.Duration, error)
	// Start puts key into cooldown for window.
	Start(ctx context.Context, key string, window time.Duration) error
	Close() error
}
