package notify

import (
	"context"

	"github.com/aussiebroadwan/portal/internal/portal/domain"
	"github.com/aussiebroadwan/portal/internal/portal/metrics"
	"github.com/aussiebroadwan/portal/pkg/retryx"
	"github.com/aussiebroadwan/portal/pkg/slogx"
)

// Dispatcher runs one notifier with bounded retries and reports the outcome
// instead of failing the caller.
type Dispatcher struct {
	target   Target
	notifier Notifier
	retry    retryx.Config
}

// NewDispatcher wraps n. A nil notifier or TargetNone skips every delivery.
func NewDispatcher(target Target, n Notifier, cfg retryx.Config) *Dispatcher {
	if n == nil {
		target = TargetNone
	}
	return &Dispatcher{target: target, notifier: n, retry: cfg}
}

// Target returns the configured target.
func (d *Dispatcher) Target() Target { return d.target }

// Deliver sends ev and returns what happened to it.
func (d *Dispatcher) Deliver(ctx context.Context, ev Event) domain.DeliveryState {
	if d == nil || d.target == TargetNone {
		return domain.DeliverySkipped
	}

	logger := slogx.FromContext(ctx).With("target", string(d.target), "user_id", ev.UserID)

	err := retryx.Do(ctx, d.retry, func(attempt int) error {
		err := d.notifier.NotifyRegistered(ctx, ev)
		if err != nil {
			logger.Warn("delivery attempt failed", "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		logger.Error("delivery failed", "error", err)
		metrics.RecordDelivery(string(d.target), string(domain.DeliveryFailed))
		return domain.DeliveryFailed
	}

	logger.Debug("delivery succeeded")
	metrics.RecordDelivery(string(d.target), string(domain.DeliveryDelivered))
	return domain.DeliveryDelivered
}
