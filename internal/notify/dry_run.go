package notify

import (
	"context"

	"github.com/nholik/netloc-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

// DryRunNotifier logs transitions without sending notifications.
type DryRunNotifier struct {
	logger zerolog.Logger
	inner  Notifier
}

// NewDryRunNotifier returns a notifier that suppresses delivery and logs instead.
func NewDryRunNotifier(logger zerolog.Logger, inner Notifier) *DryRunNotifier {
	return &DryRunNotifier{logger: logger, inner: inner}
}

// Notify implements Notifier.
func (n *DryRunNotifier) Notify(_ context.Context, host string, change transition.Transition) error {
	n.logger.Info().
		Str("host", host).
		Str("from", change.From).
		Str("to", change.To).
		Str("reason", string(change.Reason)).
		Str("outcome", string(change.Outcome)).
		Msg("[DRY-RUN] Would notify")
	return nil
}
