package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nholik/netloc-sentinel/internal/transition"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// SlackNotifier posts Block Kit messages to a Slack incoming webhook.
type SlackNotifier struct {
	logger     zerolog.Logger
	webhookURL string
	timing     timingConfig
	delivery   *delivery
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides rate limiting and retry parameters (primarily for testing).
func WithSlackTiming(rateInterval time.Duration, rateBurst, retries int, retryWaitMin, retryWaitMax time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.timing.rateInterval = rateInterval
		s.timing.rateBurst = rateBurst
		s.timing.retries = retries
		s.timing.retryWaitMin = retryWaitMin
		s.timing.retryWaitMax = retryWaitMax
	}
}

// NewSlackNotifier creates a Slack notifier or a noop notifier when the webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; slack notifications disabled")
	}

	notifier := &SlackNotifier{
		logger:     logger,
		webhookURL: webhookURL,
		timing:     defaultTiming,
	}
	for _, opt := range opts {
		opt(notifier)
	}
	notifier.delivery = newDelivery(logger, "slack", webhookURL, notifier.timing)

	return notifier
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, host string, change transition.Transition) error {
	payload, err := json.Marshal(buildSlackMessage(host, change))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	if err := n.delivery.send(ctx, change.To, payload); err != nil {
		return err
	}

	n.logger.Debug().
		Str("host", host).
		Str("to", change.To).
		Str("outcome", string(change.Outcome)).
		Msg("slack notification sent")
	return nil
}

func buildSlackMessage(host string, change transition.Transition) slack.WebhookMessage {
	summary := fmt.Sprintf("%s: %s", outcomeTitle(change), change.To)
	if host != "" {
		summary = fmt.Sprintf("%s on %s", summary, host)
	}

	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", summary, false, false))

	title := fmt.Sprintf("`%s` → `%s`", profileLabel(change.From), change.To)
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", "*Reason:*\n"+string(change.Reason), false, false),
		slack.NewTextBlockObject("mrkdwn", "*Network:*\n"+networkLabel(change), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Attempts:*\n%d", change.Attempts), false, false),
	}
	if change.Error != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", "*Error:*\n"+change.Error, false, false))
	}
	section := slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", title, false, false), fields, nil)

	contextElements := []slack.MixedElement{
		slack.NewTextBlockObject("mrkdwn", change.At.UTC().Format(time.RFC3339), false, false),
	}
	if host != "" {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Host: *%s*", host), false, false))
	}

	blockSet := slack.Blocks{BlockSet: []slack.Block{header, section, slack.NewContextBlock("", contextElements...)}}
	return slack.WebhookMessage{
		Text:   summary,
		Blocks: &blockSet,
	}
}

func profileLabel(name string) string {
	if name == "" {
		return "unknown"
	}
	return name
}
