package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/nholik/netloc-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

const defaultWebhookTemplate = `{"host":"{{ .Host }}","transition":{{ toJson .Transition }}}`

// WebhookPayload is the template context for webhook notifications.
type WebhookPayload struct {
	Host        string
	Transition  transition.Transition
	GeneratedAt time.Time
}

// WebhookNotifier sends transition notifications to a generic webhook.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	delivery *delivery
}

// NewWebhookNotifier creates a webhook notifier with the provided template.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL string, tmpl string) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}

	parsed, err := template.New("webhook").Funcs(template.FuncMap{
		"toJson": func(v any) (string, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}

	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		delivery: newDelivery(logger, "webhook", webhookURL, defaultTiming),
	}, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, host string, change transition.Transition) error {
	if n == nil {
		return nil
	}
	payload := WebhookPayload{
		Host:        host,
		Transition:  change,
		GeneratedAt: time.Now().UTC(),
	}

	var buf bytes.Buffer
	if err := n.template.Execute(&buf, payload); err != nil {
		return fmt.Errorf("render webhook template: %w", err)
	}
	if err := n.delivery.send(ctx, change.To, buf.Bytes()); err != nil {
		return err
	}

	n.logger.Debug().
		Str("host", host).
		Str("to", change.To).
		Msg("webhook notification sent")
	return nil
}
