package notify

import (
	"github.com/nholik/netloc-sentinel/internal/sysexec"
	"github.com/rs/zerolog"
)

// Options selects the notification channels.
type Options struct {
	SlackWebhookURL string
	WebhookURL      string
	WebhookTemplate string
	Desktop         bool
	DryRun          bool
	Runner          sysexec.Runner
	GOOS            string
}

// New builds the configured notifier chain. With nothing configured it returns a noop.
func New(logger zerolog.Logger, opts Options) (Notifier, error) {
	var notifiers []Notifier

	if opts.SlackWebhookURL != "" {
		notifiers = append(notifiers, NewSlackNotifier(logger, opts.SlackWebhookURL))
	}
	webhook, err := NewWebhookNotifier(logger, opts.WebhookURL, opts.WebhookTemplate)
	if err != nil {
		return nil, err
	}
	if webhook != nil {
		notifiers = append(notifiers, webhook)
	}
	if opts.Desktop && opts.Runner != nil {
		notifiers = append(notifiers, NewDesktopNotifier(logger, opts.Runner, opts.GOOS))
	}

	if len(notifiers) == 0 {
		return NewNoop(logger, "no notification channels configured"), nil
	}

	var notifier Notifier = NewMultiNotifier(notifiers...)
	if opts.DryRun {
		notifier = NewDryRunNotifier(logger, notifier)
	}
	return notifier, nil
}
