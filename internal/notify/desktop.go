package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nholik/netloc-sentinel/internal/sysexec"
	"github.com/nholik/netloc-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

const (
	osascriptPath = "/usr/bin/osascript"
	launchctlPath = "/bin/launchctl"
)

// DesktopNotifier posts a local desktop notification: Notification Center
// through osascript on macOS, notify-send elsewhere.
type DesktopNotifier struct {
	logger  zerolog.Logger
	runner  sysexec.Runner
	goos    string
	geteuid func() int
}

// NewDesktopNotifier returns a notifier for the given GOOS.
func NewDesktopNotifier(logger zerolog.Logger, runner sysexec.Runner, goos string) *DesktopNotifier {
	return &DesktopNotifier{
		logger:  logger,
		runner:  runner,
		goos:    goos,
		geteuid: os.Geteuid,
	}
}

// Notify implements Notifier.
func (n *DesktopNotifier) Notify(ctx context.Context, _ string, change transition.Transition) error {
	title := outcomeTitle(change)
	body := fmt.Sprintf("Switched to '%s' network location", change.To)
	if change.Failed() {
		body = fmt.Sprintf("Could not switch to '%s' network location", change.To)
	}
	return n.Send(ctx, title, body)
}

// Send posts an arbitrary notification.
func (n *DesktopNotifier) Send(ctx context.Context, title, body string) error {
	if n.goos != "darwin" {
		if _, err := n.runner.Run(ctx, "notify-send", "--app-name=netloc-sentinel", title, body); err != nil {
			return fmt.Errorf("desktop notification: %w", err)
		}
		return nil
	}

	script := fmt.Sprintf(`display notification "%s" with title "%s" sound name "Glass"`,
		escapeAppleScript(body), escapeAppleScript(title))

	// A system daemon runs as root; deliver into the console user's session.
	if n.geteuid() == 0 {
		uid, err := n.consoleUID(ctx)
		if err != nil {
			return fmt.Errorf("desktop notification: %w", err)
		}
		if _, err := n.runner.Run(ctx, launchctlPath, "asuser", uid, osascriptPath, "-e", script); err != nil {
			return fmt.Errorf("desktop notification: %w", err)
		}
		return nil
	}

	if _, err := n.runner.Run(ctx, osascriptPath, "-e", script); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

func (n *DesktopNotifier) consoleUID(ctx context.Context) (string, error) {
	out, err := n.runner.Run(ctx, "/usr/bin/stat", "-f", "%Su", "/dev/console")
	if err != nil {
		return "", fmt.Errorf("console user: %w", err)
	}
	user := strings.TrimSpace(string(out))
	if user == "" || user == "root" {
		return "", errors.New("no console user logged in")
	}
	out, err = n.runner.Run(ctx, "/usr/bin/id", "-u", user)
	if err != nil {
		return "", fmt.Errorf("uid for %s: %w", user, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
