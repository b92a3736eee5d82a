package notify

import (
	"context"
	"testing"

	"github.com/nholik/netloc-sentinel/internal/profile"
	"github.com/nholik/netloc-sentinel/internal/sysexec"
	"github.com/rs/zerolog"
)

func TestDesktopNotifierLinux(t *testing.T) {
	fake := sysexec.NewFakeRunner(map[string]sysexec.Response{
		"notify-send --app-name=netloc-sentinel Network Location Switched Switched to 'HomeLoc' network location": {},
	})
	n := NewDesktopNotifier(zerolog.Nop(), fake, "linux")

	if err := n.Notify(context.Background(), "laptop", makeTransition(profile.OutcomeSwitched)); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
}

func TestDesktopNotifierDarwinUser(t *testing.T) {
	script := `display notification "Could not switch to 'HomeLoc' network location" with title "Network Location Switch Failed" sound name "Glass"`
	fake := sysexec.NewFakeRunner(map[string]sysexec.Response{
		osascriptPath + " -e " + script: {},
	})
	n := NewDesktopNotifier(zerolog.Nop(), fake, "darwin")
	n.geteuid = func() int { return 501 }

	if err := n.Notify(context.Background(), "", makeTransition(profile.OutcomeExhausted)); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
}

func TestDesktopNotifierDarwinRoot(t *testing.T) {
	fake := sysexec.NewFakeRunner(map[string]sysexec.Response{
		"/usr/bin/stat -f %Su /dev/console": {Output: "alice\n"},
		"/usr/bin/id -u alice":              {Output: "501\n"},
	})
	fake.Set(launchctlPath+" asuser 501 "+osascriptPath+` -e display notification "body" with title "title" sound name "Glass"`, sysexec.Response{})
	n := NewDesktopNotifier(zerolog.Nop(), fake, "darwin")
	n.geteuid = func() int { return 0 }

	if err := n.Send(context.Background(), "title", "body"); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if fake.CallCount(launchctlPath) != 1 {
		t.Fatalf("expected launchctl delivery, calls: %v", fake.Calls())
	}
}

func TestDesktopNotifierDarwinRootNoConsoleUser(t *testing.T) {
	fake := sysexec.NewFakeRunner(map[string]sysexec.Response{
		"/usr/bin/stat -f %Su /dev/console": {Output: "root\n"},
	})
	n := NewDesktopNotifier(zerolog.Nop(), fake, "darwin")
	n.geteuid = func() int { return 0 }

	if err := n.Send(context.Background(), "title", "body"); err == nil {
		t.Fatalf("expected error without a console user")
	}
}

func TestEscapeAppleScript(t *testing.T) {
	got := escapeAppleScript(`say "hi" \ bye`)
	want := `say \"hi\" \\ bye`
	if got != want {
		t.Fatalf("escapeAppleScript = %q, want %q", got, want)
	}
}
