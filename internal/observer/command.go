package observer

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// scutilWatchScript registers for global IPv4 changes plus link and AirPort
// changes on every interface, then blocks printing one line per notification.
const scutilWatchScript = `n.add State:/Network/Global/IPv4
n.add State:/Network/Interface/[^/]+/Link pattern
n.add State:/Network/Interface/[^/]+/AirPort pattern
n.add State:/Network/Interface/[^/]+/IPv4 pattern
n.watch
`

const stderrTail = 512

// CommandSubscriber runs a long-lived monitor process and treats every
// non-empty stdout line as one change notification.
type CommandSubscriber struct {
	logger   zerolog.Logger
	name     string
	args     []string
	script   string
	lookPath func(string) (string, error)
}

// NewCommandSubscriber returns a subscriber for name args. When script is
// non-empty it is written to the process stdin, which is kept open.
func NewCommandSubscriber(logger zerolog.Logger, script, name string, args ...string) *CommandSubscriber {
	return &CommandSubscriber{
		logger:   logger,
		name:     name,
		args:     args,
		script:   script,
		lookPath: exec.LookPath,
	}
}

// NewScutilSubscriber watches the macOS dynamic store.
func NewScutilSubscriber(logger zerolog.Logger) *CommandSubscriber {
	return NewCommandSubscriber(logger, scutilWatchScript, "/usr/sbin/scutil")
}

// NewIPMonitorSubscriber watches rtnetlink via iproute2.
func NewIPMonitorSubscriber(logger zerolog.Logger) *CommandSubscriber {
	return NewCommandSubscriber(logger, "", "ip", "monitor", "link", "address", "route")
}

// Name returns the monitor executable.
func (c *CommandSubscriber) Name() string {
	return c.name
}

// Command returns the monitor command line.
func (c *CommandSubscriber) Command() string {
	return strings.TrimSpace(c.name + " " + strings.Join(c.args, " "))
}

// Subscribe implements Subscriber.
func (c *CommandSubscriber) Subscribe(ctx context.Context) (Subscription, error) {
	path, err := c.lookPath(c.name)
	if err != nil {
		return nil, fmt.Errorf("monitor %s: %w", c.name, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, path, c.args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("monitor %s: %w", c.name, err)
	}
	var stdin io.WriteCloser
	if c.script != "" {
		if stdin, err = cmd.StdinPipe(); err != nil {
			cancel()
			return nil, fmt.Errorf("monitor %s: %w", c.name, err)
		}
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start monitor %s: %w", c.Command(), err)
	}
	if stdin != nil {
		if _, err := io.WriteString(stdin, c.script); err != nil {
			cancel()
			_ = cmd.Wait()
			return nil, fmt.Errorf("configure monitor %s: %w", c.name, err)
		}
	}

	s := newStream(cancel)
	c.logger.Debug().Str("command", c.Command()).Int("pid", cmd.Process.Pid).Msg("monitor started")

	go func() {
		defer cancel()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if strings.TrimSpace(scanner.Text()) != "" {
				s.emit()
			}
		}

		waitErr := cmd.Wait()
		switch {
		case runCtx.Err() != nil:
			s.finish(runCtx.Err())
		case waitErr != nil:
			s.finish(fmt.Errorf("monitor %s: %w%s", c.Command(), waitErr, tail(stderr.String())))
		default:
			s.finish(fmt.Errorf("monitor %s exited: %w%s", c.Command(), io.EOF, tail(stderr.String())))
		}
	}()

	return s, nil
}

func tail(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	if len(stderr) > stderrTail {
		stderr = stderr[len(stderr)-stderrTail:]
	}
	return ": " + stderr
}
