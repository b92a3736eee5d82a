package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/mattn/go-shellwords"
	"github.com/nholik/netloc-sentinel/internal/sysexec"
)

// CommandApplier switches profiles with operator-supplied commands, e.g.
//
//	apply:   nmcli connection up {{.Profile}}
//	current: sh -c "nmcli -t -f NAME connection show --active | head -n1"
//
// Templates are expanded per argument after shell-style splitting, so a
// profile name containing spaces stays a single argument.
type CommandApplier struct {
	runner  sysexec.Runner
	apply   []*template.Template
	current []string
}

type commandData struct {
	Profile string
}

// NewCommandApplier parses the apply and current command lines.
func NewCommandApplier(runner sysexec.Runner, applyCommand, currentCommand string) (*CommandApplier, error) {
	applyArgs, err := splitCommand(applyCommand)
	if err != nil {
		return nil, fmt.Errorf("apply command: %w", err)
	}
	currentArgs, err := splitCommand(currentCommand)
	if err != nil {
		return nil, fmt.Errorf("current command: %w", err)
	}

	templates := make([]*template.Template, 0, len(applyArgs))
	for i, arg := range applyArgs {
		tmpl, err := template.New(fmt.Sprintf("arg%d", i)).Option("missingkey=error").Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("apply command argument %q: %w", arg, err)
		}
		templates = append(templates, tmpl)
	}

	return &CommandApplier{runner: runner, apply: templates, current: currentArgs}, nil
}

// Current implements Applier. The first non-empty output line is the profile.
func (a *CommandApplier) Current(ctx context.Context) (string, error) {
	out, err := a.runner.Run(ctx, a.current[0], a.current[1:]...)
	if err != nil {
		return "", fmt.Errorf("current profile: %w", err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			return name, nil
		}
	}
	return "", ErrNoActiveProfile
}

// Apply implements Applier.
func (a *CommandApplier) Apply(ctx context.Context, profile string) error {
	args, err := a.render(profile)
	if err != nil {
		return err
	}
	if _, err := a.runner.Run(ctx, args[0], args[1:]...); err != nil {
		return fmt.Errorf("apply profile %q: %w", profile, err)
	}
	return nil
}

func (a *CommandApplier) render(profile string) ([]string, error) {
	data := commandData{Profile: profile}
	args := make([]string, 0, len(a.apply))
	for _, tmpl := range a.apply {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("render apply command: %w", err)
		}
		args = append(args, buf.String())
	}
	return args, nil
}

func splitCommand(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, errors.New("command is empty")
	}
	parser := shellwords.NewParser()
	args, err := parser.Parse(line)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, errors.New("command is empty")
	}
	return args, nil
}
