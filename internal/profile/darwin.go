package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nholik/netloc-sentinel/internal/sysexec"
)

const (
	scselectPath     = "/usr/sbin/scselect"
	networksetupPath = "/usr/sbin/networksetup"
)

// ErrNoActiveProfile is returned when the OS reports no active profile.
var ErrNoActiveProfile = errors.New("no active profile reported")

// DarwinApplier switches macOS network locations.
type DarwinApplier struct {
	runner sysexec.Runner
}

// NewDarwinApplier returns an Applier backed by scselect and networksetup.
func NewDarwinApplier(runner sysexec.Runner) *DarwinApplier {
	return &DarwinApplier{runner: runner}
}

// Current implements Applier.
func (a *DarwinApplier) Current(ctx context.Context) (string, error) {
	locations, err := a.locations(ctx)
	if err != nil {
		return "", err
	}
	for _, loc := range locations {
		if loc.Active {
			return loc.Name, nil
		}
	}
	return "", ErrNoActiveProfile
}

// Apply implements Applier.
func (a *DarwinApplier) Apply(ctx context.Context, profile string) error {
	if _, err := a.runner.Run(ctx, networksetupPath, "-switchtolocation", profile); err != nil {
		return fmt.Errorf("switch to location %q: %w", profile, err)
	}
	return nil
}

// Profiles implements Lister.
func (a *DarwinApplier) Profiles(ctx context.Context) ([]string, error) {
	locations, err := a.locations(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(locations))
	for _, loc := range locations {
		names = append(names, loc.Name)
	}
	return names, nil
}

func (a *DarwinApplier) locations(ctx context.Context) ([]location, error) {
	out, err := a.runner.Run(ctx, scselectPath)
	if err != nil {
		return nil, fmt.Errorf("scselect: %w", err)
	}
	return parseScselect(string(out)), nil
}

type location struct {
	ID     string
	Name   string
	Active bool
}

// parseScselect parses lines of the form "* <ID> (<Name>)"; the leading '*'
// marks the active set.
func parseScselect(output string) []location {
	var out []location
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Defined") {
			continue
		}
		active := strings.HasPrefix(line, "*")
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))

		open := strings.Index(line, "(")
		closing := strings.LastIndex(line, ")")
		if open < 0 || closing <= open {
			continue
		}
		out = append(out, location{
			ID:     strings.TrimSpace(line[:open]),
			Name:   line[open+1 : closing],
			Active: active,
		})
	}
	return out
}
