// Package platform selects the OS-specific prober, applier and change
// subscriber for the running host.
package platform

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/nholik/netloc-sentinel/internal/config"
	"github.com/nholik/netloc-sentinel/internal/netstate"
	"github.com/nholik/netloc-sentinel/internal/observer"
	"github.com/nholik/netloc-sentinel/internal/profile"
	"github.com/nholik/netloc-sentinel/internal/sysexec"
	"github.com/rs/zerolog"
)

// ErrUnsupported is returned when the host OS has no network probe.
var ErrUnsupported = errors.New("unsupported platform")

// Platform bundles the OS primitives the pipeline runs on.
type Platform struct {
	GOOS       string
	Prober     netstate.Prober
	Applier    profile.Applier
	Subscriber observer.Subscriber
}

// Options selects and configures the primitives.
type Options struct {
	GOOS           string
	Runner         sysexec.Runner
	ApplyCommand   string
	CurrentCommand string
	DryRun         bool
	WatchMode      config.WatchMode
	PollInterval   time.Duration
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// New builds the Platform for opts.GOOS. A missing prober or applier is fatal.
func New(logger zerolog.Logger, opts Options) (Platform, error) {
	if opts.Runner == nil {
		return Platform{}, errors.New("platform requires a command runner")
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}

	prober, err := newProber(opts)
	if err != nil {
		return Platform{}, err
	}
	applier, err := newApplier(logger, opts)
	if err != nil {
		return Platform{}, err
	}
	subscriber, err := newSubscriber(logger, opts, prober)
	if err != nil {
		return Platform{}, err
	}

	return Platform{
		GOOS:       opts.GOOS,
		Prober:     prober,
		Applier:    applier,
		Subscriber: subscriber,
	}, nil
}

// NewProber returns only the network probe, for diagnostics.
func NewProber(opts Options) (netstate.Prober, error) {
	if opts.Runner == nil {
		return nil, errors.New("platform requires a command runner")
	}
	return newProber(opts)
}

// NewApplier returns only the profile applier, for diagnostics.
func NewApplier(logger zerolog.Logger, opts Options) (profile.Applier, error) {
	if opts.Runner == nil {
		return nil, errors.New("platform requires a command runner")
	}
	return newApplier(logger, opts)
}

func newProber(opts Options) (netstate.Prober, error) {
	switch opts.GOOS {
	case "darwin":
		return netstate.NewDarwinProber(opts.Runner), nil
	case "linux":
		return netstate.NewLinuxProber(opts.Runner), nil
	default:
		return nil, fmt.Errorf("%w: no network probe for %s", ErrUnsupported, opts.GOOS)
	}
}

func newApplier(logger zerolog.Logger, opts Options) (profile.Applier, error) {
	var applier profile.Applier
	switch {
	case opts.ApplyCommand != "":
		commandApplier, err := profile.NewCommandApplier(opts.Runner, opts.ApplyCommand, opts.CurrentCommand)
		if err != nil {
			return nil, err
		}
		applier = commandApplier
	case opts.GOOS == "darwin":
		applier = profile.NewDarwinApplier(opts.Runner)
	default:
		return nil, fmt.Errorf("%w: no profile applier for %s; set NLS_APPLY_COMMAND and NLS_CURRENT_COMMAND", ErrUnsupported, opts.GOOS)
	}

	if opts.DryRun {
		return profile.NewDryRunApplier(logger, applier), nil
	}
	return applier, nil
}

func newSubscriber(logger zerolog.Logger, opts Options, prober netstate.Prober) (observer.Subscriber, error) {
	poll := func() observer.Subscriber {
		return observer.NewPollSubscriber(logger, opts.PollInterval, NetworkFingerprint(prober))
	}

	mode := opts.WatchMode
	if mode == "" {
		mode = config.WatchAuto
	}
	if mode == config.WatchPoll {
		return poll(), nil
	}

	var monitor *observer.CommandSubscriber
	switch opts.GOOS {
	case "darwin":
		monitor = observer.NewScutilSubscriber(logger)
	case "linux":
		monitor = observer.NewIPMonitorSubscriber(logger)
	}

	if mode == config.WatchCommand {
		if monitor == nil {
			return nil, fmt.Errorf("%w: no change monitor command for %s", ErrUnsupported, opts.GOOS)
		}
		return monitor, nil
	}

	if monitor != nil {
		if _, err := opts.LookPath(monitor.Name()); err == nil {
			return monitor, nil
		}
		logger.Warn().Str("command", monitor.Command()).Msg("change monitor unavailable; polling interfaces instead")
	}
	return poll(), nil
}

// NetworkFingerprint combines interface state with the Wi-Fi SSID. Roaming
// between networks can leave every address unchanged.
func NetworkFingerprint(prober netstate.Prober) observer.Fingerprinter {
	return func(ctx context.Context) (string, error) {
		ifaces, err := observer.InterfaceFingerprint(ctx)
		if err != nil {
			return "", err
		}
		ssid := "?"
		if name, associated, err := prober.WiFiSSID(ctx); err == nil {
			ssid = "-"
			if associated {
				ssid = name
			}
		}
		return ifaces + "\nssid|" + ssid, nil
	}
}
