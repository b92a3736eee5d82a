package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"

	"github.com/nholik/netloc-sentinel/internal/config"
	"github.com/nholik/netloc-sentinel/internal/locate"
	"github.com/nholik/netloc-sentinel/internal/netstate"
	"github.com/nholik/netloc-sentinel/internal/notify"
	"github.com/nholik/netloc-sentinel/internal/platform"
	"github.com/nholik/netloc-sentinel/internal/profile"
	"github.com/nholik/netloc-sentinel/internal/sysexec"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var testKinds = []string{"config", "network", "location", "notification", "all"}

var testCmd = &cobra.Command{
	Use:       "test [config|network|location|notification|all]",
	Short:     "Check configuration and detection without switching",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: testKinds,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := "all"
		if len(args) == 1 {
			kind = strings.ToLower(args[0])
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return newDiagnostics(cmd.OutOrStdout(), cfg).Run(ctx, kind)
	},
}

// diagnostics prints what the daemon would see and do. It never switches.
type diagnostics struct {
	out        io.Writer
	cfg        config.Config
	searchEnv  config.SearchEnv
	newProber  func() (netstate.Prober, error)
	newApplier func() (profile.Applier, error)
	desktop    func(ctx context.Context, title, body string) error

	pm   *config.ProfileMap
	snap *netstate.Snapshot
}

func newDiagnostics(out io.Writer, cfg config.Config) *diagnostics {
	runner := sysexec.NewExecRunner(cfg.CommandTimeout)
	opts := platform.Options{
		GOOS:           runtime.GOOS,
		Runner:         runner,
		ApplyCommand:   cfg.ApplyCommand,
		CurrentCommand: cfg.CurrentCommand,
	}
	return &diagnostics{
		out:       out,
		cfg:       cfg,
		searchEnv: config.DefaultSearchEnv(),
		newProber: func() (netstate.Prober, error) {
			return platform.NewProber(opts)
		},
		newApplier: func() (profile.Applier, error) {
			return platform.NewApplier(zerolog.Nop(), opts)
		},
		desktop: notify.NewDesktopNotifier(zerolog.Nop(), runner, runtime.GOOS).Send,
	}
}

type check struct {
	name string
	run  func(context.Context) error
}

// Run executes the checks for kind and reports a summary.
func (d *diagnostics) Run(ctx context.Context, kind string) error {
	all := map[string]check{
		"config":       {"Configuration", d.checkConfig},
		"network":      {"Network detection", d.checkNetwork},
		"location":     {"Location resolution", d.checkLocation},
		"notification": {"Desktop notification", d.checkNotification},
	}

	var checks []check
	switch kind {
	case "all":
		for _, k := range []string{"config", "network", "location", "notification"} {
			checks = append(checks, all[k])
		}
	default:
		c, ok := all[kind]
		if !ok {
			return fmt.Errorf("unknown test %q (available: %s)", kind, strings.Join(testKinds, ", "))
		}
		checks = append(checks, c)
	}

	fmt.Fprintln(d.out, "netloc-sentinel diagnostics")
	fmt.Fprintln(d.out, strings.Repeat("=", 40))

	passed := 0
	for _, c := range checks {
		fmt.Fprintf(d.out, "\n%s\n", c.name)
		if err := c.run(ctx); err != nil {
			fmt.Fprintf(d.out, "  [fail] %v\n", err)
			continue
		}
		passed++
	}

	fmt.Fprintln(d.out, "\n"+strings.Repeat("=", 40))
	fmt.Fprintf(d.out, "Test Results: %d/%d tests passed\n", passed, len(checks))
	if passed != len(checks) {
		return fmt.Errorf("%d of %d checks failed", len(checks)-passed, len(checks))
	}
	return nil
}

func (d *diagnostics) checkConfig(context.Context) error {
	candidates, err := d.searchEnv.Candidates(d.cfg.Mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(d.out, "  Search order (mode %s):\n", d.cfg.Mode)
	if d.cfg.ProfileFile != "" {
		fmt.Fprintf(d.out, "    0. %s (command line)\n", d.cfg.ProfileFile)
	}
	for i, c := range candidates {
		marker := "missing"
		if c.Exists {
			marker = "found"
		}
		fmt.Fprintf(d.out, "    %d. %s: %s [%s]\n", i+1, c.Label, c.Path, marker)
	}

	path, err := d.searchEnv.Discover(d.cfg.Mode, d.cfg.ProfileFile)
	if err != nil {
		return err
	}
	pm, warnings, err := config.LoadProfileMap(path)
	if err != nil {
		return err
	}
	d.pm = pm

	fmt.Fprintf(d.out, "  [ok] Loaded %s\n", path)
	for _, w := range warnings {
		fmt.Fprintf(d.out, "  [warn] %s\n", w)
	}
	fmt.Fprintf(d.out, "  SSID mappings: %d\n", len(pm.SSIDToProfile))
	for _, ssid := range pm.SSIDs() {
		target, _ := pm.ProfileFor(ssid)
		fmt.Fprintf(d.out, "    %q -> %q\n", ssid, target)
	}
	fmt.Fprintf(d.out, "  Default Wi-Fi profile: %s\n", pm.DefaultWiFiProfile)
	fmt.Fprintf(d.out, "  Ethernet profile: %s\n", pm.EthernetProfile)
	if pm.LogFile != "" {
		fmt.Fprintf(d.out, "  Log file: %s\n", pm.LogFile)
	}
	return nil
}

func (d *diagnostics) checkNetwork(ctx context.Context) error {
	prober, err := d.newProber()
	if err != nil {
		return err
	}
	snap := netstate.NewBuilder(prober, zerolog.Nop()).Build(ctx)
	d.snap = &snap

	fmt.Fprintf(d.out, "  Ethernet active: %s\n", knownBool(snap.EthernetConnected, snap.EthernetKnown))
	fmt.Fprintf(d.out, "  Wi-Fi associated: %s\n", knownBool(snap.WiFiAssociated, snap.WiFiKnown))
	if ssid, ok := snap.SSID(); ok {
		fmt.Fprintf(d.out, "  Current SSID: %s\n", ssid)
	} else {
		fmt.Fprintln(d.out, "  Current SSID: none")
	}
	if !snap.Actionable() {
		return errors.New("network state could not be read")
	}
	fmt.Fprintln(d.out, "  [ok] Network state detected")
	return nil
}

func (d *diagnostics) checkLocation(ctx context.Context) error {
	if d.pm == nil {
		if err := d.quiet(ctx, d.checkConfig); err != nil {
			return fmt.Errorf("configuration: %w", err)
		}
	}
	if d.snap == nil {
		if err := d.quiet(ctx, d.checkNetwork); err != nil {
			return fmt.Errorf("network: %w", err)
		}
	}

	applier, err := d.newApplier()
	if err != nil {
		return err
	}
	current, err := applier.Current(ctx)
	if err != nil {
		fmt.Fprintf(d.out, "  Current profile: unknown (%v)\n", err)
	} else {
		fmt.Fprintf(d.out, "  Current profile: %s\n", current)
	}

	target := locate.Resolve(*d.snap, *d.pm)
	fmt.Fprintf(d.out, "  Target profile: %s\n", target)
	if err == nil && current == target.Profile {
		fmt.Fprintln(d.out, "  No switch needed")
	}

	lister, ok := applier.(profile.Lister)
	if !ok {
		fmt.Fprintln(d.out, "  [info] Profile listing not supported; skipping existence check")
		return nil
	}
	available, err := lister.Profiles(ctx)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	fmt.Fprintf(d.out, "  Available profiles: %s\n", strings.Join(available, ", "))

	var missing []string
	for _, name := range d.pm.Profiles() {
		if !slices.Contains(available, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("configured profiles do not exist: %s", strings.Join(missing, ", "))
	}
	fmt.Fprintln(d.out, "  [ok] All configured profiles exist")
	return nil
}

func (d *diagnostics) checkNotification(ctx context.Context) error {
	if err := d.desktop(ctx, "netloc-sentinel", "Test notification"); err != nil {
		return err
	}
	fmt.Fprintln(d.out, "  [ok] Notification sent")
	return nil
}

// quiet runs fn with its output discarded.
func (d *diagnostics) quiet(ctx context.Context, fn func(context.Context) error) error {
	out := d.out
	d.out = io.Discard
	defer func() { d.out = out }()
	return fn(ctx)
}

func knownBool(value, known bool) string {
	if !known {
		return "unknown"
	}
	if value {
		return "yes"
	}
	return "no"
}
