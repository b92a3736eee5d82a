package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nholik/netloc-sentinel/internal/coordinator"
	"github.com/nholik/netloc-sentinel/internal/metrics"
	"github.com/nholik/netloc-sentinel/internal/notify"
	"github.com/nholik/netloc-sentinel/internal/platform"
	"github.com/nholik/netloc-sentinel/internal/state"
)

func runDaemon(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	logStartup(a)

	plat, err := platform.New(a.logger, a.platformOptions())
	if err != nil {
		return err
	}

	notifier, err := a.notifier()
	if err != nil {
		return err
	}

	opts := []coordinator.Option{
		coordinator.WithNotifier(notifier, hostname()),
		coordinator.WithMetrics(metrics.New()),
	}
	if a.cfg.StatePath != "" {
		opts = append(opts, coordinator.WithStateStore(state.NewFileStore(a.cfg.StatePath, a.logger)))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = coordinator.New(a.logger, a.cfg, a.profiles, plat, opts...).Run(ctx)
	a.logger.Info().Msg("netloc-sentinel stopped")
	return err
}

func (a *app) notifier() (notify.Notifier, error) {
	return notify.New(a.logger, notify.Options{
		SlackWebhookURL: a.cfg.SlackWebhookURL,
		WebhookURL:      a.cfg.WebhookURL,
		WebhookTemplate: a.cfg.WebhookTemplate,
		Desktop:         a.cfg.DesktopNotify,
		DryRun:          a.cfg.DryRun,
		Runner:          a.runner,
		GOOS:            runtime.GOOS,
	})
}

// logStartup logs the version and the loaded mapping table.
func logStartup(a *app) {
	pm := a.profiles.Current()
	a.logger.Info().
		Str("version", Version).
		Str("platform", runtime.GOOS).
		Str("profile_file", a.profilePath).
		Str("mode", string(a.cfg.Mode)).
		Bool("dry_run", a.cfg.DryRun).
		Msg("netloc-sentinel starting")
	for _, ssid := range pm.SSIDs() {
		profile, _ := pm.ProfileFor(ssid)
		a.logger.Info().Str("ssid", ssid).Str("profile", profile).Msg("ssid mapping")
	}
	a.logger.Info().
		Str("default_wifi", pm.DefaultWiFiProfile).
		Str("ethernet", pm.EthernetProfile).
		Msg("fallback profiles")
}
