package main

import (
	"context"
	"fmt"

	"github.com/nholik/netloc-sentinel/internal/netstate"
	"github.com/nholik/netloc-sentinel/internal/platform"
	"github.com/nholik/netloc-sentinel/internal/profile"
	"github.com/nholik/netloc-sentinel/internal/runner"
	"github.com/nholik/netloc-sentinel/internal/state"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve and apply the profile for the current network once",
	Long: `Run a single resolution cycle immediately and exit. A running instance
can be asked to do the same with SIGUSR1 or POST /resolve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		plat, err := platform.New(a.logger, a.platformOptions())
		if err != nil {
			return err
		}
		notifier, err := a.notifier()
		if err != nil {
			return err
		}

		executor := profile.NewExecutor(plat.Applier, a.logger,
			profile.WithMaxAttempts(a.cfg.ApplyAttempts),
			profile.WithRetryDelay(a.cfg.ApplyRetryDelay),
		)
		runOpts := []runner.Option{
			runner.WithPipeline(netstate.NewBuilder(plat.Prober, a.logger), a.profiles, executor),
			runner.WithNotifier(notifier, hostname()),
		}
		if a.cfg.StatePath != "" {
			runOpts = append(runOpts, runner.WithStateStore(state.NewFileStore(a.cfg.StatePath, a.logger)))
		}

		if err := runner.New(a.logger, a.cfg.SettleWindow, runOpts...).RunOnce(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Resolution complete")
		return nil
	},
}
