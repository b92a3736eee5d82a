package coordinator

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/nholik/netloc-sentinel/internal/config"
	"github.com/nholik/netloc-sentinel/internal/healthcheck"
	"github.com/nholik/netloc-sentinel/internal/metrics"
	"github.com/nholik/netloc-sentinel/internal/netstate"
	"github.com/nholik/netloc-sentinel/internal/notify"
	"github.com/nholik/netloc-sentinel/internal/observer"
	"github.com/nholik/netloc-sentinel/internal/platform"
	"github.com/nholik/netloc-sentinel/internal/profile"
	"github.com/nholik/netloc-sentinel/internal/runner"
	"github.com/nholik/netloc-sentinel/internal/server"
	"github.com/nholik/netloc-sentinel/internal/state"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Coordinator wires the observer, runner, profile watcher and HTTP endpoints
// together and owns their lifetime.
type Coordinator struct {
	logger   zerolog.Logger
	cfg      config.Config
	profiles *config.ProfileStore
	platform platform.Platform
	store    *state.FileStore
	notifier notify.Notifier
	host     string
	metrics  *metrics.Metrics
	tracker  *healthcheck.Tracker
	observer []observer.Option
	runnerOp []runner.Option

	mu     sync.RWMutex
	runner *runner.Runner
}

// Option customizes coordinator wiring.
type Option func(*Coordinator)

// WithStateStore persists transitions to store.
func WithStateStore(store *state.FileStore) Option {
	return func(c *Coordinator) {
		c.store = store
	}
}

// WithNotifier sends notifications labelled with host.
func WithNotifier(notifier notify.Notifier, host string) Option {
	return func(c *Coordinator) {
		c.notifier = notifier
		c.host = host
	}
}

// WithMetrics records Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithTracker records health state.
func WithTracker(tracker *healthcheck.Tracker) Option {
	return func(c *Coordinator) {
		c.tracker = tracker
	}
}

// WithObserverOptions passes extra options to the observer.
func WithObserverOptions(opts ...observer.Option) Option {
	return func(c *Coordinator) {
		c.observer = append(c.observer, opts...)
	}
}

// WithRunnerOptions passes extra options to the runner.
func WithRunnerOptions(opts ...runner.Option) Option {
	return func(c *Coordinator) {
		c.runnerOp = append(c.runnerOp, opts...)
	}
}

// New constructs a Coordinator with the given configuration and platform.
func New(logger zerolog.Logger, cfg config.Config, profiles *config.ProfileStore, plat platform.Platform, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:   logger,
		cfg:      cfg,
		profiles: profiles,
		platform: plat,
		tracker:  healthcheck.NewTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run subscribes to network changes and processes them until ctx is canceled.
// A failed initial subscription is returned; everything after that recovers.
func (c *Coordinator) Run(ctx context.Context) error {
	obsOpts := []observer.Option{
		observer.WithBackOff(observer.ExponentialBackOff(c.cfg.ResubscribeInitial, c.cfg.ResubscribeMax)),
		observer.WithSignalHook(c.metrics.IncSignals),
		observer.WithLivenessHook(func(live bool) {
			c.tracker.SetWatching(live)
			c.metrics.SetSubscriptionUp(live)
		}),
		observer.WithResubscribeHook(c.metrics.IncResubscriptions),
	}
	obs := observer.New(c.platform.Subscriber, c.logger, append(obsOpts, c.observer...)...)
	if err := obs.Start(ctx); err != nil {
		return err
	}

	executor := profile.NewExecutor(c.platform.Applier, c.logger,
		profile.WithMaxAttempts(c.cfg.ApplyAttempts),
		profile.WithRetryDelay(c.cfg.ApplyRetryDelay),
		profile.WithAttemptObserver(func(_ int, err error) {
			c.metrics.IncApplyAttempt(err == nil)
		}),
	)

	runOpts := []runner.Option{
		runner.WithSignals(obs.Signals()),
		runner.WithPipeline(netstate.NewBuilder(c.platform.Prober, c.logger), c.profiles, executor),
		runner.WithNotifier(c.notifier, c.host),
		runner.WithMetrics(c.metrics),
		runner.WithTracker(c.tracker),
	}
	if c.store != nil {
		runOpts = append(runOpts, runner.WithStateStore(c.store))
	}
	r := runner.New(c.logger, c.cfg.SettleWindow, append(runOpts, c.runnerOp...)...)
	c.mu.Lock()
	c.runner = r
	c.mu.Unlock()

	watcher := config.NewWatcher(c.profiles, c.logger, func(changed bool, err error) {
		switch {
		case err != nil:
			c.metrics.IncConfigReload("error")
		case changed:
			c.metrics.IncConfigReload("changed")
			r.ResolveNow()
		default:
			c.metrics.IncConfigReload("unchanged")
		}
	})

	c.logger.Info().
		Str("platform", c.platform.GOOS).
		Dur("settle_window", c.cfg.SettleWindow).
		Int("apply_attempts", c.cfg.ApplyAttempts).
		Msg("starting coordinator")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return obs.Run(gctx) })
	g.Go(func() error { return r.Run(gctx) })
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error {
		c.handleSignals(gctx, watcher, r)
		return nil
	})

	server.Start(gctx, c.logger, server.Options{
		HealthPort:  c.cfg.HealthPort,
		MetricsPort: c.cfg.MetricsPort,
		Tracker:     c.tracker,
		Metrics:     c.metrics,
		Resolve:     r.ResolveNow,
	})

	err := g.Wait()
	c.logger.Info().Msg("coordinator stopped")
	return err
}

// handleSignals forwards reload and resolve signals until ctx is done.
func (c *Coordinator) handleSignals(ctx context.Context, watcher *config.Watcher, r *runner.Runner) {
	reload := make(chan os.Signal, 1)
	resolve := make(chan os.Signal, 1)
	if sigs := platform.ReloadSignals(); len(sigs) > 0 {
		signal.Notify(reload, sigs...)
		defer signal.Stop(reload)
	}
	if sigs := platform.ResolveSignals(); len(sigs) > 0 {
		signal.Notify(resolve, sigs...)
		defer signal.Stop(resolve)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-reload:
			c.logger.Info().Str("signal", sig.String()).Msg("profile reload requested")
			watcher.Request()
		case sig := <-resolve:
			c.logger.Info().Str("signal", sig.String()).Msg("re-resolve requested")
			r.ResolveNow()
		}
	}
}

// Runner returns the active runner, or nil before Run has subscribed.
func (c *Coordinator) Runner() *runner.Runner {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runner
}

// Tracker returns the health tracker.
func (c *Coordinator) Tracker() *healthcheck.Tracker {
	return c.tracker
}
