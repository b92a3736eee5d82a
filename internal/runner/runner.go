// Package runner owns the resolution pipeline. One goroutine consumes change
// signals, settles them through a Debouncer, and runs one cycle at a time:
//
//	snapshot -> resolve -> apply -> record -> notify
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/nholik/netloc-sentinel/internal/config"
	"github.com/nholik/netloc-sentinel/internal/debounce"
	"github.com/nholik/netloc-sentinel/internal/healthcheck"
	"github.com/nholik/netloc-sentinel/internal/locate"
	"github.com/nholik/netloc-sentinel/internal/metrics"
	"github.com/nholik/netloc-sentinel/internal/netstate"
	"github.com/nholik/netloc-sentinel/internal/notify"
	"github.com/nholik/netloc-sentinel/internal/profile"
	"github.com/nholik/netloc-sentinel/internal/state"
	"github.com/nholik/netloc-sentinel/internal/transition"
	"github.com/rs/zerolog"
)

const outcomeSkipped = "skipped"

var (
	errNoNetworkState = errors.New("no network state could be determined")
	errNoProfileMap   = errors.New("no profile map loaded")
	errNotConfigured  = errors.New("runner is missing a snapshot builder, profile source or executor")
)

// SnapshotBuilder takes a fresh network snapshot.
type SnapshotBuilder interface {
	Build(ctx context.Context) netstate.Snapshot
}

// ProfileSource serves the current profile map.
type ProfileSource interface {
	Current() *config.ProfileMap
}

// Executor applies a resolved target.
type Executor interface {
	Apply(ctx context.Context, target locate.Target) profile.Result
}

// Runner orchestrates the main execution loop.
type Runner struct {
	logger         zerolog.Logger
	settleWindow   time.Duration
	timerFactory   func(time.Duration) debounce.Timer
	signals        <-chan struct{}
	force          chan struct{}
	runOnce        func(context.Context) error
	startupResolve bool
	now            func() time.Time

	builder  SnapshotBuilder
	profiles ProfileSource
	executor Executor
	store    state.Store
	notifier notify.Notifier
	host     string
	metrics  *metrics.Metrics
	tracker  *healthcheck.Tracker

	lastNotified *transition.Transition
}

// Option customizes runner behavior.
type Option func(*Runner)

// WithSignals sets the channel of raw change signals, usually Observer.Signals.
func WithSignals(signals <-chan struct{}) Option {
	return func(r *Runner) {
		r.signals = signals
	}
}

// WithTimerFactory overrides how settle timers are created.
func WithTimerFactory(factory func(time.Duration) debounce.Timer) Option {
	return func(r *Runner) {
		r.timerFactory = factory
	}
}

// WithRunOnce overrides the single-cycle execution step.
func WithRunOnce(runOnce func(context.Context) error) Option {
	return func(r *Runner) {
		r.runOnce = runOnce
	}
}

// WithStartupResolve controls whether Run resolves once before waiting for signals.
func WithStartupResolve(enabled bool) Option {
	return func(r *Runner) {
		r.startupResolve = enabled
	}
}

// WithClock overrides the time source for transitions and durations.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithPipeline sets the components used by the default RunOnce.
func WithPipeline(builder SnapshotBuilder, profiles ProfileSource, executor Executor) Option {
	return func(r *Runner) {
		r.builder = builder
		r.profiles = profiles
		r.executor = executor
	}
}

// WithStateStore enables state persistence for transitions.
func WithStateStore(store state.Store) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithNotifier sends switch and failure notifications labelled with host.
func WithNotifier(notifier notify.Notifier, host string) Option {
	return func(r *Runner) {
		r.notifier = notifier
		r.host = host
	}
}

// WithMetrics records cycle metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracker records cycle results for the health endpoints.
func WithTracker(tracker *healthcheck.Tracker) Option {
	return func(r *Runner) {
		r.tracker = tracker
	}
}

// New constructs a Runner that waits settleWindow after the last signal before resolving.
func New(logger zerolog.Logger, settleWindow time.Duration, opts ...Option) *Runner {
	r := &Runner{
		logger:         logger,
		settleWindow:   settleWindow,
		force:          make(chan struct{}, 1),
		startupResolve: true,
		now:            time.Now,
	}
	r.runOnce = r.defaultRunOnce

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ResolveNow queues a resolution that skips the settle window. Requests made
// while a cycle runs coalesce into one follow-up cycle.
func (r *Runner) ResolveNow() {
	select {
	case r.force <- struct{}{}:
	default:
	}
}

// Run starts the main loop and blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if r.settleWindow <= 0 {
		return errors.New("settle window must be greater than zero")
	}
	if r.signals == nil {
		return errors.New("runner has no signal source")
	}

	var debounceOpts []debounce.Option
	if r.timerFactory != nil {
		debounceOpts = append(debounceOpts, debounce.WithTimerFactory(r.timerFactory))
	}
	settle := debounce.New(r.settleWindow, debounceOpts...)
	defer settle.Cancel()

	if r.startupResolve {
		r.cycle(ctx, "startup")
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("runner stopped")
			return nil
		case <-r.signals:
			settle.Signal()
		case <-r.force:
			settle.Cancel()
			r.cycle(ctx, "forced")
		case <-settle.C():
			absorbed := settle.Fired()
			r.logger.Debug().Int("signals", absorbed).Msg("network change settled")
			r.cycle(ctx, "settled")
		}
	}
}

// cycle runs one resolution. Cancellation of ctx does not interrupt it; the OS
// commands it runs are bounded by their own timeouts.
func (r *Runner) cycle(ctx context.Context, trigger string) {
	if err := r.RunOnce(context.WithoutCancel(ctx)); err != nil {
		r.logger.Error().Err(err).Str("trigger", trigger).Msg("resolution cycle failed")
	}
}

// RunOnce executes a single cycle of the runner.
func (r *Runner) RunOnce(ctx context.Context) error {
	return r.runOnce(ctx)
}

func (r *Runner) defaultRunOnce(ctx context.Context) error {
	if r.builder == nil || r.profiles == nil || r.executor == nil {
		return wrapRuntime("run cycle", errNotConfigured)
	}
	start := r.now()

	snap := r.builder.Build(ctx)
	if !snap.Actionable() {
		r.finishCycle(start, outcomeSkipped, "", false)
		return wrapRuntime("snapshot", errNoNetworkState)
	}

	pm := r.profiles.Current()
	if pm == nil {
		r.finishCycle(start, outcomeSkipped, "", false)
		return wrapRuntime("resolve", errNoProfileMap)
	}

	target := locate.Resolve(snap, *pm)
	ssid, _ := snap.SSID()
	r.logger.Debug().
		Str("to", target.Profile).
		Str("reason", string(target.Reason)).
		Str("ssid", ssid).
		Bool("ethernet", snap.EthernetConnected).
		Msg("target resolved")

	result := r.executor.Apply(ctx, target)
	change := transition.FromResult(result, snap, r.now().UTC())
	r.record(ctx, change)

	active := result.To
	if result.Outcome == profile.OutcomeExhausted {
		active = result.From
	}
	r.finishCycle(start, string(result.Outcome), active, result.Outcome != profile.OutcomeExhausted)

	if result.Err != nil {
		return wrapRuntime("apply", result.Err)
	}
	return nil
}

// record persists the transition and sends a notification when one is due.
func (r *Runner) record(ctx context.Context, change transition.Transition) {
	due := false
	persisted := false
	if r.store != nil {
		_, err := r.store.Update(ctx, func(st *state.State) {
			st.Record(change)
			if transition.ShouldNotify(st.LastNotified, change) {
				due = true
				st.MarkNotified(change)
			}
		})
		if err != nil {
			r.logger.Warn().Err(err).Msg("failed to persist state")
		} else {
			persisted = true
		}
	}
	if !persisted {
		due = transition.ShouldNotify(r.lastNotified, change)
	}
	if !due {
		return
	}
	notified := change
	r.lastNotified = &notified

	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, r.host, change); err != nil {
		r.logger.Warn().Err(err).Str("to", change.To).Msg("notification failed")
	}
}

func (r *Runner) finishCycle(start time.Time, outcome, active string, success bool) {
	duration := r.now().Sub(start)
	r.metrics.ObserveCycle(duration, outcome)
	r.metrics.SetActiveProfile(active)
	if success {
		r.metrics.SetLastSuccessfulCycleTimestamp(r.now())
	}
	r.tracker.RecordCycle(duration, outcome, active)
}
