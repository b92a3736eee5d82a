// Package observer turns OS network-change notifications into content-free
// signals. The payload of a notification is never inspected; consumers always
// re-read ground truth.
package observer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Subscription is a live stream of change notifications.
type Subscription interface {
	// Events delivers one value per raw notification. Deliveries may be coalesced.
	Events() <-chan struct{}
	// Done is closed when the stream ends for any reason.
	Done() <-chan struct{}
	// Err reports why the stream ended, once Done is closed.
	Err() error
	Close() error
}

// Subscriber opens subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// ErrNotStarted is returned by Run when Start has not succeeded.
var ErrNotStarted = errors.New("observer not started")

// Observer keeps a subscription alive and forwards its events as signals.
type Observer struct {
	subscriber Subscriber
	logger     zerolog.Logger
	newBackOff func() backoff.BackOff
	sleep      func(context.Context, time.Duration) bool
	onSignal   func()
	onLive     func(bool)
	onResub    func()

	signals chan struct{}

	mu  sync.Mutex
	sub Subscription
}

// Option customizes Observer behavior.
type Option func(*Observer)

// WithBackOff sets the re-subscribe backoff policy.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(o *Observer) {
		o.newBackOff = factory
	}
}

// WithSleep overrides how the observer waits between re-subscribe attempts.
func WithSleep(sleep func(context.Context, time.Duration) bool) Option {
	return func(o *Observer) {
		o.sleep = sleep
	}
}

// WithSignalHook is called for every raw event received.
func WithSignalHook(fn func()) Option {
	return func(o *Observer) {
		o.onSignal = fn
	}
}

// WithLivenessHook is called whenever the subscription goes up or down.
func WithLivenessHook(fn func(live bool)) Option {
	return func(o *Observer) {
		o.onLive = fn
	}
}

// WithResubscribeHook is called after every successful re-subscribe.
func WithResubscribeHook(fn func()) Option {
	return func(o *Observer) {
		o.onResub = fn
	}
}

// ExponentialBackOff returns a policy that never gives up.
func ExponentialBackOff(initial, maxInterval time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = maxInterval
		b.MaxElapsedTime = 0
		b.Reset()
		return b
	}
}

// New constructs an Observer.
func New(subscriber Subscriber, logger zerolog.Logger, opts ...Option) *Observer {
	o := &Observer{
		subscriber: subscriber,
		logger:     logger,
		newBackOff: ExponentialBackOff(time.Second, time.Minute),
		sleep:      sleepWithContext,
		signals:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Signals returns the coalescing signal channel. At most one signal is pending;
// a pending signal stands for every event that arrived after it.
func (o *Observer) Signals() <-chan struct{} {
	return o.signals
}

// Start opens the initial subscription. A failure here is fatal to the caller.
func (o *Observer) Start(ctx context.Context) error {
	sub, err := o.subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to network changes: %w", err)
	}
	o.setSubscription(sub)
	o.setLive(true)
	o.logger.Info().Msg("watching for network changes")
	return nil
}

// Run forwards events until ctx is canceled, re-subscribing whenever the
// stream ends. It returns nil on cancellation.
func (o *Observer) Run(ctx context.Context) error {
	sub := o.subscription()
	if sub == nil {
		return ErrNotStarted
	}
	defer func() {
		if current := o.subscription(); current != nil {
			_ = current.Close()
		}
		o.setLive(false)
	}()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info().Msg("observer stopped")
			return nil

		case <-sub.Events():
			if o.onSignal != nil {
				o.onSignal()
			}
			o.Notify()

		case <-sub.Done():
			o.setLive(false)
			o.logger.Warn().Err(sub.Err()).Msg("network change subscription ended; re-subscribing")
			_ = sub.Close()

			next, ok := o.resubscribe(ctx)
			if !ok {
				o.logger.Info().Msg("observer stopped")
				return nil
			}
			sub = next
			o.setSubscription(sub)
			o.setLive(true)
			if o.onResub != nil {
				o.onResub()
			}
			// State may have changed while no subscription was active.
			o.Notify()
		}
	}
}

// Notify queues a signal unless one is already pending.
func (o *Observer) Notify() {
	select {
	case o.signals <- struct{}{}:
	default:
	}
}

func (o *Observer) resubscribe(ctx context.Context) (Subscription, bool) {
	policy := o.newBackOff()
	for attempt := 1; ; attempt++ {
		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			// Never give up; start the policy over.
			policy.Reset()
			wait = policy.NextBackOff()
		}
		if !o.sleep(ctx, wait) {
			return nil, false
		}

		sub, err := o.subscriber.Subscribe(ctx)
		if err == nil {
			o.logger.Info().Int("attempt", attempt).Msg("re-subscribed to network changes")
			return sub, true
		}
		if ctx.Err() != nil {
			return nil, false
		}
		o.logger.Warn().Err(err).Int("attempt", attempt).Dur("next_wait", wait).Msg("re-subscribe failed")
	}
}

func (o *Observer) subscription() Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sub
}

func (o *Observer) setSubscription(sub Subscription) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sub = sub
}

func (o *Observer) setLive(live bool) {
	if o.onLive != nil {
		o.onLive(live)
	}
}

func sleepWithContext(ctx context.Context, wait time.Duration) bool {
	if wait <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
