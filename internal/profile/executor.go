// Package profile switches the active OS network profile.
//
// Executor drives an explicit attempt state machine:
//
//	Idle -> Attempting(1) -> ... -> Attempting(n) -> Succeeded | Exhausted
//
// so the bound on apply calls is visible in one place.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nholik/netloc-sentinel/internal/locate"
	"github.com/rs/zerolog"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

// Applier is the OS profile primitive.
type Applier interface {
	// Current returns the name of the active profile.
	Current(ctx context.Context) (string, error)
	// Apply makes profile the active profile.
	Apply(ctx context.Context, profile string) error
}

// Lister is implemented by appliers that can enumerate the available profiles.
type Lister interface {
	Profiles(ctx context.Context) ([]string, error)
}

// Outcome summarizes what an Apply call did.
type Outcome string

const (
	OutcomeSwitched  Outcome = "switched"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeExhausted Outcome = "exhausted"
)

// Result describes one switch sequence.
type Result struct {
	From     string
	To       string
	Reason   locate.Reason
	Outcome  Outcome
	Attempts int
	Err      error
}

// Changed reports whether the active profile was switched.
func (r Result) Changed() bool {
	return r.Outcome == OutcomeSwitched
}

// ExhaustedError is returned when every apply attempt failed.
type ExhaustedError struct {
	Profile  string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("apply profile %q: gave up after %d attempts: %v", e.Profile, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type attemptState int

const (
	stateIdle attemptState = iota
	stateAttempting
	stateSucceeded
	stateExhausted
)

// Executor applies resolved targets idempotently with bounded retries.
// It is not safe for concurrent use; callers serialize Apply.
type Executor struct {
	applier     Applier
	logger      zerolog.Logger
	maxAttempts int
	retryDelay  time.Duration
	sleep       func(context.Context, time.Duration) error
	onAttempt   func(attempt int, err error)
}

// Option customizes Executor behavior.
type Option func(*Executor)

// WithMaxAttempts bounds the number of apply calls per switch.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithRetryDelay sets the base delay; attempt n waits delay*n before the next try.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Executor) {
		if d >= 0 {
			e.retryDelay = d
		}
	}
}

// WithSleep overrides how the executor waits between attempts.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// WithAttemptObserver registers a callback invoked after every apply call.
func WithAttemptObserver(fn func(attempt int, err error)) Option {
	return func(e *Executor) {
		e.onAttempt = fn
	}
}

// NewExecutor constructs an Executor around applier.
func NewExecutor(applier Applier, logger zerolog.Logger, opts ...Option) *Executor {
	e := &Executor{
		applier:     applier,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply switches to target unless it is already active. It never panics or
// exits; failures are reported in the Result.
func (e *Executor) Apply(ctx context.Context, target locate.Target) Result {
	result := Result{To: target.Profile, Reason: target.Reason}

	current, err := e.applier.Current(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Str("to", target.Profile).Msg("could not read current profile; applying anyway")
	} else {
		result.From = current
		if current == target.Profile {
			result.Outcome = OutcomeUnchanged
			result.Reason = locate.ReasonNoChange
			e.logger.Debug().
				Str("profile", current).
				Str("reason", string(locate.ReasonNoChange)).
				Str("cause", string(target.Reason)).
				Msg("profile already active")
			return result
		}
	}

	state := stateIdle
	attempt := 0
	var lastErr error

	for {
		switch state {
		case stateIdle:
			attempt = 1
			state = stateAttempting

		case stateAttempting:
			err := e.applier.Apply(ctx, target.Profile)
			if e.onAttempt != nil {
				e.onAttempt(attempt, err)
			}
			if err == nil {
				state = stateSucceeded
				continue
			}

			lastErr = err
			e.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", e.maxAttempts).
				Str("to", target.Profile).
				Msg("profile apply attempt failed")

			if attempt >= e.maxAttempts {
				state = stateExhausted
				continue
			}
			if err := e.sleep(ctx, e.retryDelay*time.Duration(attempt)); err != nil {
				lastErr = errors.Join(lastErr, err)
				state = stateExhausted
				continue
			}
			attempt++

		case stateSucceeded:
			result.Outcome = OutcomeSwitched
			result.Attempts = attempt
			e.logger.Info().
				Str("from", result.From).
				Str("to", result.To).
				Str("reason", string(result.Reason)).
				Int("attempts", attempt).
				Msg("switched network profile")
			return result

		case stateExhausted:
			result.Outcome = OutcomeExhausted
			result.Attempts = attempt
			result.Err = &ExhaustedError{Profile: target.Profile, Attempts: attempt, Err: lastErr}
			e.logger.Error().
				Err(lastErr).
				Str("from", result.From).
				Str("to", result.To).
				Str("reason", string(result.Reason)).
				Int("attempts", attempt).
				Msg("giving up on profile switch")
			return result
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
