package observer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gonet "github.com/shirou/gopsutil/v4/net"
)

// Ticker is the minimal interface needed for driving the poll loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// Fingerprinter summarizes observable network state as a comparable string.
type Fingerprinter func(ctx context.Context) (string, error)

// PollSubscriber emits an event whenever the fingerprint changes between polls.
// It serves hosts without a usable notification API.
type PollSubscriber struct {
	logger        zerolog.Logger
	interval      time.Duration
	fingerprint   Fingerprinter
	tickerFactory func(time.Duration) Ticker
}

// PollOption customizes PollSubscriber behavior.
type PollOption func(*PollSubscriber)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) PollOption {
	return func(p *PollSubscriber) {
		p.tickerFactory = factory
	}
}

// NewPollSubscriber polls fingerprint every interval.
func NewPollSubscriber(logger zerolog.Logger, interval time.Duration, fingerprint Fingerprinter, opts ...PollOption) *PollSubscriber {
	p := &PollSubscriber{
		logger:      logger,
		interval:    interval,
		fingerprint: fingerprint,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe implements Subscriber. The baseline fingerprint is taken
// synchronously so an unusable probe fails the subscription.
func (p *PollSubscriber) Subscribe(ctx context.Context) (Subscription, error) {
	if p.interval <= 0 {
		return nil, errors.New("poll interval must be greater than zero")
	}
	last, err := p.fingerprint(ctx)
	if err != nil {
		return nil, fmt.Errorf("baseline fingerprint: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := newStream(cancel)
	ticker := p.tickerFactory(p.interval)

	go func() {
		defer ticker.Stop()
		defer cancel()
		for {
			select {
			case <-runCtx.Done():
				s.finish(runCtx.Err())
				return
			case <-ticker.C():
				current, err := p.fingerprint(runCtx)
				if err != nil {
					if runCtx.Err() != nil {
						s.finish(runCtx.Err())
					} else {
						s.finish(fmt.Errorf("poll fingerprint: %w", err))
					}
					return
				}
				if current != last {
					p.logger.Debug().Msg("network fingerprint changed")
					last = current
					s.emit()
				}
			}
		}
	}()

	return s, nil
}

// InterfaceFingerprint reports interface names, flags and addresses.
func InterfaceFingerprint(ctx context.Context) (string, error) {
	ifaces, err := gonet.InterfacesWithContext(ctx)
	if err != nil {
		return "", err
	}
	return fingerprintInterfaces(ifaces), nil
}

func fingerprintInterfaces(ifaces gonet.InterfaceStatList) string {
	lines := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		flags := slices.Clone(iface.Flags)
		slices.Sort(flags)
		addrs := make([]string, 0, len(iface.Addrs))
		for _, addr := range iface.Addrs {
			addrs = append(addrs, addr.Addr)
		}
		slices.Sort(addrs)
		lines = append(lines, iface.Name+"|"+strings.Join(flags, ",")+"|"+strings.Join(addrs, ","))
	}
	slices.Sort(lines)
	return strings.Join(lines, "\n")
}
