package netstate

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Builder turns Prober answers into a Snapshot. A failing query degrades the
// affected field to unknown instead of failing the whole snapshot.
type Builder struct {
	prober Prober
	logger zerolog.Logger
	now    func() time.Time
}

// BuilderOption customizes Builder behavior.
type BuilderOption func(*Builder)

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder constructs a Builder around prober.
func NewBuilder(prober Prober, logger zerolog.Logger, opts ...BuilderOption) *Builder {
	b := &Builder{
		prober: prober,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build queries the OS and returns a fresh Snapshot. It never fails; check Actionable.
func (b *Builder) Build(ctx context.Context) Snapshot {
	snap := Snapshot{TakenAt: b.now()}

	wired, err := b.prober.EthernetConnected(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("ethernet state unknown; treating as disconnected")
	} else {
		snap.EthernetConnected = wired
		snap.EthernetKnown = true
	}

	ssid, associated, err := b.prober.WiFiSSID(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("wi-fi state unknown; treating as disassociated")
	} else {
		snap.WiFiSSID = ssid
		snap.WiFiAssociated = associated && ssid != ""
		snap.WiFiKnown = true
	}

	b.logger.Debug().
		Bool("ethernet", snap.EthernetConnected).
		Bool("ethernet_known", snap.EthernetKnown).
		Str("ssid", snap.WiFiSSID).
		Bool("wifi_known", snap.WiFiKnown).
		Msg("network snapshot")

	return snap
}
