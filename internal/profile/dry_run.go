package profile

import (
	"context"

	"github.com/rs/zerolog"
)

// DryRunApplier reports the real current profile but never switches.
type DryRunApplier struct {
	logger zerolog.Logger
	inner  Applier
}

// NewDryRunApplier wraps inner so Apply only logs.
func NewDryRunApplier(logger zerolog.Logger, inner Applier) *DryRunApplier {
	return &DryRunApplier{logger: logger, inner: inner}
}

// Current implements Applier.
func (a *DryRunApplier) Current(ctx context.Context) (string, error) {
	return a.inner.Current(ctx)
}

// Apply implements Applier.
func (a *DryRunApplier) Apply(_ context.Context, profile string) error {
	a.logger.Info().Str("to", profile).Msg("[DRY-RUN] Would switch profile")
	return nil
}

// Profiles implements Lister when the wrapped applier does.
func (a *DryRunApplier) Profiles(ctx context.Context) ([]string, error) {
	if lister, ok := a.inner.(Lister); ok {
		return lister.Profiles(ctx)
	}
	return nil, nil
}
