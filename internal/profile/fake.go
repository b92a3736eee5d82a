package profile

import (
	"context"
	"sync"
)

// FakeApplier is an in-memory Applier for tests and diagnostics.
// ApplyErrs are returned in order, one per Apply call, before Apply starts succeeding.
type FakeApplier struct {
	mu         sync.Mutex
	current    string
	currentErr error
	applyErrs  []error
	applied    []string
}

// NewFakeApplier returns a FakeApplier whose active profile is current.
func NewFakeApplier(current string, applyErrs ...error) *FakeApplier {
	return &FakeApplier{current: current, applyErrs: applyErrs}
}

// SetCurrentErr makes Current fail with err.
func (f *FakeApplier) SetCurrentErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentErr = err
}

// Current implements Applier.
func (f *FakeApplier) Current(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return "", f.currentErr
	}
	return f.current, nil
}

// Apply implements Applier.
func (f *FakeApplier) Apply(_ context.Context, profile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, profile)
	if len(f.applyErrs) > 0 {
		err := f.applyErrs[0]
		f.applyErrs = f.applyErrs[1:]
		if err != nil {
			return err
		}
	}
	f.current = profile
	return nil
}

// Applied returns every profile passed to Apply.
func (f *FakeApplier) Applied() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.applied...)
}
