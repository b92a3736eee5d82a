package healthcheck

import (
	"sync"
	"time"
)

// Snapshot describes the latest cycle and subscription details.
type Snapshot struct {
	LastCycleTime   *time.Time `json:"last_cycle_time"`
	CycleDurationMS int64      `json:"cycle_duration_ms"`
	LastOutcome     string     `json:"last_outcome,omitempty"`
	ActiveProfile   string     `json:"active_profile,omitempty"`
	Watching        bool       `json:"watching"`
}

// Tracker records cycle timing and subscription liveness for health endpoints.
type Tracker struct {
	mu            sync.RWMutex
	lastCycle     time.Time
	cycleDuration time.Duration
	lastOutcome   string
	activeProfile string
	watching      bool
	ready         bool
}

// NewTracker constructs a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordCycle updates cycle timing and readiness. An empty profile keeps the previous one.
func (t *Tracker) RecordCycle(duration time.Duration, outcome, activeProfile string) {
	if t == nil {
		return
	}
	now := time.Now().UTC()
	t.mu.Lock()
	t.lastCycle = now
	t.cycleDuration = duration
	t.lastOutcome = outcome
	if activeProfile != "" {
		t.activeProfile = activeProfile
	}
	t.ready = true
	t.mu.Unlock()
}

// SetWatching records whether the change subscription is live.
func (t *Tracker) SetWatching(watching bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.watching = watching
	t.mu.Unlock()
}

// Snapshot returns the current tracker snapshot.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	var last *time.Time
	if !t.lastCycle.IsZero() {
		value := t.lastCycle
		last = &value
	}
	return Snapshot{
		LastCycleTime:   last,
		CycleDurationMS: int64(t.cycleDuration / time.Millisecond),
		LastOutcome:     t.lastOutcome,
		ActiveProfile:   t.activeProfile,
		Watching:        t.watching,
	}
}

// Ready reports whether at least one cycle has completed.
func (t *Tracker) Ready() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

// Healthy reports whether network changes are currently being observed.
func (t *Tracker) Healthy() bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.watching
}
