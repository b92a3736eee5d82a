package state

import (
	"context"
	"time"

	"github.com/nholik/netloc-sentinel/internal/profile"
	"github.com/nholik/netloc-sentinel/internal/transition"
)

// MaxRecent bounds the persisted transition history.
const MaxRecent = 20

// State is the persisted record of switch activity.
type State struct {
	ActiveProfile       string                  `json:"active_profile,omitempty"`
	LastTransition      *transition.Transition  `json:"last_transition,omitempty"`
	LastNotified        *transition.Transition  `json:"last_notified,omitempty"`
	Recent              []transition.Transition `json:"recent"`
	ConsecutiveFailures int                     `json:"consecutive_failures"`
	LastCycleAt         time.Time               `json:"last_cycle_at"`
}

// Record folds a transition into the state. Unchanged outcomes only refresh
// the active profile and reset the failure streak.
func (s *State) Record(t transition.Transition) {
	s.LastCycleAt = t.At

	switch t.Outcome {
	case profile.OutcomeExhausted:
		s.ConsecutiveFailures++
		if t.From != "" {
			s.ActiveProfile = t.From
		}
	default:
		s.ConsecutiveFailures = 0
		s.ActiveProfile = t.To
	}
	if t.Outcome == profile.OutcomeUnchanged {
		return
	}

	recorded := t
	s.LastTransition = &recorded
	s.Recent = append(s.Recent, t)
	if len(s.Recent) > MaxRecent {
		s.Recent = append([]transition.Transition(nil), s.Recent[len(s.Recent)-MaxRecent:]...)
	}
}

// MarkNotified remembers t as the last notified transition.
func (s *State) MarkNotified(t transition.Transition) {
	notified := t
	s.LastNotified = &notified
}

// Store defines the interface for persisting state.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
	// Update applies fn to the stored state and saves the result atomically
	// with respect to other Update calls.
	Update(ctx context.Context, fn func(*State)) (State, error)
}
