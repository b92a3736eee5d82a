package transition

import (
	"time"

	"github.com/nholik/netloc-sentinel/internal/locate"
	"github.com/nholik/netloc-sentinel/internal/netstate"
	"github.com/nholik/netloc-sentinel/internal/profile"
)

// Transition records the outcome of one resolution cycle that reached the executor.
type Transition struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Reason   locate.Reason   `json:"reason"`
	Outcome  profile.Outcome `json:"outcome"`
	Attempts int             `json:"attempts"`
	SSID     string          `json:"ssid,omitempty"`
	Ethernet bool            `json:"ethernet"`
	Error    string          `json:"error,omitempty"`
	At       time.Time       `json:"at"`
}

// FromResult builds a Transition from an executor result and the snapshot it acted on.
func FromResult(result profile.Result, snap netstate.Snapshot, at time.Time) Transition {
	t := Transition{
		From:     result.From,
		To:       result.To,
		Reason:   result.Reason,
		Outcome:  result.Outcome,
		Attempts: result.Attempts,
		Ethernet: snap.EthernetConnected,
		At:       at,
	}
	if ssid, ok := snap.SSID(); ok {
		t.SSID = ssid
	}
	if result.Err != nil {
		t.Error = result.Err.Error()
	}
	return t
}

// Failed reports whether the switch was attempted and gave up.
func (t Transition) Failed() bool {
	return t.Outcome == profile.OutcomeExhausted
}

// ShouldNotify decides whether current is worth telling a human about, given
// the last transition that was notified. Every switch is reported. A failure is
// reported once per target until something else is notified.
func ShouldNotify(lastNotified *Transition, current Transition) bool {
	switch current.Outcome {
	case profile.OutcomeSwitched:
		return true
	case profile.OutcomeExhausted:
		if lastNotified == nil {
			return true
		}
		return !(lastNotified.Failed() && lastNotified.To == current.To)
	default:
		return false
	}
}
