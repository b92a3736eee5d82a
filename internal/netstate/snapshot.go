package netstate

import (
	"context"
	"time"
)

// Snapshot is a point-in-time read of Ethernet and Wi-Fi state.
// A new Snapshot is built for every resolution cycle; values are never updated.
type Snapshot struct {
	EthernetConnected bool
	EthernetKnown     bool
	WiFiSSID          string
	WiFiAssociated    bool
	WiFiKnown         bool
	TakenAt           time.Time
}

// SSID returns the associated SSID, if any.
func (s Snapshot) SSID() (string, bool) {
	if !s.WiFiAssociated || s.WiFiSSID == "" {
		return "", false
	}
	return s.WiFiSSID, true
}

// Actionable reports whether at least one field was read successfully.
func (s Snapshot) Actionable() bool {
	return s.EthernetKnown || s.WiFiKnown
}

// Prober queries the OS for interface state. Calls may block on subprocesses.
type Prober interface {
	// EthernetConnected reports whether any wired interface has an active link.
	EthernetConnected(ctx context.Context) (bool, error)

	// WiFiSSID returns the SSID of the primary Wi-Fi interface when associated.
	WiFiSSID(ctx context.Context) (ssid string, associated bool, err error)
}
