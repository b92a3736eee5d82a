package notify

import (
	"context"

	"github.com/nholik/netloc-sentinel/internal/transition"
)

// Notifier tells humans about profile switches and failed switches.
type Notifier interface {
	Notify(ctx context.Context, host string, change transition.Transition) error
}

func outcomeTitle(change transition.Transition) string {
	if change.Failed() {
		return "Network Location Switch Failed"
	}
	return "Network Location Switched"
}

func networkLabel(change transition.Transition) string {
	switch {
	case change.Ethernet:
		return "Ethernet"
	case change.SSID != "":
		return "Wi-Fi " + change.SSID
	default:
		return "no network"
	}
}
