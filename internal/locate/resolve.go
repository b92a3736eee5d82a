// Package locate maps a network snapshot onto the profile that should be active.
package locate

import (
	"fmt"

	"github.com/nholik/netloc-sentinel/internal/config"
	"github.com/nholik/netloc-sentinel/internal/netstate"
)

// Reason records which rule selected a target.
type Reason string

const (
	ReasonEthernet    Reason = "ETHERNET"
	ReasonKnownWiFi   Reason = "KNOWN_WIFI"
	ReasonDefaultWiFi Reason = "DEFAULT_WIFI"
	ReasonNoChange    Reason = "NO_CHANGE"
)

// Target is the profile a resolution cycle wants active.
type Target struct {
	Profile string
	Reason  Reason
}

func (t Target) String() string {
	return fmt.Sprintf("%s (%s)", t.Profile, t.Reason)
}

// Resolve picks the target profile for snap. Rules are evaluated in order and
// the first match wins: wired link, mapped SSID, default Wi-Fi profile.
// The returned profile is always one configured in pm, never a raw SSID.
func Resolve(snap netstate.Snapshot, pm config.ProfileMap) Target {
	if snap.EthernetConnected {
		return Target{Profile: pm.EthernetProfile, Reason: ReasonEthernet}
	}
	if ssid, ok := snap.SSID(); ok {
		if profile, mapped := pm.ProfileFor(ssid); mapped {
			return Target{Profile: profile, Reason: ReasonKnownWiFi}
		}
	}
	return Target{Profile: pm.DefaultWiFiProfile, Reason: ReasonDefaultWiFi}
}
