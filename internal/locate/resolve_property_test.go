package locate

import (
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/nholik/netloc-sentinel/internal/config"
	"github.com/nholik/netloc-sentinel/internal/netstate"
)

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	return parameters
}

func mapFrom(ssids, profiles []string) config.ProfileMap {
	pm := config.ProfileMap{
		SSIDToProfile:      map[string]string{},
		DefaultWiFiProfile: "Automatic",
		EthernetProfile:    "Wired",
	}
	for i := 0; i < len(ssids) && i < len(profiles); i++ {
		if ssids[i] != "" && profiles[i] != "" {
			pm.SSIDToProfile[ssids[i]] = profiles[i]
		}
	}
	return pm
}

// Property: a wired link always selects the ethernet profile.
func TestResolveEthernetPriority(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("ethernet always wins", prop.ForAll(
		func(ssid string, associated bool, ssids, profiles []string) bool {
			snap := netstate.Snapshot{EthernetConnected: true, EthernetKnown: true, WiFiSSID: ssid, WiFiAssociated: associated, WiFiKnown: true}
			got := Resolve(snap, mapFrom(ssids, profiles))
			return got == Target{Profile: "Wired", Reason: ReasonEthernet}
		},
		gen.AlphaString(),
		gen.Bool(),
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// Property: an associated, mapped SSID selects its mapped profile.
func TestResolveKnownWiFi(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("mapped ssid resolves to its profile", prop.ForAll(
		func(ssids, profiles []string, pick int) bool {
			pm := mapFrom(ssids, profiles)
			keys := pm.SSIDs()
			if len(keys) == 0 {
				return true
			}
			ssid := keys[pick%len(keys)]
			got := Resolve(wifi(ssid), pm)
			return got == Target{Profile: pm.SSIDToProfile[ssid], Reason: ReasonKnownWiFi}
		},
		gen.SliceOfN(8, gen.AlphaString()),
		gen.SliceOfN(8, gen.AlphaString()),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// Property: absent or unmapped SSIDs fall back to the default Wi-Fi profile.
func TestResolveDefaultFallback(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("unmapped ssid resolves to default", prop.ForAll(
		func(ssid string, ssids, profiles []string) bool {
			pm := mapFrom(ssids, profiles)
			if _, mapped := pm.ProfileFor(ssid); mapped {
				return true
			}
			got := Resolve(wifi(ssid), pm)
			return got == Target{Profile: "Automatic", Reason: ReasonDefaultWiFi}
		},
		gen.AlphaString(),
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// Property: the target is always a configured profile and never a raw SSID.
func TestResolveTargetIsConfigured(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("target is a configured profile", prop.ForAll(
		func(wired, associated bool, ssid string, ssids, profiles []string) bool {
			pm := mapFrom(ssids, profiles)
			snap := netstate.Snapshot{EthernetConnected: wired, EthernetKnown: true, WiFiSSID: ssid, WiFiAssociated: associated, WiFiKnown: true}
			first := Resolve(snap, pm)
			second := Resolve(snap, pm)
			return first == second && slices.Contains(pm.Profiles(), first.Profile)
		},
		gen.Bool(),
		gen.Bool(),
		gen.AlphaString(),
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
