package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FallbackWiFiProfile is used when a profile file omits default_wifi_location.
	FallbackWiFiProfile = "Automatic"
	// FallbackEthernetProfile is used when a profile file omits ethernet_location.
	FallbackEthernetProfile = "Wired"
)

// ProfileMap maps observed network state to named OS network profiles.
// A loaded ProfileMap is never modified; reloads build a new value.
type ProfileMap struct {
	SSIDToProfile      map[string]string
	DefaultWiFiProfile string
	EthernetProfile    string
	LogFile            string
}

// profileFile is the on-disk shape shared by the JSON and YAML encodings.
type profileFile struct {
	SSIDLocationMap     map[string]string `json:"ssid_location_map" yaml:"ssid_location_map"`
	DefaultWiFiLocation *string           `json:"default_wifi_location" yaml:"default_wifi_location"`
	EthernetLocation    *string           `json:"ethernet_location" yaml:"ethernet_location"`
	LogFile             string            `json:"log_file" yaml:"log_file"`
}

// ProfileFor returns the profile mapped to ssid.
func (p *ProfileMap) ProfileFor(ssid string) (string, bool) {
	if p == nil {
		return "", false
	}
	profile, ok := p.SSIDToProfile[ssid]
	return profile, ok
}

// SSIDs returns the mapped SSIDs in sorted order.
func (p *ProfileMap) SSIDs() []string {
	if p == nil {
		return nil
	}
	ssids := make([]string, 0, len(p.SSIDToProfile))
	for ssid := range p.SSIDToProfile {
		ssids = append(ssids, ssid)
	}
	sort.Strings(ssids)
	return ssids
}

// Profiles returns every profile name the map can resolve to, sorted and deduplicated.
func (p *ProfileMap) Profiles() []string {
	if p == nil {
		return nil
	}
	seen := map[string]struct{}{
		p.DefaultWiFiProfile: {},
		p.EthernetProfile:    {},
	}
	for _, profile := range p.SSIDToProfile {
		seen[profile] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for profile := range seen {
		out = append(out, profile)
	}
	sort.Strings(out)
	return out
}

// LoadProfileMap reads and validates a profile file. Files ending in .yaml or .yml
// are parsed as YAML, everything else as JSON.
// Warnings describe defaults that were applied for missing keys.
func LoadProfileMap(path string) (*ProfileMap, []string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, errors.New("profile file path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read profile file: %w", err)
	}

	return ParseProfileMap(data, filepath.Ext(path))
}

// ParseProfileMap decodes profile file bytes; ext selects the encoding.
func ParseProfileMap(data []byte, ext string) (*ProfileMap, []string, error) {
	var pf profileFile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, nil, fmt.Errorf("parse profile file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &pf); err != nil {
			return nil, nil, fmt.Errorf("parse profile file: %w", err)
		}
	}

	return buildProfileMap(pf)
}

func buildProfileMap(pf profileFile) (*ProfileMap, []string, error) {
	var warnings []string

	pm := &ProfileMap{
		SSIDToProfile: make(map[string]string, len(pf.SSIDLocationMap)),
		LogFile:       strings.TrimSpace(pf.LogFile),
	}

	switch {
	case pf.DefaultWiFiLocation == nil:
		warnings = append(warnings, fmt.Sprintf("missing default_wifi_location, using %q", FallbackWiFiProfile))
		pm.DefaultWiFiProfile = FallbackWiFiProfile
	case strings.TrimSpace(*pf.DefaultWiFiLocation) == "":
		return nil, nil, errors.New("default_wifi_location must not be empty")
	default:
		pm.DefaultWiFiProfile = strings.TrimSpace(*pf.DefaultWiFiLocation)
	}

	switch {
	case pf.EthernetLocation == nil:
		warnings = append(warnings, fmt.Sprintf("missing ethernet_location, using %q", FallbackEthernetProfile))
		pm.EthernetProfile = FallbackEthernetProfile
	case strings.TrimSpace(*pf.EthernetLocation) == "":
		return nil, nil, errors.New("ethernet_location must not be empty")
	default:
		pm.EthernetProfile = strings.TrimSpace(*pf.EthernetLocation)
	}

	for ssid, profile := range pf.SSIDLocationMap {
		if ssid == "" {
			return nil, nil, errors.New("ssid_location_map: empty SSID key")
		}
		profile = strings.TrimSpace(profile)
		if profile == "" {
			return nil, nil, fmt.Errorf("ssid %q: profile must not be empty", ssid)
		}
		pm.SSIDToProfile[ssid] = profile
	}

	return pm, warnings, nil
}

// DefaultProfileFile is the template written by init-config.
func DefaultProfileFile() []byte {
	return []byte(`{
  "ssid_location_map": {
    "YourWiFiNetwork": "Home",
    "OfficeWiFi": "Work",
    "MobileHotspot": "Mobile"
  },
  "default_wifi_location": "Automatic",
  "ethernet_location": "Wired",
  "log_file": "/usr/local/log/network_loc_switcher.log"
}
`)
}

// WriteDefaultProfileFile writes the default template to path, refusing to overwrite.
func WriteDefaultProfileFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create profile file: %w", err)
	}
	if _, err := file.Write(DefaultProfileFile()); err != nil {
		_ = file.Close()
		return fmt.Errorf("write profile file: %w", err)
	}
	return file.Close()
}
