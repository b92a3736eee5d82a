package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadProfileMap_JSON(t *testing.T) {
	path := writeFile(t, "network-location-config.json", `{
  "_comment": "maps SSIDs to locations",
  "ssid_location_map": {
    "Home": "HomeLoc",
    "OfficeWiFi": "Work"
  },
  "default_wifi_location": "Automatic",
  "ethernet_location": "Wired",
  "log_file": "/tmp/netloc.log"
}`)

	pm, warnings, err := LoadProfileMap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	want := map[string]string{"Home": "HomeLoc", "OfficeWiFi": "Work"}
	if !reflect.DeepEqual(pm.SSIDToProfile, want) {
		t.Fatalf("unexpected mapping: %+v", pm.SSIDToProfile)
	}
	if pm.DefaultWiFiProfile != "Automatic" || pm.EthernetProfile != "Wired" {
		t.Fatalf("unexpected defaults: %+v", pm)
	}
	if pm.LogFile != "/tmp/netloc.log" {
		t.Fatalf("unexpected log file: %q", pm.LogFile)
	}
}

func TestLoadProfileMap_UnderscoreSSIDIsMapped(t *testing.T) {
	path := writeFile(t, "profiles.json", `{
  "_comment": "top-level keys outside the schema are ignored",
  "ssid_location_map": {"_guest": "Guest", "Home": "HomeLoc"},
  "default_wifi_location": "Automatic",
  "ethernet_location": "Wired"
}`)

	pm, _, err := LoadProfileMap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := pm.ProfileFor("_guest"); !ok || got != "Guest" {
		t.Fatalf("expected _guest to map to Guest, got %q (%v)", got, ok)
	}
}

func TestLoadProfileMap_YAML(t *testing.T) {
	path := writeFile(t, "profiles.yaml", `ssid_location_map:
  Home: HomeLoc
  "Cafe Guest": Public
default_wifi_location: Roaming
ethernet_location: Desk
`)

	pm, _, err := LoadProfileMap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := pm.ProfileFor("Cafe Guest"); !ok || got != "Public" {
		t.Fatalf("expected Cafe Guest mapping, got %q (%v)", got, ok)
	}
	if pm.DefaultWiFiProfile != "Roaming" || pm.EthernetProfile != "Desk" {
		t.Fatalf("unexpected defaults: %+v", pm)
	}
}

func TestLoadProfileMap_MissingKeysUseFallbacks(t *testing.T) {
	path := writeFile(t, "partial.json", `{"ssid_location_map": {}}`)

	pm, warnings, err := LoadProfileMap(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pm.DefaultWiFiProfile != FallbackWiFiProfile {
		t.Fatalf("expected fallback wifi profile, got %q", pm.DefaultWiFiProfile)
	}
	if pm.EthernetProfile != FallbackEthernetProfile {
		t.Fatalf("expected fallback ethernet profile, got %q", pm.EthernetProfile)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
}

func TestLoadProfileMap_Errors(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
		wantMsg string
	}{
		{"invalid json", "bad.json", `{"ssid_location_map": [`, "parse profile file"},
		{"invalid yaml", "bad.yaml", "ssid_location_map: [", "parse profile file"},
		{"empty default", "empty.json", `{"default_wifi_location": "  "}`, "default_wifi_location"},
		{"empty ethernet", "eth.json", `{"ethernet_location": ""}`, "ethernet_location"},
		{"empty ssid", "ssid.json", `{"ssid_location_map": {"": "Home"}}`, "empty SSID"},
		{"empty profile", "profile.json", `{"ssid_location_map": {"Home": " "}}`, `ssid "Home"`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.file, tc.content)
			_, _, err := LoadProfileMap(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.wantMsg, err)
			}
		})
	}
}

func TestLoadProfileMap_FileNotFound(t *testing.T) {
	if _, _, err := LoadProfileMap("/nonexistent/path/profiles.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, _, err := LoadProfileMap(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestProfileMap_Profiles(t *testing.T) {
	pm := &ProfileMap{
		SSIDToProfile:      map[string]string{"Home": "HomeLoc", "Lab": "Work", "Office": "Work"},
		DefaultWiFiProfile: "Automatic",
		EthernetProfile:    "Wired",
	}

	want := []string{"Automatic", "HomeLoc", "Wired", "Work"}
	if got := pm.Profiles(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Profiles() = %v, want %v", got, want)
	}
	if got := pm.SSIDs(); !reflect.DeepEqual(got, []string{"Home", "Lab", "Office"}) {
		t.Fatalf("SSIDs() = %v", got)
	}
}

func TestWriteDefaultProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ProfileFileName)

	if err := WriteDefaultProfileFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pm, warnings, err := LoadProfileMap(path)
	if err != nil {
		t.Fatalf("default template must load: %v", err)
	}
	if len(warnings) != 0 || len(pm.SSIDToProfile) != 3 {
		t.Fatalf("unexpected default template: %+v %v", pm, warnings)
	}

	if err := WriteDefaultProfileFile(path); err == nil {
		t.Fatalf("expected refusal to overwrite existing file")
	}
}
