package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type reloadResult struct {
	changed bool
	err     error
}

func startWatcher(t *testing.T, store *ProfileStore) (*Watcher, <-chan reloadResult) {
	t.Helper()
	results := make(chan reloadResult, 8)
	w := NewWatcher(store, zerolog.Nop(), func(changed bool, err error) {
		results <- reloadResult{changed: changed, err: err}
	})
	w.settle = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("watcher returned error: %v", err)
		}
	})
	return w, results
}

func waitReload(t *testing.T, results <-chan reloadResult) reloadResult {
	t.Helper()
	select {
	case res := <-results:
		return res
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}
	return reloadResult{}
}

func TestWatcher_RequestReloads(t *testing.T) {
	path := writeFile(t, "profiles.json", homeProfiles)
	store, err := NewProfileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, results := startWatcher(t, store)
	w.Request()

	res := waitReload(t, results)
	if res.err != nil || res.changed {
		t.Fatalf("expected unchanged reload, got %+v", res)
	}
}

func TestWatcher_FileWriteReloads(t *testing.T) {
	path := writeFile(t, "profiles.json", homeProfiles)
	store, err := NewProfileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, results := startWatcher(t, store)
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	updated := `{"ssid_location_map": {"Office": "Work"}, "default_wifi_location": "Roaming", "ethernet_location": "Wired"}`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case res := <-results:
			if res.err != nil {
				t.Fatalf("unexpected reload error: %v", res.err)
			}
			if res.changed {
				if got := store.Current().DefaultWiFiProfile; got != "Roaming" {
					t.Fatalf("unexpected default after reload: %q", got)
				}
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for file change reload")
		}
	}
}
