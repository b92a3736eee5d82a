//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/nholik/netloc-sentinel/internal/healthcheck"
	"github.com/nholik/netloc-sentinel/internal/logging"
	"github.com/nholik/netloc-sentinel/internal/metrics"
	"github.com/nholik/netloc-sentinel/internal/netstate"
	"github.com/nholik/netloc-sentinel/internal/observer"
	"github.com/nholik/netloc-sentinel/internal/platform"
	"github.com/nholik/netloc-sentinel/internal/server"
	"github.com/nholik/netloc-sentinel/internal/sysexec"
)

// TestIntegrationHostProbes verifies network probing and change subscription
// against the real host.
//
// Prerequisites:
//   - darwin, or linux with iproute2 and iwgetid or nmcli
//
// Run with: go test -tags=integration -v ./test/integration/...
func TestIntegrationHostProbes(t *testing.T) {
	opts := platform.Options{
		GOOS:         runtime.GOOS,
		Runner:       sysexec.NewExecRunner(10 * time.Second),
		PollInterval: time.Second,
	}
	prober, err := platform.NewProber(opts)
	if errors.Is(err, platform.ErrUnsupported) {
		t.Skipf("no network probe for %s", runtime.GOOS)
	}
	if err != nil {
		t.Fatalf("create prober: %v", err)
	}

	t.Run("Snapshot", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		snap := netstate.NewBuilder(prober, logging.New()).Build(ctx)
		if !snap.Actionable() {
			t.Fatal("expected at least one readable network field")
		}
		ssid, _ := snap.SSID()
		t.Logf("ethernet=%v wifi=%v ssid=%q", snap.EthernetConnected, snap.WiFiAssociated, ssid)
	})

	t.Run("PollSubscription", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sub := observer.NewPollSubscriber(logging.New(), time.Second, platform.NetworkFingerprint(prober))
		subscription, err := sub.Subscribe(ctx)
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		defer subscription.Close()

		select {
		case <-subscription.Done():
			t.Fatalf("subscription ended early: %v", subscription.Err())
		case <-time.After(2 * time.Second):
		}
	})
}

// TestIntegrationHTTPEndpoints serves the health, resolve and metrics routes on
// a real listener.
func TestIntegrationHTTPEndpoints(t *testing.T) {
	port := getEnvPort(t, "TEST_HEALTH_PORT")

	tracker := healthcheck.NewTracker()
	tracker.SetWatching(true)
	resolved := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	server.Start(ctx, logging.New(), server.Options{
		HealthPort:  port,
		MetricsPort: port,
		Tracker:     tracker,
		Metrics:     metrics.New(),
		Resolve:     func() { resolved <- struct{}{} },
	})

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	if err := waitForEndpoint(base + "/healthz"); err != nil {
		t.Fatalf("server not reachable: %v", err)
	}

	resp, err := http.Post(base+"/resolve", "application/json", nil)
	if err != nil {
		t.Fatalf("post resolve: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	select {
	case <-resolved:
	case <-time.After(time.Second):
		t.Fatal("resolve handler was not invoked")
	}

	resp, err = http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", resp.StatusCode)
	}
}

func getEnvPort(t *testing.T, key string) int {
	t.Helper()
	if value := os.Getenv(key); value != "" {
		var port int
		if _, err := fmt.Sscanf(value, "%d", &port); err == nil {
			return port
		}
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("pick free port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

func waitForEndpoint(url string) error {
	deadline := time.Now().Add(5 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return nil
		}
		lastErr = err
		time.Sleep(50 * time.Millisecond)
	}
	return lastErr
}
