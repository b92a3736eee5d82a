package netstate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nholik/netloc-sentinel/internal/sysexec"
)

const (
	networksetupPath = "/usr/sbin/networksetup"
	ifconfigPath     = "/sbin/ifconfig"

	notAssociatedPrefix = "You are not associated"
	currentNetworkLabel = "Current Wi-Fi Network:"
)

// HardwarePort is one entry of `networksetup -listallhardwareports`.
type HardwarePort struct {
	Name   string
	Device string
}

// DarwinProber reads interface state through networksetup and ifconfig.
type DarwinProber struct {
	runner sysexec.Runner
}

// NewDarwinProber returns a Prober for macOS.
func NewDarwinProber(runner sysexec.Runner) *DarwinProber {
	return &DarwinProber{runner: runner}
}

// HardwarePorts lists the hardware ports known to the system.
func (p *DarwinProber) HardwarePorts(ctx context.Context) ([]HardwarePort, error) {
	out, err := p.runner.Run(ctx, networksetupPath, "-listallhardwareports")
	if err != nil {
		return nil, fmt.Errorf("list hardware ports: %w", err)
	}
	ports := ParseHardwarePorts(string(out))
	if len(ports) == 0 {
		return nil, errors.New("list hardware ports: no ports reported")
	}
	return ports, nil
}

// WiFiDevice returns the Wi-Fi device name (e.g. en0), or "" when there is none.
func (p *DarwinProber) WiFiDevice(ctx context.Context) (string, error) {
	ports, err := p.HardwarePorts(ctx)
	if err != nil {
		return "", err
	}
	return wifiDevice(ports), nil
}

// EthernetConnected implements Prober. Any en* device other than Wi-Fi that is
// active with an IPv4 address counts as wired.
func (p *DarwinProber) EthernetConnected(ctx context.Context) (bool, error) {
	ports, err := p.HardwarePorts(ctx)
	if err != nil {
		return false, err
	}
	wifi := wifiDevice(ports)

	for _, port := range ports {
		if port.Device == "" || port.Device == wifi || !strings.HasPrefix(port.Device, "en") {
			continue
		}
		out, err := p.runner.Run(ctx, ifconfigPath, port.Device)
		if err != nil {
			continue
		}
		text := string(out)
		if strings.Contains(text, "status: active") && strings.Contains(text, "inet ") {
			return true, nil
		}
	}
	return false, nil
}

// WiFiSSID implements Prober.
func (p *DarwinProber) WiFiSSID(ctx context.Context) (string, bool, error) {
	device, err := p.WiFiDevice(ctx)
	if err != nil {
		return "", false, err
	}
	if device == "" {
		return "", false, nil
	}

	out, err := p.runner.Run(ctx, networksetupPath, "-getairportnetwork", device)
	if err != nil {
		return "", false, fmt.Errorf("get airport network: %w", err)
	}
	if ssid, ok := parseAirportNetwork(string(out)); ok {
		return ssid, true, nil
	}

	// Newer macOS releases hide the SSID from getairportnetwork even while
	// associated; fall back to the head of the preferred list if the link is up.
	status, err := p.runner.Run(ctx, ifconfigPath, device)
	if err != nil || !strings.Contains(string(status), "status: active") {
		return "", false, nil
	}
	preferred, err := p.runner.Run(ctx, networksetupPath, "-listpreferredwirelessnetworks", device)
	if err != nil {
		return "", false, nil
	}
	if ssid := firstPreferredNetwork(string(preferred)); ssid != "" {
		return ssid, true, nil
	}
	return "", false, nil
}

// ParseHardwarePorts parses `networksetup -listallhardwareports` output.
func ParseHardwarePorts(output string) []HardwarePort {
	var ports []HardwarePort
	var current *HardwarePort

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "Hardware Port:"):
			ports = append(ports, HardwarePort{Name: strings.TrimSpace(strings.TrimPrefix(line, "Hardware Port:"))})
			current = &ports[len(ports)-1]
		case strings.HasPrefix(line, "Device:") && current != nil:
			current.Device = strings.TrimSpace(strings.TrimPrefix(line, "Device:"))
		}
	}
	return ports
}

func wifiDevice(ports []HardwarePort) string {
	for _, port := range ports {
		if port.Name == "Wi-Fi" || port.Name == "AirPort" {
			return port.Device
		}
	}
	return ""
}

func parseAirportNetwork(output string) (string, bool) {
	line := strings.TrimSpace(output)
	if line == "" || strings.HasPrefix(line, notAssociatedPrefix) {
		return "", false
	}
	if !strings.HasPrefix(line, currentNetworkLabel) {
		return "", false
	}
	ssid := strings.TrimSpace(strings.TrimPrefix(line, currentNetworkLabel))
	return ssid, ssid != ""
}

func firstPreferredNetwork(output string) string {
	lines := strings.Split(output, "\n")
	if len(lines) < 2 {
		return ""
	}
	return strings.TrimSpace(lines[1])
}
