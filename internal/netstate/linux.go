package netstate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nholik/netloc-sentinel/internal/sysexec"
	gonet "github.com/shirou/gopsutil/v4/net"
)

const defaultSysClassNet = "/sys/class/net"

// InterfaceLister returns the host's network interfaces.
type InterfaceLister func(ctx context.Context) (gonet.InterfaceStatList, error)

// LinuxProber reads link state from gopsutil and sysfs, and the SSID from
// iwgetid, falling back to nmcli.
type LinuxProber struct {
	runner     sysexec.Runner
	interfaces InterfaceLister
	sysRoot    string
}

// LinuxOption customizes LinuxProber behavior.
type LinuxOption func(*LinuxProber)

// WithInterfaceLister overrides interface enumeration.
func WithInterfaceLister(lister InterfaceLister) LinuxOption {
	return func(p *LinuxProber) {
		p.interfaces = lister
	}
}

// WithSysRoot overrides the /sys/class/net location.
func WithSysRoot(root string) LinuxOption {
	return func(p *LinuxProber) {
		p.sysRoot = root
	}
}

// NewLinuxProber returns a Prober for Linux hosts.
func NewLinuxProber(runner sysexec.Runner, opts ...LinuxOption) *LinuxProber {
	p := &LinuxProber{
		runner:     runner,
		interfaces: gonet.InterfacesWithContext,
		sysRoot:    defaultSysClassNet,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EthernetConnected implements Prober. Physical, non-wireless interfaces that
// are up, addressed and report a carrier in sysfs count as wired.
func (p *LinuxProber) EthernetConnected(ctx context.Context) (bool, error) {
	ifaces, err := p.interfaces(ctx)
	if err != nil {
		return false, fmt.Errorf("list interfaces: %w", err)
	}
	for _, iface := range ifaces {
		if slices.Contains(iface.Flags, "loopback") {
			continue
		}
		if !p.isPhysical(iface.Name) || p.isWireless(iface.Name) {
			continue
		}
		if slices.Contains(iface.Flags, "up") && len(iface.Addrs) > 0 && p.hasCarrier(iface.Name) {
			return true, nil
		}
	}
	return false, nil
}

// WiFiSSID implements Prober.
func (p *LinuxProber) WiFiSSID(ctx context.Context) (string, bool, error) {
	wireless, err := p.wirelessInterfaces()
	if err != nil {
		return "", false, err
	}
	if len(wireless) == 0 {
		return "", false, nil
	}

	out, err := p.runner.Run(ctx, "iwgetid", "-r")
	if err == nil {
		ssid := strings.TrimSpace(string(out))
		return ssid, ssid != "", nil
	}
	if sysexec.IsExit(err) {
		// iwgetid exits non-zero when no interface is associated.
		return "", false, nil
	}

	out, nmErr := p.runner.Run(ctx, "nmcli", "-t", "-f", "active,ssid", "dev", "wifi")
	if nmErr != nil {
		return "", false, errors.Join(fmt.Errorf("iwgetid: %w", err), fmt.Errorf("nmcli: %w", nmErr))
	}
	ssid := parseNmcliActiveSSID(string(out))
	return ssid, ssid != "", nil
}

func (p *LinuxProber) wirelessInterfaces() ([]string, error) {
	entries, err := os.ReadDir(p.sysRoot)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.sysRoot, err)
	}
	var names []string
	for _, entry := range entries {
		if p.isWireless(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (p *LinuxProber) isWireless(name string) bool {
	if _, err := os.Stat(filepath.Join(p.sysRoot, name, "wireless")); err == nil {
		return true
	}
	_, err := os.Stat(filepath.Join(p.sysRoot, name, "phy80211"))
	return err == nil
}

// isPhysical filters out bridges, veths and tunnels, which have no backing device.
func (p *LinuxProber) isPhysical(name string) bool {
	_, err := os.Stat(filepath.Join(p.sysRoot, name, "device"))
	return err == nil
}

// hasCarrier reports link state from sysfs. Some drivers leave operstate at
// "unknown" while carrier is set, so either is enough.
func (p *LinuxProber) hasCarrier(name string) bool {
	if readSysValue(filepath.Join(p.sysRoot, name, "carrier")) == "1" {
		return true
	}
	return readSysValue(filepath.Join(p.sysRoot, name, "operstate")) == "up"
}

// readSysValue returns the trimmed content of a sysfs attribute, or "" when
// it cannot be read. Reading carrier on a down interface fails with EINVAL.
func readSysValue(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// parseNmcliActiveSSID parses `nmcli -t -f active,ssid dev wifi` lines like "yes:Home".
func parseNmcliActiveSSID(output string) string {
	for _, line := range strings.Split(output, "\n") {
		active, ssid, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && active == "yes" {
			// nmcli escapes ':' inside terse fields.
			return strings.ReplaceAll(ssid, `\:`, ":")
		}
	}
	return ""
}
