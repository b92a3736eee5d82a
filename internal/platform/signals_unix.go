//go:build !windows

package platform

import (
	"os"
	"syscall"
)

// ReloadSignals ask for a profile map reload.
func ReloadSignals() []os.Signal {
	return []os.Signal{syscall.SIGHUP}
}

// ResolveSignals ask for an immediate re-resolution.
func ResolveSignals() []os.Signal {
	return []os.Signal{syscall.SIGUSR1}
}
