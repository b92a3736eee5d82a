package platform

import "os"

// ReloadSignals returns nil; Windows has no SIGHUP.
func ReloadSignals() []os.Signal {
	return nil
}

// ResolveSignals returns nil; Windows has no SIGUSR1.
func ResolveSignals() []os.Signal {
	return nil
}
