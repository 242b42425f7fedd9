//go:build windows

package daemonize

// Daemonize is a no-op on Windows, mirroring the original's #else
// branch that returns immediately without forking — Windows services
// are started detached by the service manager, not by self-forking.
func Daemonize(pidFile string) (isParent bool, err error) {
	return false, nil
}
