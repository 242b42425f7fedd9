//go:build !windows

// Package daemonize backgrounds the process the way a classic Unix
// service does: double-fork, detach from the controlling terminal,
// reset umask, chdir to "/", redirect the standard file descriptors to
// /dev/null, and write a pidfile. Grounded on
// original_source/playd/main.cpp's daemonize() — translated from its
// raw fork()/setsid()/lockf() sequence into an os.StartProcess
// self-exec, since a Go process cannot safely fork() on its own (the
// runtime's goroutine scheduler and GC threads don't survive a bare
// fork) — re-executing argv[0] in the detached child is the idiomatic
// Go substitute for the C double-fork.
package daemonize

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

// Daemonize re-executes the current process detached from its
// controlling terminal, writes pidFile, and returns true in the
// parent (which should os.Exit(0) immediately) or false in the child
// (which should continue running as the daemon). Mirrors the
// fork-twice-then-continue shape of the original, but as a single
// re-exec since Go processes can't fork in place.
func Daemonize(pidFile string) (isParent bool, err error) {
	if os.Getenv("BOOKER_DAEMON_CHILD") == "1" {
		if err := finishChild(pidFile); err != nil {
			return false, err
		}
		return false, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("daemonize: resolve executable: %w", err)
	}

	devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return false, fmt.Errorf("daemonize: open %s: %w", os.DevNull, err)
	}
	defer devnull.Close()

	env := append(os.Environ(), "BOOKER_DAEMON_CHILD=1")
	attr := &os.ProcAttr{
		Dir: "/",
		Env: env,
		Files: []*os.File{
			devnull, // stdin
			devnull, // stdout
			devnull, // stderr
		},
		Sys: &syscall.SysProcAttr{Setsid: true},
	}

	proc, err := os.StartProcess(exe, os.Args, attr)
	if err != nil {
		return false, fmt.Errorf("daemonize: start child: %w", err)
	}
	_ = proc.Release()

	return true, nil
}

// finishChild applies the child-side half of daemonize: umask(0) and
// the pidfile write. setsid/chdir/fd redirection already happened via
// ProcAttr in the parent's StartProcess call.
func finishChild(pidFile string) error {
	syscall.Umask(0)

	if pidFile == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(pidFile), 0o755); err != nil {
		return fmt.Errorf("daemonize: pidfile dir: %w", err)
	}

	f, err := os.OpenFile(pidFile, os.O_RDWR|os.O_CREATE, 0o640)
	if err != nil {
		return fmt.Errorf("daemonize: open pidfile: %w", err)
	}

	if err := lockExclusive(f); err != nil {
		f.Close()
		return fmt.Errorf("daemonize: lock pidfile (another instance running?): %w", err)
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return fmt.Errorf("daemonize: truncate pidfile: %w", err)
	}
	if _, err := f.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("daemonize: write pidfile: %w", err)
	}
	// Kept open for the life of the process so the lock stays held.
	heldPIDFile = f
	return nil
}

var heldPIDFile *os.File

// lockExclusive takes the same advisory lock the original's
// lockf(F_TLOCK) did, enforcing single-instance semantics per pidfile.
func lockExclusive(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}
