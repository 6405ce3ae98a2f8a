//go:build !windows

package cmd

import (
	"os"

	"golang.org/x/sys/unix"
)

// gracefulSignals returns the OS signals to capture for graceful shutdown.
// On Unix: SIGINT (Ctrl+C) and SIGTERM (kill).
func gracefulSignals() []os.Signal {
	return []os.Signal{unix.SIGINT, unix.SIGTERM}
}

// processIsAlive reports whether pid names a running process (signal 0).
// EPERM means the process exists but belongs to someone else.
func processIsAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

// sendGracefulStop sends SIGTERM so the bridge drains in-flight requests.
func sendGracefulStop(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

// forceStop sends SIGKILL.
func forceStop(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}
