package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running mcp-bridge server",
	Long: `Stop a running mcp-bridge server by reading its PID file and sending SIGTERM.

The PID file is located at ~/.mcp-bridge/server.pid.

Examples:
  # Stop the running server
  mcp-bridge stop`,
	RunE: runStop,
}

// stopPollInterval and stopPolls bound how long stop waits before SIGKILL.
const (
	stopPollInterval = 200 * time.Millisecond
	stopPolls        = 50
)

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	pidPath := pidFilePath()
	errOut := cmd.ErrOrStderr()

	pid := readPIDFile(pidPath)
	if pid == 0 {
		return fmt.Errorf("no server PID file found at %s\nIs the server running?", pidPath)
	}

	if !processIsAlive(pid) {
		_ = os.Remove(pidPath)
		return fmt.Errorf("server process %d is not running (stale PID file removed)", pid)
	}

	fmt.Fprintf(errOut, "Stopping mcp-bridge (PID %d)...\n", pid)
	if err := sendGracefulStop(pid); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	for i := 0; i < stopPolls; i++ {
		time.Sleep(stopPollInterval)
		if !processIsAlive(pid) {
			_ = os.Remove(pidPath)
			fmt.Fprintf(errOut, "Server stopped.\n")
			return nil
		}
	}

	fmt.Fprintf(errOut, "Server did not stop gracefully, killing it...\n")
	if err := forceStop(pid); err != nil {
		return fmt.Errorf("failed to kill server: %w", err)
	}
	_ = os.Remove(pidPath)
	fmt.Fprintf(errOut, "Server killed.\n")
	return nil
}

// pidFilePath returns the standard location for the mcp-bridge PID file.
func pidFilePath() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".mcp-bridge", "server.pid")
	}
	return filepath.Join(os.TempDir(), "mcp-bridge-server.pid")
}

// writePIDFile writes the current process PID to the given path, creating
// parent directories as needed.
func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644)
}

// readPIDFile returns the PID stored at path, or 0 if it is missing or malformed.
func readPIDFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}
