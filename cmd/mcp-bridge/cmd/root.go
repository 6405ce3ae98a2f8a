// Package cmd provides the CLI commands for mcp-bridge.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/mcp-bridge/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mcp-bridge",
	Short: "mcp-bridge - MCP engine over Streamable HTTP",
	Long: `mcp-bridge exposes a Model Context Protocol engine to remote clients.

Every POST /mcp is handed to a fresh, stateless engine session; the
engine's response is streamed straight back. The same server answers
/health and /metrics and serves static files for everything else.

Quick start:
  1. Put your site (optional) in ./public
  2. Run: mcp-bridge start
  3. Point an MCP client at http://127.0.0.1:3000/mcp

Configuration:
  Config is loaded from mcp-bridge.yaml in the current directory,
  $HOME/.mcp-bridge/, or /etc/mcp-bridge/. A .env file in the working
  directory is loaded first.

  Environment variables can override config values with the MCP_BRIDGE_ prefix.
  Example: MCP_BRIDGE_SERVER_HTTP_ADDR=0.0.0.0:3000

Commands:
  start       Start the bridge
  stop        Stop the running bridge
  config      Print the effective configuration
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./mcp-bridge.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
