package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration mcp-bridge would start with, after merging the
config file, environment variables, defaults and the --dev/--transport
flags, as YAML. Exits non-zero when the configuration is invalid.

Examples:
  mcp-bridge config
  MCP_BRIDGE_SERVER_HTTP_ADDR=0.0.0.0:8080 mcp-bridge config`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&devMode, "dev", false, "Apply development mode defaults")
	configCmd.Flags().StringVar(&transportFlag, "transport", "", "Transport override: http or stdio")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadEffectiveConfig()
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
