package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration status",
	Long:  "Display the current relaybot configuration: accounts, monitoring scope, rules and timing.",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	return tui.ShowStatus(cfg)
}
