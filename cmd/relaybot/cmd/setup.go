package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hkuds/relaybot/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run interactive setup wizard",
	Long:  "Run the interactive setup wizard to configure an account: bot token, admins, monitored chats and timing.",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := tui.RunSetup(configPath)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	fmt.Println()
	tui.ShowQuickStatus(cfg)

	fmt.Println()
	fmt.Println("You can now:")
	fmt.Println("  - Start watching:   relaybot run")
	fmt.Println("  - Manage rules:     relaybot rules --account <name> list")
	fmt.Println("  - View full status: relaybot status")

	return nil
}
