package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "relaybot",
	Short: "relaybot - selective Telegram message forwarder",
	Long:  `relaybot watches configured Telegram chats across multiple accounts and forwards matching messages to other chats, driven by per-source keyword and media rules. It also replays recorded history in resumable batches.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.relaybot/config.yaml)")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(offsetCmd)
	rootCmd.AddCommand(versionCmd)
}
