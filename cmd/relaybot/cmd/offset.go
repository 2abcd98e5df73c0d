package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/replay"
	"github.com/hkuds/relaybot/internal/store"
)

var (
	offsetAccount  string
	offsetCategory string
)

var offsetCmd = &cobra.Command{
	Use:   "offset <source> <message-id>",
	Short: "Compute the replay skip offset for a message",
	Long:  "Compute the zero-based rank of a message among the category-matching recorded messages of <source>. Pass the result as --skip to 'relaybot replay' to resume at that message.",
	Args:  cobra.ExactArgs(2),
	RunE:  runOffset,
}

func init() {
	offsetCmd.Flags().StringVar(&offsetAccount, "account", "", "account name (required)")
	offsetCmd.Flags().StringVar(&offsetCategory, "category", "", "media category (same tokens as replay)")
	_ = offsetCmd.MarkFlagRequired("account")
}

func runOffset(cmd *cobra.Command, args []string) error {
	source := args[0]
	targetID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("message-id must be a number")
	}
	cat, err := media.ParseCategory(offsetCategory)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Account(offsetAccount) == nil {
		return fmt.Errorf("account %q not found in config", offsetAccount)
	}

	msgLog, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open message log: %w", err)
	}
	defer msgLog.Close()

	resolver := replay.NewResolver(msgLog)
	found, offset, err := resolver.Resolve(context.Background(), offsetAccount, source, targetID, cat)
	if err != nil {
		return err
	}

	if !found {
		fmt.Printf("Message %d not found in %s (category %s). %d matching message(s) recorded.\n", targetID, source, cat, offset)
		return nil
	}
	fmt.Printf("Offset of message %d in %s is %d (category %s).\n", targetID, source, offset, cat)
	fmt.Printf("Resume with: relaybot replay %s <target> <limit> --account %s --skip %d --category %s\n", source, offsetAccount, offset, cat)
	return nil
}
