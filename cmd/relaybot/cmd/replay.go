package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/ratelimit"
	"github.com/hkuds/relaybot/internal/replay"
	"github.com/hkuds/relaybot/internal/store"
	"github.com/hkuds/relaybot/internal/telegram"
	"github.com/hkuds/relaybot/internal/tui"
)

var (
	replayAccount  string
	replaySkip     int
	replayCategory string
	replayPlain    bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <source> <target> <limit>",
	Short: "Replay recorded history to a destination",
	Long:  "Forward up to <limit> recorded messages from <source> to <target>, oldest first, skipping --skip matching messages. Use 'relaybot offset' to compute the skip value that resumes an earlier run.",
	Args:  cobra.ExactArgs(3),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayAccount, "account", "", "account name (required)")
	replayCmd.Flags().IntVar(&replaySkip, "skip", 0, "matching messages to skip before forwarding")
	replayCmd.Flags().StringVar(&replayCategory, "category", "", "media category (all, all-txt, photo, image, video, audio, document, text; default common media)")
	replayCmd.Flags().BoolVar(&replayPlain, "plain", false, "print progress as plain lines instead of the interactive view")
	_ = replayCmd.MarkFlagRequired("account")
}

func runReplay(cmd *cobra.Command, args []string) error {
	source := args[0]
	target := args[1]
	limit, err := strconv.Atoi(args[2])
	if err != nil || limit <= 0 {
		return fmt.Errorf("limit must be a positive number")
	}
	cat, err := media.ParseCategory(replayCategory)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	accCfg := cfg.Account(replayAccount)
	if accCfg == nil {
		return fmt.Errorf("account %q not found in config", replayAccount)
	}

	msgLog, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open message log: %w", err)
	}
	defer msgLog.Close()

	account := telegram.NewAccount(accCfg.Name, accCfg.Token, nil)
	if err := account.Connect(); err != nil {
		return err
	}

	limiter := ratelimit.NewLimiter(time.Duration(cfg.Forward.MinSpacingSeconds) * time.Second)
	replayer := replay.NewReplayer(msgLog, limiter, account,
		time.Duration(cfg.Forward.ReplayPauseSeconds)*time.Second)

	ctx := context.Background()

	if replayPlain {
		replayer.Notify = func(p replay.Progress) {
			fmt.Printf("forwarded %d/%d (last message ID %d)\n", p.Forwarded, limit, p.LastID)
		}
		progress, err := replayer.Replay(ctx, accCfg.Name, source, target, limit, replaySkip, cat)
		reportReplay(progress, replaySkip, err)
		return err
	}

	progress, err := tui.RunReplay(ctx, replayer, tui.ReplayRequest{
		Account:     accCfg.Name,
		Source:      source,
		Destination: target,
		Limit:       limit,
		Skip:        replaySkip,
		Category:    cat,
	})
	reportReplay(progress, replaySkip, err)
	return err
}

func reportReplay(p replay.Progress, skip int, err error) {
	if err != nil {
		fmt.Printf("Replay aborted after %d forward(s): %v\n", p.Forwarded, err)
		return
	}
	if p.Forwarded == 0 {
		fmt.Println("Nothing to forward.")
		return
	}
	fmt.Printf("Done: forwarded %d message(s), last source message ID %d.\n", p.Forwarded, p.LastID)
	fmt.Printf("Resume with --skip %d.\n", skip+p.Forwarded)
}
