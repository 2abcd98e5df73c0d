package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hkuds/relaybot/internal/accounts"
	"github.com/hkuds/relaybot/internal/bus"
	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/ratelimit"
	"github.com/hkuds/relaybot/internal/rules"
	"github.com/hkuds/relaybot/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start all enabled accounts",
	Long:  "Start the watcher: connect every enabled account, process live messages and forward matches according to the configured rules.",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if len(cfg.EnabledAccounts()) == 0 {
		fmt.Println("No accounts configured.")
		fmt.Println("Run 'relaybot setup' to configure an account.")
		return nil
	}

	msgLog, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open message log: %w", err)
	}
	defer msgLog.Close()

	// Shared process-wide state: one rule store, one limiter, passed by
	// reference into every account's line.
	ruleStore := rules.NewStore(config.NewRulePersister(configPath))
	for _, acc := range cfg.EnabledAccounts() {
		text, mediaRules := acc.RuleSet()
		ruleStore.Load(acc.Name, text, mediaRules)
	}
	limiter := ratelimit.NewLimiter(time.Duration(cfg.Forward.MinSpacingSeconds) * time.Second)

	evtBus := bus.NewEventBus(100)
	defer evtBus.Close()

	manager := accounts.NewManager(cfg, evtBus, ruleStore, limiter, msgLog)
	if err := manager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize accounts: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.StartAll(ctx); err != nil {
		return err
	}

	fmt.Printf("Watching with %d account(s). Press Ctrl+C to stop.\n", manager.AccountCount())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	cancel()

	if err := manager.StopAll(); err != nil {
		return err
	}
	fmt.Println("Stopped.")
	return nil
}
