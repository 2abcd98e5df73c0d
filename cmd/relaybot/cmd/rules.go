package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/media"
	"github.com/hkuds/relaybot/internal/rules"
)

var rulesAccount string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage watch rules",
	Long:  "List, add and remove the text and media watch rules of an account. Changes are persisted to the config file and picked up the next time the account starts.",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the account's watch rules",
	RunE:  runRulesList,
}

var rulesWatchTextCmd = &cobra.Command{
	Use:   "watch-text <source> <target> <keyword>",
	Short: "Add a text watch rule (keyword * matches every message)",
	Args:  cobra.ExactArgs(3),
	RunE:  runRulesWatchText,
}

var rulesUnwatchTextCmd = &cobra.Command{
	Use:   "unwatch-text <source> <keyword>",
	Short: "Remove a text watch rule",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesUnwatchText,
}

var rulesWatchMediaCmd = &cobra.Command{
	Use:   "watch-media <source> <target> [type]",
	Short: "Add a media watch rule (one per source; replaces any existing)",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runRulesWatchMedia,
}

var rulesUnwatchMediaCmd = &cobra.Command{
	Use:   "unwatch-media <source>",
	Short: "Remove a media watch rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesUnwatchMedia,
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesAccount, "account", "", "account name (required)")
	_ = rulesCmd.MarkPersistentFlagRequired("account")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesWatchTextCmd)
	rulesCmd.AddCommand(rulesUnwatchTextCmd)
	rulesCmd.AddCommand(rulesWatchMediaCmd)
	rulesCmd.AddCommand(rulesUnwatchMediaCmd)
}

// loadRuleStore seeds a store with the account's persisted rules so a
// single mutation round-trips through the config file.
func loadRuleStore() (*rules.Store, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	acc := cfg.Account(rulesAccount)
	if acc == nil {
		return nil, fmt.Errorf("account %q not found in config", rulesAccount)
	}

	store := rules.NewStore(config.NewRulePersister(configPath))
	text, mediaRules := acc.RuleSet()
	store.Load(rulesAccount, text, mediaRules)
	return store, nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	store, err := loadRuleStore()
	if err != nil {
		return err
	}

	text := store.TextRules(rulesAccount)
	mediaRules := store.MediaRules(rulesAccount)

	if len(text) == 0 && len(mediaRules) == 0 {
		fmt.Println("No rules configured.")
		return nil
	}

	if len(text) > 0 {
		fmt.Println("Text rules:")
		for _, r := range text {
			fmt.Printf("  %s -> %s  keyword %q\n", r.Source, r.Destination, r.Keyword)
		}
	}
	if len(mediaRules) > 0 {
		fmt.Println("Media rules:")
		for _, r := range mediaRules {
			fmt.Printf("  %s -> %s  type %s\n", r.Source, r.Destination, r.Category)
		}
	}
	return nil
}

func runRulesWatchText(cmd *cobra.Command, args []string) error {
	store, err := loadRuleStore()
	if err != nil {
		return err
	}
	rule := rules.TextRule{Source: args[0], Destination: args[1], Keyword: args[2]}
	if err := store.AddTextRule(rulesAccount, rule); err != nil {
		return err
	}
	fmt.Printf("Watching text: %s -> %s, keyword %q\n", rule.Source, rule.Destination, rule.Keyword)
	return nil
}

func runRulesUnwatchText(cmd *cobra.Command, args []string) error {
	store, err := loadRuleStore()
	if err != nil {
		return err
	}
	removed, err := store.RemoveTextRule(rulesAccount, args[0], args[1])
	if err != nil {
		return err
	}
	if !removed {
		fmt.Println("No matching text rule found.")
		return nil
	}
	fmt.Printf("Stopped watching text: %s, keyword %q\n", args[0], args[1])
	return nil
}

func runRulesWatchMedia(cmd *cobra.Command, args []string) error {
	store, err := loadRuleStore()
	if err != nil {
		return err
	}
	token := ""
	if len(args) == 3 {
		token = strings.ToLower(args[2])
	}
	cat, err := media.ParseCategory(token)
	if err != nil {
		return err
	}
	rule := rules.MediaRule{Source: args[0], Destination: args[1], Category: cat}
	if err := store.AddMediaRule(rulesAccount, rule); err != nil {
		return err
	}
	fmt.Printf("Watching media: %s -> %s, type %s\n", rule.Source, rule.Destination, cat)
	return nil
}

func runRulesUnwatchMedia(cmd *cobra.Command, args []string) error {
	store, err := loadRuleStore()
	if err != nil {
		return err
	}
	removed, err := store.RemoveMediaRule(rulesAccount, args[0])
	if err != nil {
		return err
	}
	if !removed {
		fmt.Println("No matching media rule found.")
		return nil
	}
	fmt.Printf("Stopped watching media: %s\n", args[0])
	return nil
}
