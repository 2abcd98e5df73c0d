// Package tui provides interactive terminal user interface components for
// relaybot.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/hkuds/relaybot/internal/config"
)

// Styles for the setup wizard.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)

// SetupState holds the state of the setup wizard.
type SetupState struct {
	Name         string
	Token        string
	AdminIDs     string
	EnabledChats string
	MonitorBots  bool
	BotUsernames string
	Confirmed    bool
}

// RunSetup runs the interactive setup wizard, adds or replaces the
// configured account in the config file at path (empty means default)
// and returns the saved config.
func RunSetup(path string) (*config.Config, error) {
	state := &SetupState{Name: "main"}

	if err := runWelcomeStep(state); err != nil {
		return nil, fmt.Errorf("welcome step failed: %w", err)
	}
	if err := runAccountStep(state); err != nil {
		return nil, fmt.Errorf("account step failed: %w", err)
	}
	if err := runMonitoringStep(state); err != nil {
		return nil, fmt.Errorf("monitoring step failed: %w", err)
	}
	if err := runConfirmationStep(state); err != nil {
		return nil, fmt.Errorf("confirmation step failed: %w", err)
	}
	if !state.Confirmed {
		return nil, fmt.Errorf("setup cancelled by user")
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing config: %w", err)
	}
	applyState(cfg, state)

	if err := config.SaveConfig(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println(successStyle.Render("\n✓ Configuration saved successfully!"))
	fmt.Println(subtitleStyle.Render("Config file: " + config.GetConfigPath()))

	return cfg, nil
}

// runWelcomeStep displays the welcome banner.
func runWelcomeStep(state *SetupState) error {
	banner := `
                __            __          __
   _______  ___/ /___ ___  __/ /_  ____  / /_
  / ___/ _ \/ / / __ '/ / / / __ \/ __ \/ __/
 / /  /  __/ / / /_/ / /_/ / /_/ / /_/ / /_
/_/   \___/_/_/\__,_/\__, /_.___/\____/\__/
                    /____/
   Selective Telegram message forwarding
`
	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render(banner))

	welcome := boxStyle.Render(
		titleStyle.Render("Welcome to relaybot Setup") + "\n\n" +
			"This wizard configures one monitored account.\n" +
			"You can always edit the configuration later at:\n" +
			subtitleStyle.Render(config.GetConfigPath()),
	)
	fmt.Println(welcome)
	fmt.Println()
	return nil
}

// runAccountStep asks for the account identity and credentials.
func runAccountStep(state *SetupState) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account name").
				Description("Identifies this account in commands and logs").
				Placeholder("main").
				Value(&state.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("account name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Bot token").
				Description("Your token will be stored locally and never shared").
				Placeholder("123456:ABC-DEF...").
				EchoMode(huh.EchoModePassword).
				Value(&state.Token).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("bot token is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Admin user IDs").
				Description("Comma-separated sender IDs allowed to run operator commands").
				Placeholder("123456789").
				Value(&state.AdminIDs),
		),
	)
	return form.Run()
}

// runMonitoringStep scopes which chats the account processes.
func runMonitoringStep(state *SetupState) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Monitored chat IDs").
				Description("Comma-separated group/channel IDs; leave empty to monitor every chat").
				Placeholder("-1001234567890, -1009876543210").
				Value(&state.EnabledChats),
			huh.NewConfirm().
				Title("Monitor private bot messages?").
				Description("Process private messages sent by bots").
				Value(&state.MonitorBots),
			huh.NewInput().
				Title("Bot usernames").
				Description("Comma-separated bot usernames to monitor; leave empty for all bots").
				Placeholder("SomeFeedBot").
				Value(&state.BotUsernames),
		),
	)
	return form.Run()
}

// runConfirmationStep shows a summary and asks for confirmation.
func runConfirmationStep(state *SetupState) error {
	summary := fmt.Sprintf(
		"Account:         %s\nAdmins:          %s\nMonitored chats: %s\nPrivate bots:    %v\n",
		state.Name,
		emptyAs(state.AdminIDs, "(none)"),
		emptyAs(state.EnabledChats, "(all)"),
		state.MonitorBots,
	)
	fmt.Println(boxStyle.Render(titleStyle.Render("Summary") + "\n" + summary))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Value(&state.Confirmed),
		),
	)
	return form.Run()
}

// applyState merges the wizard result into the config, replacing an
// existing account with the same name.
func applyState(cfg *config.Config, state *SetupState) {
	acc := config.AccountConfig{
		Name:    strings.TrimSpace(state.Name),
		Enabled: true,
		Token:   strings.TrimSpace(state.Token),
		Monitoring: config.MonitoringConfig{
			EnabledChats:       splitList(state.EnabledChats),
			MonitorPrivateBots: state.MonitorBots,
			BotUsernames:       splitList(state.BotUsernames),
		},
	}
	for _, part := range splitList(state.AdminIDs) {
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			acc.AdminIDs = append(acc.AdminIDs, id)
		}
	}

	if existing := cfg.Account(acc.Name); existing != nil {
		// Keep the rules the account already accumulated.
		acc.TextWatchRules = existing.TextWatchRules
		acc.MediaWatchRules = existing.MediaWatchRules
		*existing = acc
		return
	}
	cfg.Accounts = append(cfg.Accounts, acc)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func emptyAs(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
