package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hkuds/relaybot/internal/config"
)

// Status display styles.
var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				MarginBottom(1).
				Padding(0, 1)

	statusBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Width(64)

	statusSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginTop(1)

	statusLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Width(20)

	statusValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255"))

	statusEnabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	statusDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	statusWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))
)

// ShowStatus displays the current configuration status.
func ShowStatus(cfg *config.Config) error {
	var sb strings.Builder

	sb.WriteString(statusTitleStyle.Render("relaybot Configuration Status"))
	sb.WriteString("\n")

	if len(cfg.Accounts) == 0 {
		sb.WriteString("\n")
		sb.WriteString(statusWarningStyle.Render("No accounts configured. Run 'relaybot setup'."))
	}

	for i := range cfg.Accounts {
		sb.WriteString(renderAccountStatus(&cfg.Accounts[i]))
	}

	sb.WriteString(statusSectionStyle.Render("Timing"))
	sb.WriteString("\n")
	sb.WriteString(statusLine("Min spacing", fmt.Sprintf("%ds per source/destination pair", cfg.Forward.MinSpacingSeconds)))
	sb.WriteString(statusLine("Replay pause", fmt.Sprintf("%ds after each forward", cfg.Forward.ReplayPauseSeconds)))

	sb.WriteString(statusSectionStyle.Render("Storage"))
	sb.WriteString("\n")
	sb.WriteString(statusLine("Message log", cfg.DatabasePath()))

	fmt.Println(statusBoxStyle.Render(sb.String()))
	return nil
}

// ShowQuickStatus displays a one-line-per-account summary after setup.
func ShowQuickStatus(cfg *config.Config) {
	for i := range cfg.Accounts {
		acc := &cfg.Accounts[i]
		state := statusEnabledStyle.Render("enabled")
		if !acc.Enabled {
			state = statusDisabledStyle.Render("disabled")
		}
		fmt.Printf("  %s: %s, %d text rule(s), %d media rule(s)\n",
			acc.Name, state, len(acc.TextWatchRules), len(acc.MediaWatchRules))
	}
}

func renderAccountStatus(acc *config.AccountConfig) string {
	var sb strings.Builder

	sb.WriteString(statusSectionStyle.Render("Account: " + acc.Name))
	sb.WriteString("\n")

	if acc.Enabled {
		sb.WriteString(statusLine("State", statusEnabledStyle.Render("enabled")))
	} else {
		sb.WriteString(statusLine("State", statusDisabledStyle.Render("disabled")))
	}
	if acc.Token == "" {
		sb.WriteString(statusLine("Token", statusWarningStyle.Render("not configured")))
	} else {
		sb.WriteString(statusLine("Token", maskToken(acc.Token)))
	}
	sb.WriteString(statusLine("Admins", strconv.Itoa(len(acc.AdminIDs))))

	chats := "(all)"
	if len(acc.Monitoring.EnabledChats) > 0 {
		chats = strings.Join(acc.Monitoring.EnabledChats, ", ")
	}
	sb.WriteString(statusLine("Monitored chats", chats))
	sb.WriteString(statusLine("Private bots", strconv.FormatBool(acc.Monitoring.MonitorPrivateBots)))

	sb.WriteString(statusLine("Text rules", strconv.Itoa(len(acc.TextWatchRules))))
	for _, r := range acc.TextWatchRules {
		sb.WriteString(statusLine("", fmt.Sprintf("%s -> %s  %q", r.SourceID, r.TargetID, r.Keyword)))
	}
	sb.WriteString(statusLine("Media rules", strconv.Itoa(len(acc.MediaWatchRules))))
	for _, r := range acc.MediaWatchRules {
		t := r.Type
		if t == "" {
			t = "media"
		}
		sb.WriteString(statusLine("", fmt.Sprintf("%s -> %s  type %s", r.SourceID, r.TargetID, t)))
	}

	return sb.String()
}

func statusLine(label, value string) string {
	return statusLabelStyle.Render(label) + statusValueStyle.Render(value) + "\n"
}

// maskToken hides all but the tail of a bot token.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
