package accounts

import (
	"testing"

	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/platform"
)

func TestIsMonitoredGroups(t *testing.T) {
	scoped := NewPolicy(&config.AccountConfig{
		Monitoring: config.MonitoringConfig{EnabledChats: []string{"-100123"}},
	})
	open := NewPolicy(&config.AccountConfig{})

	tests := []struct {
		name   string
		policy *Policy
		msg    platform.Message
		want   bool
	}{
		{"listed group", scoped, platform.Message{Source: "-100123", ChatType: platform.ChatGroup}, true},
		{"unlisted group", scoped, platform.Message{Source: "-100999", ChatType: platform.ChatGroup}, false},
		{"listed channel", scoped, platform.Message{Source: "-100123", ChatType: platform.ChatChannel}, true},
		{"empty list allows any group", open, platform.Message{Source: "-100999", ChatType: platform.ChatGroup}, true},
		{"empty list allows any channel", open, platform.Message{Source: "-100999", ChatType: platform.ChatChannel}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.IsMonitored(tt.msg); got != tt.want {
				t.Errorf("IsMonitored() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsMonitoredPrivateBots(t *testing.T) {
	off := NewPolicy(&config.AccountConfig{})
	anyBot := NewPolicy(&config.AccountConfig{
		Monitoring: config.MonitoringConfig{MonitorPrivateBots: true},
	})
	listed := NewPolicy(&config.AccountConfig{
		Monitoring: config.MonitoringConfig{
			MonitorPrivateBots: true,
			BotUsernames:       []string{"dealbot"},
		},
	})

	bot := platform.Message{Source: "42", ChatType: platform.ChatPrivate, SenderBot: true, SenderUsername: "dealbot"}
	otherBot := platform.Message{Source: "43", ChatType: platform.ChatPrivate, SenderBot: true, SenderUsername: "spambot"}
	human := platform.Message{Source: "44", ChatType: platform.ChatPrivate, SenderUsername: "alice"}

	if off.IsMonitored(bot) {
		t.Error("bot monitored while private-bot monitoring is off")
	}
	if !anyBot.IsMonitored(bot) || !anyBot.IsMonitored(otherBot) {
		t.Error("empty username list should allow any bot")
	}
	if anyBot.IsMonitored(human) {
		t.Error("human private message monitored, want bot-only")
	}
	if !listed.IsMonitored(bot) {
		t.Error("listed bot not monitored")
	}
	if listed.IsMonitored(otherBot) {
		t.Error("unlisted bot monitored")
	}
}

func TestIsAdmin(t *testing.T) {
	p := NewPolicy(&config.AccountConfig{AdminIDs: []int64{777}})

	if !p.IsAdmin(777) {
		t.Error("IsAdmin(777) = false, want true")
	}
	if p.IsAdmin(42) {
		t.Error("IsAdmin(42) = true, want false")
	}
}
