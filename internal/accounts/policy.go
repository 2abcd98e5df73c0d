package accounts

import (
	"github.com/hkuds/relaybot/internal/config"
	"github.com/hkuds/relaybot/internal/platform"
)

// Policy implements platform.AccountPolicy from an account's monitoring
// configuration. It decides which chats the account processes at all,
// before any rule is consulted.
type Policy struct {
	enabledChats map[string]bool
	monitorBots  bool
	botUsernames map[string]bool
	adminIDs     map[int64]bool
}

// NewPolicy builds a Policy from config.
func NewPolicy(acc *config.AccountConfig) *Policy {
	p := &Policy{
		enabledChats: make(map[string]bool, len(acc.Monitoring.EnabledChats)),
		monitorBots:  acc.Monitoring.MonitorPrivateBots,
		botUsernames: make(map[string]bool, len(acc.Monitoring.BotUsernames)),
		adminIDs:     make(map[int64]bool, len(acc.AdminIDs)),
	}
	for _, id := range acc.Monitoring.EnabledChats {
		p.enabledChats[id] = true
	}
	for _, name := range acc.Monitoring.BotUsernames {
		p.botUsernames[name] = true
	}
	for _, id := range acc.AdminIDs {
		p.adminIDs[id] = true
	}
	return p
}

// IsMonitored reports whether a message should be routed. Groups and
// channels pass when the enabled-chats list is empty or contains the
// source. Private messages pass only when private-bot monitoring is on,
// the sender is a bot, and (if a username list is configured) the bot is
// listed.
func (p *Policy) IsMonitored(msg platform.Message) bool {
	switch msg.ChatType {
	case platform.ChatGroup, platform.ChatChannel:
		return len(p.enabledChats) == 0 || p.enabledChats[msg.Source]
	case platform.ChatPrivate:
		if !p.monitorBots || !msg.SenderBot {
			return false
		}
		return len(p.botUsernames) == 0 || p.botUsernames[msg.SenderUsername]
	}
	return false
}

// IsAdmin reports whether the sender may issue operator commands.
func (p *Policy) IsAdmin(senderID int64) bool {
	return p.adminIDs[senderID]
}
