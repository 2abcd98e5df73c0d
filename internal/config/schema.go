package config

import (
	"os"
	"path/filepath"
)

// Config is the root configuration for relaybot. It round-trips through
// the YAML config file, which is also where watch rules are persisted.
type Config struct {
	Accounts []AccountConfig `yaml:"accounts"`
	Forward  ForwardConfig   `yaml:"forward"`
	Storage  StorageConfig   `yaml:"storage"`
}

// AccountConfig describes one monitored Telegram account.
type AccountConfig struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	// AdminIDs lists sender IDs allowed to issue operator commands in
	// private chats.
	AdminIDs []int64 `yaml:"admin_ids"`

	Monitoring MonitoringConfig `yaml:"monitoring"`

	TextWatchRules  []TextWatchRule  `yaml:"text_watch_rules"`
	MediaWatchRules []MediaWatchRule `yaml:"media_watch_rules"`
}

// MonitoringConfig scopes which chats an account processes.
type MonitoringConfig struct {
	// EnabledChats limits group/channel processing to the listed chat IDs.
	// Empty means every group and channel the account sees.
	EnabledChats []string `yaml:"enabled_chats"`
	// MonitorPrivateBots enables processing of private messages from bots.
	MonitorPrivateBots bool `yaml:"monitor_private_bots"`
	// BotUsernames limits private bot monitoring to the listed usernames.
	// Empty means every bot.
	BotUsernames []string `yaml:"bot_usernames"`
}

// TextWatchRule is the persisted form of a keyword forwarding rule.
type TextWatchRule struct {
	SourceID string `yaml:"source_id"`
	Keyword  string `yaml:"keyword"`
	TargetID string `yaml:"target_id"`
}

// MediaWatchRule is the persisted form of a media forwarding rule. Type is
// the category token; empty means the default common-media category.
type MediaWatchRule struct {
	SourceID string `yaml:"source_id"`
	TargetID string `yaml:"target_id"`
	Type     string `yaml:"type,omitempty"`
}

// ForwardConfig tunes dispatch timing. The rate-limit spacing and the
// replay pause are deliberately two independent knobs.
type ForwardConfig struct {
	// MinSpacingSeconds is the minimum gap between forwards to the same
	// (source, destination) pair.
	MinSpacingSeconds int `yaml:"min_spacing_seconds"`
	// ReplayPauseSeconds is the courtesy pause after every batch-replay
	// dispatch, applied regardless of the rate-limit state.
	ReplayPauseSeconds int `yaml:"replay_pause_seconds"`
}

// StorageConfig locates the message log database.
type StorageConfig struct {
	Database string `yaml:"database"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Forward: ForwardConfig{
			MinSpacingSeconds:  1,
			ReplayPauseSeconds: 2,
		},
	}
}

// Account returns the account config with the given name, or nil.
func (c *Config) Account(name string) *AccountConfig {
	for i := range c.Accounts {
		if c.Accounts[i].Name == name {
			return &c.Accounts[i]
		}
	}
	return nil
}

// EnabledAccounts returns the accounts that should be started.
func (c *Config) EnabledAccounts() []*AccountConfig {
	var out []*AccountConfig
	for i := range c.Accounts {
		if c.Accounts[i].Enabled {
			out = append(out, &c.Accounts[i])
		}
	}
	return out
}

// DatabasePath returns the message log path with ~ expanded, defaulting
// to a file next to the config.
func (c *Config) DatabasePath() string {
	if c.Storage.Database == "" {
		return filepath.Join(GetConfigDir(), "messages.db")
	}
	return expandPath(c.Storage.Database)
}

// expandPath expands ~ to the user's home directory and resolves the path.
func expandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand ~ to home directory
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if len(path) == 1 {
			return home
		}
		if path[1] == '/' || path[1] == filepath.Separator {
			path = filepath.Join(home, path[2:])
		} else {
			path = filepath.Join(home, path[1:])
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
