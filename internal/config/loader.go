// Package config loads and saves the relaybot configuration file. Watch
// rules live inside it, so the rule store persists through this package.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the default config directory name.
	DefaultConfigDir = ".relaybot"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
)

// GetConfigDir returns the default config directory path (~/.relaybot).
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", DefaultConfigDir)
	}
	return filepath.Join(home, DefaultConfigDir)
}

// GetConfigPath returns the default config file path
// (~/.relaybot/config.yaml).
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), DefaultConfigFile)
}

// LoadConfig loads configuration from the specified path. If path is
// empty, it uses the default config path. If the config file doesn't
// exist, it returns the default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = GetConfigPath()
	}
	path = expandPath(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Start with defaults and unmarshal over them
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified path. If path is
// empty, it uses the default config path.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = GetConfigPath()
	}
	path = expandPath(path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Tokens live in here; owner-only permissions.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// Exists checks if a config file exists at the given path. If path is
// empty, checks the default config path.
func Exists(path string) bool {
	if path == "" {
		path = GetConfigPath()
	}
	path = expandPath(path)
	_, err := os.Stat(path)
	return err == nil
}

// EnsureConfigDir ensures the config directory (~/.relaybot) exists.
func EnsureConfigDir() error {
	dir := GetConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return nil
}
