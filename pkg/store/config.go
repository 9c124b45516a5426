package store

import (
	"path/filepath"
	"strings"

	"github.com/agentstation/epubalt/pkg/constants"
)

// Provider names stored in the user configuration.
const (
	ProviderAPI   = "API"
	ProviderLocal = "Local"
)

// UserConfig is the persisted per-user configuration.
type UserConfig struct {
	Email    string `json:"email,omitempty"`
	Provider string `json:"AIChoice,omitempty"`
}

// IsLocal reports whether the local provider is selected.
func (c UserConfig) IsLocal() bool {
	return strings.EqualFold(c.Provider, ProviderLocal)
}

// ConfigPath returns the user configuration file.
func (s *Store) ConfigPath() string {
	return filepath.Join(s.dir, constants.UserConfigFile)
}

// LoadUserConfig reads the user configuration and reports whether it exists.
func (s *Store) LoadUserConfig() (UserConfig, bool, error) {
	var cfg UserConfig
	found, err := readJSON(s.ConfigPath(), &cfg)
	if err != nil {
		return UserConfig{}, false, err
	}
	if found && cfg.Provider == "" {
		cfg.Provider = ProviderAPI
	}
	return cfg, found, nil
}

// SaveUserConfig writes the user configuration.
func (s *Store) SaveUserConfig(cfg UserConfig) error {
	return writeJSON(s.ConfigPath(), cfg)
}
