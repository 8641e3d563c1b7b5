package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds per-user preferences stored in ~/.config/sysop/config.json
type Config struct {
	DefaultUser string `json:"default_user,omitempty"`
	// SessionTTL is how long `sysop login` stays valid, e.g. "30m"
	SessionTTL string `json:"session_ttl,omitempty"`
}

const defaultSessionTTL = 30 * time.Minute

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("USERPROFILE")
	}
	return os.Getenv("HOME")
}

func configDir() string {
	return filepath.Join(homeDir(), ".config", "sysop")
}

// ensureConfigDir creates the config directory if it doesn't exist
func ensureConfigDir() error {
	return os.MkdirAll(configDir(), 0700)
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	return filepath.Join(configDir(), "config.json")
}

// GetSessionPath returns the sealed session file path
func GetSessionPath() string {
	return filepath.Join(configDir(), "session.age")
}

// LoadConfig loads the user configuration; a missing file yields defaults
func LoadConfig() (*Config, error) {
	data, err := os.ReadFile(GetConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	if err := ensureConfigDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(GetConfigPath(), data, 0600)
}

// GetSessionTTL returns the login lifetime (defaults to 30 minutes)
func (c *Config) GetSessionTTL() time.Duration {
	if c.SessionTTL == "" {
		return defaultSessionTTL
	}
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return defaultSessionTTL
	}
	return d
}

// LoadSession returns the sealed session blob
func LoadSession() ([]byte, error) {
	data, err := os.ReadFile(GetSessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not logged in. Run 'sysop login' first")
		}
		return nil, err
	}
	return data, nil
}

// SaveSession stores the sealed session blob
func SaveSession(data []byte) error {
	if err := ensureConfigDir(); err != nil {
		return err
	}
	return os.WriteFile(GetSessionPath(), data, 0600)
}

// DeleteSession removes the session file (logout)
func DeleteSession() error {
	err := os.Remove(GetSessionPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// HasSession checks if a session file exists
func HasSession() bool {
	_, err := os.Stat(GetSessionPath())
	return err == nil
}
