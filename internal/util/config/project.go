package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/DevSymphony/sysop/internal/util/env"
)

// ProjectConfig represents the .sysop/config.json structure
type ProjectConfig struct {
	CataloguePath   string `json:"catalogue_path,omitempty"`
	OSTag           string `json:"os_tag,omitempty"`     // "win", "linux"
	Lemmatizer      string `json:"lemmatizer,omitempty"` // "snowball", "lowercase"
	Matcher         string `json:"matcher,omitempty"`    // "fuzzy", "containment"
	UsersDB         string `json:"users_db,omitempty"`
	AuditDB         string `json:"audit_db,omitempty"`
	LogDir          string `json:"log_dir,omitempty"`
	MacroDir        string `json:"macro_dir,omitempty"`
	PlaybackDelayMS *int   `json:"playback_delay_ms,omitempty"`
	WatchCatalogue  *bool  `json:"watch_catalogue,omitempty"`
}

const (
	sysopDir          = ".sysop"
	projectConfigFile = "config.json"
	projectEnvFile    = ".env"
	secretKeyFile     = "secret.key"
)

// Dir returns the project state directory
func Dir() string {
	return sysopDir
}

// GetProjectConfigPath returns the path to .sysop/config.json
func GetProjectConfigPath() string {
	return filepath.Join(sysopDir, projectConfigFile)
}

// GetProjectEnvPath returns the path to .sysop/.env
func GetProjectEnvPath() string {
	return filepath.Join(sysopDir, projectEnvFile)
}

// GetSecretKeyPath returns the path of the installation age identity
func GetSecretKeyPath() string {
	return filepath.Join(sysopDir, secretKeyFile)
}

// DefaultOSTag maps the running platform to a catalogue OS tag
func DefaultOSTag() string {
	if runtime.GOOS == "windows" {
		return "win"
	}
	return "linux"
}

// Defaults returns the configuration used when no file exists
func Defaults() *ProjectConfig {
	watch, delay := true, 500
	return &ProjectConfig{
		CataloguePath:   filepath.Join(sysopDir, "commands.json"),
		OSTag:           DefaultOSTag(),
		Lemmatizer:      "snowball",
		Matcher:         "fuzzy",
		UsersDB:         filepath.Join(sysopDir, "users.db"),
		AuditDB:         filepath.Join(sysopDir, "audit.db"),
		LogDir:          filepath.Join(sysopDir, "logs"),
		MacroDir:        filepath.Join(sysopDir, "macros"),
		PlaybackDelayMS: &delay,
		WatchCatalogue:  &watch,
	}
}

// Watch reports whether the catalogue file should be hot reloaded
func (c *ProjectConfig) Watch() bool {
	return c.WatchCatalogue == nil || *c.WatchCatalogue
}

// PlaybackDelay returns the pause between macro entries
func (c *ProjectConfig) PlaybackDelay() time.Duration {
	if c.PlaybackDelayMS == nil {
		return 500 * time.Millisecond
	}
	return time.Duration(*c.PlaybackDelayMS) * time.Millisecond
}

// LoadProjectConfig loads .sysop/config.json over the defaults and applies
// SYSOP_* overrides from the environment or .sysop/.env.
func LoadProjectConfig() (*ProjectConfig, error) {
	cfg := Defaults()

	data, err := os.ReadFile(GetProjectConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *ProjectConfig) error {
	strs := map[string]*string{
		"catalogue":  &cfg.CataloguePath,
		"os_tag":     &cfg.OSTag,
		"lemmatizer": &cfg.Lemmatizer,
		"matcher":    &cfg.Matcher,
		"users_db":   &cfg.UsersDB,
		"audit_db":   &cfg.AuditDB,
		"log_dir":    &cfg.LogDir,
		"macro_dir":  &cfg.MacroDir,
	}
	for name, dst := range strs {
		if v := env.LookupSetting(name); v != "" {
			*dst = v
		}
	}

	if v := env.LookupSetting("playback_delay_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return fmt.Errorf("invalid %sPLAYBACK_DELAY_MS %q", env.Prefix, v)
		}
		cfg.PlaybackDelayMS = &ms
	}
	if v := env.LookupSetting("watch_catalogue"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sWATCH_CATALOGUE %q", env.Prefix, v)
		}
		cfg.WatchCatalogue = &b
	}
	return nil
}

// SaveProjectConfig saves the project configuration to .sysop/config.json
func SaveProjectConfig(cfg *ProjectConfig) error {
	if err := os.MkdirAll(sysopDir, 0755); err != nil {
		return fmt.Errorf("failed to create .sysop directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Set updates one field by its JSON name
func (c *ProjectConfig) Set(key, value string) error {
	switch key {
	case "catalogue_path":
		c.CataloguePath = value
	case "os_tag":
		c.OSTag = value
	case "lemmatizer":
		c.Lemmatizer = value
	case "matcher":
		c.Matcher = value
	case "users_db":
		c.UsersDB = value
	case "audit_db":
		c.AuditDB = value
	case "log_dir":
		c.LogDir = value
	case "macro_dir":
		c.MacroDir = value
	case "playback_delay_ms":
		ms, err := strconv.Atoi(value)
		if err != nil || ms < 0 {
			return fmt.Errorf("playback_delay_ms must be a non-negative integer")
		}
		c.PlaybackDelayMS = &ms
	case "watch_catalogue":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("watch_catalogue must be true or false")
		}
		c.WatchCatalogue = &b
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// ProjectConfigExists checks if .sysop/config.json exists
func ProjectConfigExists() bool {
	_, err := os.Stat(GetProjectConfigPath())
	return err == nil
}
