package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
)

// CurrentVersion is the schema version written into new configs and documents.
const CurrentVersion = "3.2.1"

// DefaultConfigFile is the config path used when none is given.
const DefaultConfigFile = "pingtriage.yaml"

// Config is the process configuration loaded from YAML. The embedded Settings
// seed the state document when it is first created.
type Config struct {
	Version  string `yaml:"version"`
	Settings `yaml:",inline"`

	State   StateConfig   `yaml:"state"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StateConfig controls where and how the state document is stored.
type StateConfig struct {
	BaseDir         string `yaml:"base_dir"`          // Directory holding .pings-triage/
	MaxLookbackDays int    `yaml:"max_lookback_days"` // Fetch window when a platform was never fetched
	Lock            bool   `yaml:"lock"`              // Take an advisory lock for the store lifetime
	Journal         string `yaml:"journal"`           // SQLite journal path; empty disables it
	SessionDir      string `yaml:"session_dir"`       // Parent of per-run session directories, relative to base_dir
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig represents the prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion, Settings: DefaultSettings()}
	applyDefaults(cfg)
	return cfg
}

// Load reads a configuration file. Env files next to the config are loaded
// first so ${VAR} references in the YAML can be expanded.
func Load(configPath string) (*Config, error) {
	loaded, err := loadEnvFiles(filepath.Dir(configPath))
	if err != nil {
		slog.Warn("Failed to load env file", "error", err)
	}
	for _, f := range loaded {
		slog.Debug("Loaded environment file", "path", f)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	return Parse(data)
}

// Parse decodes YAML content, expanding environment references, then applies
// defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config").Build()
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configPath when it exists and falls back to Default.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return Default(), nil
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(configPath)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.NewError(ferrors.CategoryAlreadyExists,
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).
			WithContext("path", configPath).
			Build()
	}

	example := Default()
	example.Linear.TeamID = "${LINEAR_TEAM_ID}"
	example.Linear.UserID = "${LINEAR_USER_ID}"
	example.User = UserSettings{
		Name:    "Your Name",
		Email:   "you@example.com",
		Role:    "Engineer",
		Context: "Owns the payments integration; cares about release blockers.",
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal example config").Build()
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create config directory").
				WithContext("path", dir).
				Build()
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
