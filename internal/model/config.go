package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the connection settings for the task backend.
type ServerConfig struct {
	// BaseURL is the root URL of the REST API (without the /api suffix).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds each HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// SyncConfig controls background reloading.
type SyncConfig struct {
	// PollIntervalSec is how often (in seconds) the full tree is reloaded.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// RemindersConfig controls the daily deadline-reminder check.
type RemindersConfig struct {
	Hour   int `mapstructure:"hour" yaml:"hour"`
	Minute int `mapstructure:"minute" yaml:"minute"`

	// Timezone is an IANA zone name or "Local".
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// CacheConfig locates the local snapshot database.
type CacheConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`

	// File receives log output while the terminal UI owns the screen.
	File string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Sync      SyncConfig      `mapstructure:"sync" yaml:"sync"`
	Reminders RemindersConfig `mapstructure:"reminders" yaml:"reminders"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// envPrefix namespaces environment overrides, e.g. TASKBOARD_SERVER_BASE_URL.
const envPrefix = "TASKBOARD"

// ConfigDir returns ~/.config/taskboard, or the working directory if the
// home directory cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskboard")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:    "http://localhost:8080",
			TimeoutSec: 30,
		},
		Sync: SyncConfig{
			PollIntervalSec: 60,
		},
		Reminders: RemindersConfig{
			Hour:     9,
			Minute:   0,
			Timezone: "Local",
		},
		Cache: CacheConfig{
			Path: filepath.Join(ConfigDir(), "cache.db"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(ConfigDir(), "taskboard.log"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("server.base_url", d.Server.BaseURL)
	v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	v.SetDefault("sync.poll_interval_sec", d.Sync.PollIntervalSec)
	v.SetDefault("reminders.hour", d.Reminders.Hour)
	v.SetDefault("reminders.minute", d.Reminders.Minute)
	v.SetDefault("reminders.timezone", d.Reminders.Timezone)
	v.SetDefault("cache.path", d.Cache.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with TASKBOARD_ override file values. If
// the file does not exist, defaults (plus environment overrides) are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		_, missing := err.(*os.PathError)
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			missing = true
		}
		if !missing {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks ranges that viper cannot express.
func (c *AppConfig) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url must not be empty")
	}
	if c.Reminders.Hour < 0 || c.Reminders.Hour > 23 {
		return fmt.Errorf("reminders.hour must be 0-23, got %d", c.Reminders.Hour)
	}
	if c.Reminders.Minute < 0 || c.Reminders.Minute > 59 {
		return fmt.Errorf("reminders.minute must be 0-59, got %d", c.Reminders.Minute)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the reminder timezone. "Local" and "" map to
// time.Local.
func (c *AppConfig) Location() (*time.Location, error) {
	switch c.Reminders.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Reminders.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Reminders.Timezone, err)
	}
	return loc, nil
}

// Timeout returns the per-request HTTP timeout.
func (c *AppConfig) Timeout() time.Duration {
	if c.Server.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Server.TimeoutSec) * time.Second
}

// PollInterval returns the background reload interval.
func (c *AppConfig) PollInterval() time.Duration {
	if c.Sync.PollIntervalSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Sync.PollIntervalSec) * time.Second
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("sync", cfg.Sync)
	v.Set("reminders", cfg.Reminders)
	v.Set("cache", cfg.Cache)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
