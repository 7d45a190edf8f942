// Package config holds the hubgate configuration model. Values are layered
// by viper: built-in defaults, an optional YAML file, then HUBGATE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Registry    RegistryConfig    `mapstructure:"registry" yaml:"registry"`
	Thresholds  ThresholdsConfig  `mapstructure:"thresholds" yaml:"thresholds"`
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	Store       StoreConfig       `mapstructure:"store" yaml:"store"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// RegistryConfig describes the registry endpoints the probe targets.
type RegistryConfig struct {
	AuthURL    string        `mapstructure:"auth_url" yaml:"auth_url"`
	Service    string        `mapstructure:"service" yaml:"service"`
	URL        string        `mapstructure:"url" yaml:"url"`
	Repository string        `mapstructure:"repository" yaml:"repository"`
	Tag        string        `mapstructure:"tag" yaml:"tag"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ThresholdsConfig holds the remaining-count cutoffs for exit selection.
// Critical is evaluated before Low; see probe.Classify.
type ThresholdsConfig struct {
	Critical int `mapstructure:"critical" yaml:"critical"`
	Low      int `mapstructure:"low" yaml:"low"`
}

// CredentialsConfig controls how per-account tokens are resolved.
type CredentialsConfig struct {
	// EnvPrefix is prepended to the username to form the token variable
	// name, e.g. HUBGATE_TOKEN_myaccount.
	EnvPrefix string `mapstructure:"env_prefix" yaml:"env_prefix"`
}

// StoreConfig contains probe history database settings (libsql).
type StoreConfig struct {
	Driver    string `mapstructure:"driver" yaml:"driver"`
	Path      string `mapstructure:"path" yaml:"path"`
	URL       string `mapstructure:"url" yaml:"url"`
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"`
}

// ServerConfig contains serve-mode HTTP settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// FromViper decodes the effective configuration out of a viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, errors.New("viper instance is required")
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the probe cannot run with.
func (c *Config) Validate() error {
	if c.Registry.Repository == "" {
		return errors.New("registry.repository is required")
	}
	if c.Thresholds.Critical < 0 || c.Thresholds.Low < 0 {
		return errors.New("thresholds must not be negative")
	}
	if c.Credentials.EnvPrefix == "" {
		return errors.New("credentials.env_prefix is required")
	}
	return nil
}

// Dump renders the effective configuration as YAML.
func (c *Config) Dump() ([]byte, error) {
	return yaml.Marshal(c)
}

// SetDefaults installs the built-in defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("registry.auth_url", "https://auth.docker.io/token")
	v.SetDefault("registry.service", "registry.docker.io")
	v.SetDefault("registry.url", "https://registry-1.docker.io")
	v.SetDefault("registry.repository", "ratelimitpreview/test")
	v.SetDefault("registry.tag", "latest")
	v.SetDefault("registry.timeout", "10s")

	v.SetDefault("thresholds.critical", 500)
	v.SetDefault("thresholds.low", 100)

	v.SetDefault("credentials.env_prefix", "HUBGATE_TOKEN")

	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
}

// DefaultStorePath picks the history database location under the XDG data
// directory, falling back to the working directory.
func DefaultStorePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "hubgate", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "hubgate-history.db"
	}
	return filepath.Join(home, ".local", "share", "hubgate", "history.db")
}
