// Package config provides configuration management for Keystone
// applications using Viper for loading from files, environment variables,
// and command-line flags.
//
// Values come from an optional .keystone.yml, KEYSTONE_ prefixed environment
// variables, and flags bound by the serve command, in increasing priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/keystone/internal/errors"
	"github.com/conneroisu/keystone/internal/logging"
)

const (
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 5000
	DefaultStaticExpires = 24 * time.Hour
	DefaultDebounce      = 300 * time.Millisecond
)

type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	App         AppConfig         `yaml:"app" mapstructure:"app"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// AppConfig locates the application directory served by keystone.
type AppConfig struct {
	Dir           string        `yaml:"dir" mapstructure:"dir"`
	StaticExpires time.Duration `yaml:"static_expires" mapstructure:"static_expires"`
}

// CacheConfig bounds the template cache. Zero means unbounded.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
}

type DevelopmentConfig struct {
	Debug     bool          `yaml:"debug" mapstructure:"debug"`
	HotReload bool          `yaml:"hot_reload" mapstructure:"hot_reload"`
	Debounce  time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads configuration from v, applies defaults and validates the
// result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if !v.IsSet("server.port") {
		config.Server.Port = DefaultPort
	}
	if !v.IsSet("app.static_expires") {
		config.App.StaticExpires = DefaultStaticExpires
	}
	if config.Development.Debounce == 0 {
		config.Development.Debounce = DefaultDebounce
	}
	// debug mode reloads on change unless told otherwise
	if config.Development.Debug && !v.IsSet("development.hot_reload") {
		config.Development.HotReload = true
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
		if config.Development.Debug {
			config.Log.Level = "debug"
		}
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}

	if config.App.Dir == "" {
		config.App.Dir = "."
	}
	dir, err := filepath.Abs(config.App.Dir)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: app dir: %w", err)
	}
	config.App.Dir = dir

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoggerConfig derives the logger settings from the log section.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = c.Log.Format
	cfg.AddSource = c.Development.Debug

	return cfg
}

func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateAppConfig(&config.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}

	if config.Cache.MaxEntries < 0 {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("cache max_entries %d must not be negative", config.Cache.MaxEntries))
	}

	if config.Development.Debounce < 0 {
		return errors.NewConfigError(errors.CodeInvalidConfig, "development debounce must not be negative")
	}

	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		return errors.NewConfigError(errors.CodeInvalidConfig, err.Error())
	}

	switch config.Log.Format {
	case "text", "json":
	default:
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("log format %q must be text or json", config.Log.Format))
	}

	return nil
}

func validateServerConfig(config *ServerConfig) error {
	// 0 lets the system pick a port.
	if config.Port < 0 || config.Port > 65535 {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("port %d is not in valid range 0-65535", config.Port))
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", "/"}
	for _, char := range dangerousChars {
		if strings.Contains(config.Host, char) {
			return errors.NewConfigError(errors.CodeInvalidConfig,
				"host contains dangerous character: "+char)
		}
	}

	return nil
}

func validateAppConfig(config *AppConfig) error {
	info, err := os.Stat(config.Dir)
	if err != nil {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("app directory %s: %v", config.Dir, err))
	}
	if !info.IsDir() {
		return errors.NewConfigError(errors.CodeInvalidConfig,
			fmt.Sprintf("app directory %s is not a directory", config.Dir))
	}

	if config.StaticExpires < 0 {
		return errors.NewConfigError(errors.CodeInvalidConfig, "static_expires must not be negative")
	}

	return nil
}
