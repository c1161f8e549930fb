package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/onecontext/api"
)

// EnvPrefix prefixes every environment variable read by Load, e.g.
// ONECONTEXT_API_KEY.
const EnvPrefix = "ONECONTEXT"

type Config struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	LogLevel        string        `mapstructure:"log_level"`
}

// Load reads configuration from configPath (optional, yaml) and from
// ONECONTEXT_* environment variables, which take precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("base_url", api.DefaultBaseURL)
	v.SetDefault("api_key", "")
	v.SetDefault("timeout", api.DefaultTimeout)
	v.SetDefault("download_timeout", api.DefaultDownloadTimeout)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url must not be empty")
	}
	if c.Timeout < 0 || c.DownloadTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel into a slog.Level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// ClientOptions converts the configuration into api client options.
func (c *Config) ClientOptions(logger *slog.Logger) []api.Option {
	return []api.Option{
		api.WithBaseURL(c.BaseURL),
		api.WithAPIKey(c.APIKey),
		api.WithTimeout(c.Timeout),
		api.WithDownloadTimeout(c.DownloadTimeout),
		api.WithLogger(logger),
	}
}
