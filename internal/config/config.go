package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	WorkDir        string `envconfig:"LOOTER_WORK_DIR" default:"."`
	DBPath         string `envconfig:"LOOTER_DB_PATH" default:"./data/looter.sqlite"`
	JournalEnabled bool   `envconfig:"LOOTER_JOURNAL" default:"true"`
	Port           int    `envconfig:"LOOTER_PORT" default:"8080"`
	LogLevel       string `envconfig:"LOOTER_LOG_LEVEL" default:"info"`
	LogDir         string `envconfig:"LOOTER_LOG_DIR" default:"./logs"`
	LogFormat      string `envconfig:"LOOTER_LOG_FORMAT" default:"json"`

	CommunityURL string `envconfig:"LOOTER_COMMUNITY_URL" default:"https://steamcommunity.com"`
	WebAPIURL    string `envconfig:"LOOTER_WEBAPI_URL" default:"https://api.steampowered.com"`
	LoginURL     string `envconfig:"LOOTER_LOGIN_URL" default:"https://login.steampowered.com"`

	MarketCurrency int `envconfig:"LOOTER_MARKET_CURRENCY" default:"1"`
	PriceRPM       int `envconfig:"LOOTER_PRICE_RPM" default:"20"`
}

// Load reads configuration from .env file (if present) then from environment variables.
// Environment variables override .env values.
func Load() (*Config, error) {
	envFiles := []string{".env"}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				slog.Warn("failed to load .env file", "file", f, "error", err)
			} else {
				slog.Info("loaded .env file", "file", f)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.LogFormat != LogFormatJSON && c.LogFormat != LogFormatConsole {
		return fmt.Errorf("%w: log format must be %q or %q, got %q", ErrInvalidConfig, LogFormatJSON, LogFormatConsole, c.LogFormat)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be 1-65535, got %d", ErrInvalidConfig, c.Port)
	}
	if c.MarketCurrency < 1 {
		return fmt.Errorf("%w: market currency must be positive, got %d", ErrInvalidConfig, c.MarketCurrency)
	}
	if c.PriceRPM < 1 {
		return fmt.Errorf("%w: price requests per minute must be positive, got %d", ErrInvalidConfig, c.PriceRPM)
	}
	for name, raw := range map[string]string{
		"community url": c.CommunityURL,
		"webapi url":    c.WebAPIURL,
		"login url":     c.LoginURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL, got %q", ErrInvalidConfig, name, raw)
		}
	}
	return nil
}
