package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Debug    bool           `mapstructure:"debug"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig selects the storage backend. Driver is "postgres" or
// "sqlite"; URL is a postgres DSN or a sqlite file path respectively.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

type TelegramConfig struct {
	APIID       int    `mapstructure:"api_id"`
	APIHash     string `mapstructure:"api_hash"`
	SessionFile string `mapstructure:"session_file"`
}

type ScraperConfig struct {
	// MessageLimit caps how many recent messages are fetched per channel
	// per run when the scrape request does not specify a limit.
	MessageLimit int `mapstructure:"message_limit"`
}

// NATSConfig enables run-summary publishing when URL is set.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// Load reads configuration from an optional yaml file and the environment.
// Environment variables use the TGMETRICS_ prefix (TGMETRICS_DATABASE_URL,
// TGMETRICS_TELEGRAM_API_ID, ...). DATABASE_URL is honored as-is for
// platforms that inject it.
func Load(configPath string) (*Config, error) {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.url", "")
	viper.SetDefault("telegram.session_file", "telegram_session.json")
	viper.SetDefault("scraper.message_limit", 200)
	viper.SetDefault("nats.url", "")
	viper.SetDefault("nats.subject", "scrape.completed")
	viper.SetDefault("debug", false)

	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	viper.SetEnvPrefix("TGMETRICS")
	viper.AutomaticEnv()
	bindEnvs()

	if configPath != "" {
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Railway-style DATABASE_URL wins over everything else. Read directly:
	// through viper the key would resolve to TGMETRICS_DATABASE_URL first.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func bindEnvs() {
	viper.BindEnv("database.url", "TGMETRICS_DATABASE_URL")
	viper.BindEnv("database.driver", "TGMETRICS_DATABASE_DRIVER")
	viper.BindEnv("telegram.api_id", "TGMETRICS_TELEGRAM_API_ID")
	viper.BindEnv("telegram.api_hash", "TGMETRICS_TELEGRAM_API_HASH")
	viper.BindEnv("telegram.session_file", "TGMETRICS_TELEGRAM_SESSION_FILE")
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("nats.url", "TGMETRICS_NATS_URL")
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// ValidateTelegram checks the credentials needed by commands that talk to
// Telegram. The API server starts without them; scraping and the auth flow
// fail fast with this error instead.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.APIID == 0 {
		return fmt.Errorf("telegram API ID is required")
	}
	if c.Telegram.APIHash == "" {
		return fmt.Errorf("telegram API hash is required")
	}
	return nil
}

func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}
