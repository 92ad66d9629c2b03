package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	FeedURL        string        `env:"FEED_URL,required"`
	MaxLogs        int           `env:"MAX_LOGS" envDefault:"1000"`
	AutoStart      bool          `env:"AUTO_START" envDefault:"true"`
	ReconnectDelay time.Duration `env:"RECONNECT_DELAY" envDefault:"3s"`
	SessionScope   string        `env:"SESSION_SCOPE"`
	APIAddr        string        `env:"API_ADDR" envDefault:":8090"`
	MetricsAddr    string        `env:"METRICS_ADDR" envDefault:":9091"`
	ExportDir      string        `env:"EXPORT_DIR" envDefault:"."`
	ExportPrefix   string        `env:"EXPORT_PREFIX" envDefault:"ai-logs"`
	RedactFields   []string      `env:"EXPORT_REDACT_FIELDS" envSeparator:","`
	RedisURL       string        `env:"REDIS_URL"`
	RedisKeyPrefix string        `env:"REDIS_KEY_PREFIX" envDefault:"logmon"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the monitor cannot run with.
func (c *Config) Validate() error {
	if c.MaxLogs <= 0 {
		return fmt.Errorf("MAX_LOGS must be positive, got %d", c.MaxLogs)
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("RECONNECT_DELAY must be positive, got %s", c.ReconnectDelay)
	}
	if !strings.HasPrefix(c.FeedURL, "http://") && !strings.HasPrefix(c.FeedURL, "https://") {
		return fmt.Errorf("FEED_URL must be an http(s) URL, got %q", c.FeedURL)
	}
	return nil
}
