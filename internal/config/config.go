package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	RedisURL             string `env:"REDIS_URL,required"`
	SessionSecret        string `env:"SESSION_SECRET"`
	GraphAPIBaseURL      string `env:"GRAPH_API_BASE_URL" envDefault:"https://graph.facebook.com/v18.0"`
	CollectIntervalHours int    `env:"COLLECT_INTERVAL_HOURS" envDefault:"24"`
	APIRateLimitPerMin   int    `env:"API_RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// CollectSchedule is the cron spec for the daily collection job.
func (c *Config) CollectSchedule() string {
	hours := c.CollectIntervalHours
	if hours <= 0 {
		hours = 24
	}
	return fmt.Sprintf("@every %dh", hours)
}

func (c *Config) Validate(isProduction bool) error {
	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	if !strings.HasPrefix(c.GraphAPIBaseURL, "https://") && isProduction {
		return fmt.Errorf("GRAPH_API_BASE_URL must use https in production")
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
