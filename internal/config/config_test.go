package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("CollectSchedule uses configured interval", func(t *testing.T) {
		cfg := &Config{CollectIntervalHours: 12}
		assert.Equal(t, "@every 12h", cfg.CollectSchedule())
	})

	t.Run("CollectSchedule falls back to daily", func(t *testing.T) {
		cfg := &Config{CollectIntervalHours: 0}
		assert.Equal(t, "@every 24h", cfg.CollectSchedule())
	})
}

func TestValidate(t *testing.T) {
	strongSecret := "0123456789abcdef0123456789abcdef"

	t.Run("passes outside production with weak secret", func(t *testing.T) {
		cfg := &Config{SessionSecret: "change-me", GraphAPIBaseURL: "http://localhost:9000"}
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects short secret in production", func(t *testing.T) {
		cfg := &Config{SessionSecret: "short", GraphAPIBaseURL: "https://graph.facebook.com/v18.0"}
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("rejects known weak secret in production", func(t *testing.T) {
		cfg := &Config{
			SessionSecret:   "change-me",
			GraphAPIBaseURL: "https://graph.facebook.com/v18.0",
		}
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("rejects plain http graph url in production", func(t *testing.T) {
		cfg := &Config{
			SessionSecret:   strongSecret,
			GraphAPIBaseURL: "http://graph.facebook.com/v18.0",
		}
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("passes with strong secret and https graph url", func(t *testing.T) {
		cfg := &Config{
			SessionSecret:   strongSecret,
			RedisURL:        "rediss://redis.internal:6379",
			GraphAPIBaseURL: "https://graph.facebook.com/v18.0",
		}
		assert.NoError(t, cfg.Validate(true))
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":                   os.Getenv("PORT"),
		"DATABASE_URL":           os.Getenv("DATABASE_URL"),
		"REDIS_URL":              os.Getenv("REDIS_URL"),
		"SESSION_SECRET":         os.Getenv("SESSION_SECRET"),
		"GRAPH_API_BASE_URL":     os.Getenv("GRAPH_API_BASE_URL"),
		"COLLECT_INTERVAL_HOURS": os.Getenv("COLLECT_INTERVAL_HOURS"),
		"LOG_LEVEL":              os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Unsetenv("PORT")
		os.Unsetenv("GRAPH_API_BASE_URL")
		os.Unsetenv("COLLECT_INTERVAL_HOURS")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
		assert.Equal(t, "https://graph.facebook.com/v18.0", cfg.GraphAPIBaseURL)
		assert.Equal(t, 24, cfg.CollectIntervalHours)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("PORT", "3000")
		os.Setenv("COLLECT_INTERVAL_HOURS", "6")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, 6, cfg.CollectIntervalHours)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without required REDIS_URL", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Unsetenv("REDIS_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}
