package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job settings
const (
	SessionCleanupSchedule = "@every 5m"
	CollectorRunTimeout    = 2 * time.Minute
	CleanupRunTimeout      = 30 * time.Second
)

// Graph API client timeout
const InsightsRequestTimeout = 30 * time.Second
