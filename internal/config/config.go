// Package config defines the configuration structure for the Eprice service.
// Configuration is loaded once at process startup and is immutable thereafter.
// It follows 12-Factor principles: all values come from the environment (with
// an optional .env file for local development), and any missing required value
// or invalid format fails the process immediately.
package config

import "time"

// Config is the top-level configuration struct. It is populated once during
// startup and never modified. Sub-components receive only the specific config
// subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server    ServerConfig
	Database  DatabaseConfig
	Grid      GridConfig
	Spot      SpotConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout  time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
}

// GridConfig holds settings for the grid dataset provider (wind power,
// consumption, production series).
type GridConfig struct {
	BaseURL string `envconfig:"GRID_BASE_URL" default:"https://data.fingrid.fi/api" validate:"required,url"`
	APIKey  string `envconfig:"GRID_API_KEY"`

	// MinCallInterval is the process-wide spacing between provider calls,
	// enforced by a shared RateGate across all concurrent requests.
	MinCallInterval time.Duration `envconfig:"GRID_MIN_CALL_INTERVAL" default:"1500ms"`
	RequestTimeout  time.Duration `envconfig:"GRID_REQUEST_TIMEOUT" default:"8s"`
	MaxRetries      int           `envconfig:"GRID_MAX_RETRIES" default:"3"`
	RetryWait       time.Duration `envconfig:"GRID_RETRY_WAIT" default:"1s"`
}

// SpotConfig holds settings for the spot price provider.
type SpotConfig struct {
	BaseURL        string        `envconfig:"SPOT_BASE_URL" default:"https://api.porssisahko.net/v1" validate:"required,url"`
	RequestTimeout time.Duration `envconfig:"SPOT_REQUEST_TIMEOUT" default:"8s"`
}

// SchedulerConfig holds settings for the background backfill job.
type SchedulerConfig struct {
	Enabled bool `envconfig:"SCHEDULER_ENABLED" default:"true"`

	// DailyAt is the local wall-clock time ("HH:MM") of the daily refresh,
	// shortly after the next-day spot prices are published around 14:00
	// Helsinki time.
	DailyAt string `envconfig:"SCHEDULER_DAILY_AT" default:"14:15" validate:"required"`

	// BackfillStart is the RFC 3339 instant the startup backfill reaches back
	// to. Empty disables the startup pass.
	BackfillStart string `envconfig:"SCHEDULER_BACKFILL_START" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// BackfillStartTime parses SchedulerConfig.BackfillStart. Returns the zero
// time when unset; the validator has already rejected malformed values.
func (c SchedulerConfig) BackfillStartTime() time.Time {
	if c.BackfillStart == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, c.BackfillStart)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
