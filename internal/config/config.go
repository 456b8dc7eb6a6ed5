// Package config holds typed application configuration loaded from
// CADENCE_-prefixed environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/cadencehq/cadence/internal/env"
)

// StorageConfig selects and configures the occurrence store.
type StorageConfig struct {
	Driver      string `env:"CADENCE_STORAGE_DRIVER" default:"postgres"` // postgres, sqlite
	PostgresURL string `env:"CADENCE_POSTGRES_URL"`
	SQLitePath  string `env:"CADENCE_SQLITE_PATH" default:"./cadence.db"`
}

// Validate checks driver-specific requirements.
func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case "postgres":
		if c.PostgresURL == "" {
			return fmt.Errorf("CADENCE_POSTGRES_URL is required when CADENCE_STORAGE_DRIVER is 'postgres'")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("CADENCE_SQLITE_PATH is required when CADENCE_STORAGE_DRIVER is 'sqlite'")
		}
	default:
		return fmt.Errorf("unknown CADENCE_STORAGE_DRIVER: %s", c.Driver)
	}
	return nil
}

// DSN returns the connection string for the selected driver.
func (c *StorageConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return c.PostgresURL
}

// MaterializerConfig holds all configuration for the materializer binary.
type MaterializerConfig struct {
	Storage StorageConfig

	// Schedule is a cron expression evaluated in IST. The default runs
	// shortly before the 10:00 visibility anchor so today's rows exist
	// when dashboards light up.
	Schedule string `env:"CADENCE_MATERIALIZE_SCHEDULE" default:"45 9 * * *"`

	// OperationTimeout bounds a single materializer run.
	OperationTimeout time.Duration `env:"CADENCE_OPERATION_TIMEOUT" default:"2m"`

	// Observability
	ServiceName string `env:"CADENCE_SERVICE_NAME" default:"cadence-materializer"`
	OTelEnabled bool   `env:"CADENCE_OTEL_ENABLED" default:"false"`
}

// LoadMaterializerConfig loads and validates configuration from the
// environment.
func LoadMaterializerConfig() (*MaterializerConfig, error) {
	cfg := &MaterializerConfig{}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load materializer config: %w", err)
	}
	return cfg, nil
}
