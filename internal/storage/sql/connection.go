// Package sql provides the database-backed occurrence store. PostgreSQL is
// the production backend (via the pgx stdlib driver); SQLite serves
// single-binary and local setups. Migrations are embedded and applied with
// goose on startup.
package sql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DBConfig holds database connection configuration.
type DBConfig struct {
	Driver          string        // "postgres" or "sqlite"
	DSN             string        // connection string or sqlite file path
	MaxOpenConns    int           // default 25 (postgres), 1 (sqlite)
	MaxIdleConns    int           // default 5
	ConnMaxLifetime time.Duration // default 5min
	ConnMaxIdleTime time.Duration // default 1min
}

// Open connects to the configured database, applies migrations, and
// returns a ready Store.
func Open(ctx context.Context, cfg DBConfig) (*Store, error) {
	driverName, dialect, err := resolveDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if dialect == "sqlite3" {
		// Serialize writers; modernc sqlite returns SQLITE_BUSY otherwise.
		maxOpen = 1
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	maxLifetime := cfg.ConnMaxLifetime
	if maxLifetime <= 0 {
		maxLifetime = 5 * time.Minute
	}
	maxIdleTime := cfg.ConnMaxIdleTime
	if maxIdleTime <= 0 {
		maxIdleTime = 1 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
	db.SetConnMaxIdleTime(maxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return NewStore(db, dialect), nil
}

func resolveDriver(driver string) (driverName, gooseDialect string, err error) {
	switch driver {
	case DriverPostgres, "":
		return "pgx", "postgres", nil
	case DriverSQLite:
		return "sqlite", "sqlite3", nil
	default:
		return "", "", fmt.Errorf("unknown storage driver: %q", driver)
	}
}

func runMigrations(db *sql.DB, dialect string) error {
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(embedMigrations)
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
