// Package migrations holds the build history schema and applies it with
// golang-migrate from the embedded SQL files.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/slok/rtboot/internal/log"
)

//go:embed sql/*.sql
var schema embed.FS

// MigratorConfig is the configuration of the schema migrator.
type MigratorConfig struct {
	DB     *sql.DB
	Logger log.Logger
}

func (c *MigratorConfig) defaults() error {
	if c.DB == nil {
		return fmt.Errorf("db is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.sqlite.Migrator"})
	return nil
}

// Migrator applies the build history schema.
type Migrator struct {
	db     *sql.DB
	logger log.Logger
}

// NewMigrator returns a schema migrator for a SQLite database.
func NewMigrator(cfg MigratorConfig) (*Migrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Migrator{db: cfg.DB, logger: cfg.Logger}, nil
}

// Up brings the schema to the latest version, an up to date schema is not an error.
func (m *Migrator) Up(ctx context.Context) error {
	return m.apply(ctx, "up", (*migrate.Migrate).Up)
}

// Down removes the whole schema, including the recorded builds.
func (m *Migrator) Down(ctx context.Context) error {
	return m.apply(ctx, "down", (*migrate.Migrate).Down)
}

// Version returns the current schema version, zero when no migration has been applied.
func (m *Migrator) Version(ctx context.Context) (version uint, dirty bool, err error) {
	err = m.withInstance(ctx, func(inst *migrate.Migrate) error {
		version, dirty, err = inst.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			version, dirty, err = 0, false, nil
		}
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("could not get schema version: %w", err)
	}

	return version, dirty, nil
}

func (m *Migrator) apply(ctx context.Context, direction string, fn func(*migrate.Migrate) error) error {
	err := m.withInstance(ctx, func(inst *migrate.Migrate) error {
		err := fn(inst)
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Debugf("No %s migrations to apply on the build history schema", direction)
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("could not migrate schema %s: %w", direction, err)
	}

	m.logger.Debugf("Build history schema migrated %s", direction)
	return nil
}

func (m *Migrator) withInstance(ctx context.Context, fn func(*migrate.Migrate) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	driver, err := sqlite3.WithInstance(m.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create database driver: %w", err)
	}

	src, err := iofs.New(schema, "sql")
	if err != nil {
		return fmt.Errorf("could not load embedded schema: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			m.logger.Errorf("could not close embedded schema: %s", err)
		}
	}()

	inst, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	return fn(inst)
}
