// Package migration applies the versioned PostgreSQL schema with
// golang-migrate and scaffolds new migration files.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// schemaTable keeps the migration bookkeeping apart from application tables
const schemaTable = "schema_migrations"

// Migrator moves a PostgreSQL schema between migration versions
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewEmbedded reads migration files from fsys, which is the embedded
// migrations.FS unless the CLI is given -path
func NewEmbedded(db *sql.DB, fsys fs.FS, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: schemaTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

// run executes one schema change. ErrNoChange is success; otherwise the
// resulting version is logged.
func (mg *Migrator) run(op string, fn func() error, fields ...zap.Field) error {
	mg.logger.Info("Migration "+op+" starting", fields...)

	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("Schema already up to date", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", op, err)
	}

	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.logger.Info("Migration "+op+" done", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Up applies every pending migration
func (mg *Migrator) Up() error {
	return mg.run("up", mg.m.Up)
}

// Down rolls every migration back
func (mg *Migrator) Down() error {
	return mg.run("down", mg.m.Down)
}

// Steps applies n migrations, rolling back when n is negative
func (mg *Migrator) Steps(n int) error {
	return mg.run("step", func() error { return mg.m.Steps(n) }, zap.Int("steps", n))
}

// GoTo migrates up or down to version
func (mg *Migrator) GoTo(version uint) error {
	return mg.run("goto", func() error { return mg.m.Migrate(version) }, zap.Uint("target_version", version))
}

// Version returns the applied version, zero when nothing was applied
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clears the dirty flag without
// touching the schema. It recovers from a migration that failed halfway.
func (mg *Migrator) Force(version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	mg.logger.Warn("Migration version forced", zap.Int("version", version))
	return nil
}

// Drop removes every table in the schema, requests and users included
func (mg *Migrator) Drop() error {
	mg.logger.Warn("Dropping every table in the schema")
	if err := mg.m.Drop(); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return nil
}

// Close releases the source and the database driver
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
