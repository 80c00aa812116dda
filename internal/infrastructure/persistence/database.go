package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/disciplinario/backend/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database is the gorm handle shared by the request and user stores.
type Database struct {
	DB   *gorm.DB
	name string // pool label on exported stats
}

// NewDatabase opens cfg's database and pings it once. A nil gormLogger
// silences gorm.
func NewDatabase(cfg *config.DatabaseConfig, gormLogger gormlogger.Interface) (*Database, error) {
	dialector, name, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}
	if gormLogger == nil {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Silent)
	}
	single := cfg.Driver == DriverSQLite

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            !single,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &Database{DB: db, name: name}
	pool, err := d.pool()
	if err != nil {
		return nil, err
	}
	tunePool(pool, cfg, single)

	if err := d.Ping(context.Background()); err != nil {
		return nil, err
	}
	return d, nil
}

// tunePool sizes the pool; single pins it to one connection for sqlite.
func tunePool(pool *sql.DB, cfg *config.DatabaseConfig, single bool) {
	if single {
		// one writer at a time, or SQLITE_BUSY
		pool.SetMaxOpenConns(1)
	} else {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// openDialector defaults to postgres when no driver is named.
func openDialector(cfg *config.DatabaseConfig) (gorm.Dialector, string, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		return postgres.Open(cfg.DSN()), cfg.DBName, nil
	case DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), DriverSQLite, nil
	}
	return nil, "", fmt.Errorf("unsupported database driver: %s", cfg.Driver)
}

func (d *Database) pool() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	return pool, nil
}

// Ping backs the database health check.
func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	if err := pool.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// StatsCollector exports pool statistics labelled with the database name.
func (d *Database) StatsCollector() (prometheus.Collector, error) {
	pool, err := d.pool()
	if err != nil {
		return nil, err
	}
	return collectors.NewDBStatsCollector(pool, d.name), nil
}

func (d *Database) Close() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}
