package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disciplinario/backend/internal/infrastructure/config"
	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/infrastructure/migration"
	"github.com/disciplinario/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

type options struct {
	path        string
	confirmDrop bool
}

// dbCommand runs against a connected migrator.
type dbCommand func(m *migration.Migrator, args []string, opts options, log *zap.Logger) error

var errUsage = errors.New("usage")

var dbCommands = map[string]dbCommand{
	"up":      func(m *migration.Migrator, _ []string, _ options, _ *zap.Logger) error { return m.Up() },
	"down":    func(m *migration.Migrator, _ []string, _ options, _ *zap.Logger) error { return m.Down() },
	"step":    runStep,
	"goto":    runGoto,
	"version": runVersion,
	"force":   runForce,
	"drop":    runDrop,
}

func main() {
	var opts options
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.path, "path", "", "Migrations directory to use instead of the embedded set")
	flag.BoolVar(&opts.confirmDrop, "confirm", false, "Confirm the drop command")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := run(args[0], args[1:], opts, log); err != nil {
		if errors.Is(err, errUsage) {
			log.Error(err.Error())
			printUsage()
			os.Exit(2)
		}
		log.Fatal("Migration "+args[0]+" failed", zap.Error(err))
	}
}

func run(command string, args []string, opts options, log *zap.Logger) error {
	source, sourceName, err := migrationSource(opts.path)
	if err != nil {
		return err
	}
	log.Info("Migration CLI started", zap.String("command", command), zap.String("source", sourceName))

	switch command {
	case "create":
		return createMigration(cmpPath(opts.path), args, log)
	case "list":
		return listMigrations(source, log)
	}

	cmd, ok := dbCommands[command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("SQL migrations only apply to PostgreSQL, got driver %q; SQLite schemas are created by the server on start-up", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.NewEmbedded(db, source, log)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	return cmd(m, args, opts, log)
}

func cmpPath(path string) string {
	if path == "" {
		return defaultMigrationsPath
	}
	return path
}

func migrationSource(path string) (fs.FS, string, error) {
	if path == "" {
		return migrations.FS, "embedded", nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve migrations path: %w", err)
	}
	return os.DirFS(abs), abs, nil
}

func firstArg(args []string, usage string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: migrate %s", errUsage, usage)
	}
	return args[0], nil
}

func createMigration(dir string, args []string, log *zap.Logger) error {
	name, err := firstArg(args, "create <name> [description]")
	if err != nil {
		return err
	}
	var description string
	if len(args) > 1 {
		description = args[1]
	}

	mf, err := migration.CreateMigration(dir, name, description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func listMigrations(source fs.FS, log *zap.Logger) error {
	names, err := migration.ListMigrations(source)
	if err != nil {
		return err
	}
	log.Info("Available migrations", zap.Int("count", len(names)))
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

func runStep(m *migration.Migrator, args []string, _ options, _ *zap.Logger) error {
	raw, err := firstArg(args, "step <n>")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid step count: %w", err)
	}
	return m.Steps(n)
}

func runGoto(m *migration.Migrator, args []string, _ options, _ *zap.Logger) error {
	raw, err := firstArg(args, "goto <version>")
	if err != nil {
		return err
	}
	version, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid version: %w", err)
	}
	return m.GoTo(uint(version))
}

func runVersion(m *migration.Migrator, _ []string, _ options, log *zap.Logger) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		log.Info("No migrations applied")
		return nil
	}
	log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func runForce(m *migration.Migrator, args []string, _ options, log *zap.Logger) error {
	raw, err := firstArg(args, "force <version>")
	if err != nil {
		return err
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid version: %w", err)
	}
	log.Warn("Forcing migration version, the schema is not touched", zap.Int("version", version))
	return m.Force(version)
}

func runDrop(m *migration.Migrator, _ []string, opts options, _ *zap.Logger) error {
	if !opts.confirmDrop {
		return fmt.Errorf("%w: drop removes every table including disciplinary_requests, re-run as 'migrate -confirm drop'", errUsage)
	}
	return m.Drop()
}

func printUsage() {
	fmt.Println(`Disciplinary requests database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  drop                  Drop all database objects (needs -confirm)
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: migrations embedded in the binary)
  -log-level string     Log level: debug, info, warn, error (default: info)
  -confirm              Required by drop

Environment Variables:
  DISC_DATABASE_HOST, DISC_DATABASE_PORT, DISC_DATABASE_USER,
  DISC_DATABASE_PASSWORD, DISC_DATABASE_DBNAME, DISC_DATABASE_SSLMODE

Examples:
  migrate up
  migrate step -1
  migrate create add_request_notes "Add reviewer notes to requests"
  migrate version`)
}
