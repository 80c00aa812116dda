package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	identityapp "github.com/disciplinario/backend/internal/application/identity"
	"github.com/disciplinario/backend/internal/infrastructure/auth"
	"github.com/disciplinario/backend/internal/infrastructure/config"
	"github.com/disciplinario/backend/internal/infrastructure/csvimport"
	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

const passwordEnv = "DISC_NUEVA_CONTRASENA"

func main() {
	var (
		logLevel    string
		maxErrors   int
		email       string
		displayName string
		role        string
	)

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.IntVar(&maxErrors, "max-errors", 50, "Row errors to report before truncating")
	flag.StringVar(&email, "email", "", "Email of the user to create")
	flag.StringVar(&displayName, "nombre", "", "Display name of the user to create")
	flag.StringVar(&role, "rol", "", "Role of the user to create (usuario, revisor, admin)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var inputs []identityapp.CreateUserInput
	switch command {
	case "crear":
		password := os.Getenv(passwordEnv)
		if email == "" || password == "" {
			log.Fatal("crear needs -email and the password in " + passwordEnv)
		}
		inputs = []identityapp.CreateUserInput{{
			Email:       email,
			Password:    password,
			DisplayName: displayName,
			Role:        role,
		}}

	case "importar":
		if len(args) < 2 {
			log.Fatal("CSV file required. Usage: usuarios importar <archivo.csv>")
		}
		inputs = readRoster(args[1], maxErrors, log)

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}

	db, err := persistence.NewDatabase(&cfg.Database,
		logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.Driver == persistence.DriverSQLite {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to create schema", zap.Error(err))
		}
	}

	userRepo := persistence.NewGormUserRepository(db.DB)
	roles := identityapp.NewRoleResolver(userRepo, cfg.Roles.Overrides, log)
	authService := identityapp.NewAuthService(userRepo, roles, auth.NewJWTService(cfg.JWT),
		auth.NewInMemoryTokenBlacklist(), identityapp.DefaultAuthServiceConfig(), log)

	result, err := authService.ImportUsers(ctx, inputs)
	if result != nil {
		for _, e := range result.Created {
			fmt.Println("  creado   ", e)
		}
		for _, e := range result.Skipped {
			fmt.Println("  existente", e)
		}
		for _, f := range result.Failures {
			fmt.Printf("  error     %s: %s\n", f.Email, f.Reason)
		}
	}
	if err != nil {
		log.Fatal("User import aborted", zap.Error(err))
	}
	if len(result.Failures) > 0 {
		os.Exit(2)
	}
}

// readRoster parses the CSV file and exits when it has structural or row errors
func readRoster(path string, maxErrors int, log *zap.Logger) []identityapp.CreateUserInput {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("Failed to open roster", zap.Error(err))
	}
	defer f.Close()

	entries, rowErrs, err := csvimport.ParseRoster(f, maxErrors)
	if err != nil {
		var missing *csvimport.MissingColumnsError
		if errors.As(err, &missing) {
			log.Fatal("Roster is missing columns", zap.Strings("columns", missing.Columns))
		}
		log.Fatal("Failed to read roster", zap.Error(err))
	}
	if rowErrs.HasErrors() {
		fmt.Fprintln(os.Stderr, rowErrs.String())
		log.Fatal("Roster has invalid rows, nothing was imported", zap.Int("errors", rowErrs.TotalCount()))
	}

	log.Info("Roster parsed", zap.String("file", path), zap.Int("users", len(entries)))

	inputs := make([]identityapp.CreateUserInput, 0, len(entries))
	for _, e := range entries {
		inputs = append(inputs, identityapp.CreateUserInput{
			Email:       e.Email,
			Password:    e.Password,
			DisplayName: e.DisplayName,
			Role:        e.Role,
		})
	}
	return inputs
}

func printUsage() {
	fmt.Println(`User provisioning tool

Usage:
  usuarios [flags] <command> [arguments]

Commands:
  crear                 Create one user from -email, -nombre and -rol.
                        The password is read from ` + passwordEnv + `.
  importar <file.csv>   Create every user listed in a CSV roster.

Roster columns (comma or semicolon separated, header required):
  email, contraseña     required
  nombre, rol           optional; rol is usuario, revisor or admin

Existing users are skipped, never updated.

Flags:
  -log-level string     Log level: debug, info, warn, error (default: info)
  -max-errors int       Row errors to report before truncating (default: 50)

Examples:
  usuarios importar personal.csv
  ` + passwordEnv + `=... usuarios -email jefe@empresa.com -rol revisor crear`)
}
