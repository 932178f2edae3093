package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/seatemp/sea-temperature/internal/config"
	"github.com/seatemp/sea-temperature/internal/database"
	"github.com/seatemp/sea-temperature/migrations"
	"go.uber.org/zap"
)

const usage = "usage: migrate [up|up-to VERSION|down|reset|status|version|create NAME]"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	args := os.Args[1:]
	if len(args) == 0 {
		return fmt.Errorf(usage)
	}
	command, arguments := args[0], args[1:]

	driver := cfg.Database.Driver
	dir := migrations.Dir(driver)

	// create writes a new file to the source tree, not the embedded FS
	if command == "create" {
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		goose.SetBaseFS(nil)
		if err := goose.Create(nil, filepath.Join("migrations", dir), arguments[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		fmt.Printf("Migration created: %s\n", arguments[0])
		return nil
	}

	db, err := open(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	log, _ := zap.NewDevelopment()
	if err := database.SetupGoose(driver, log); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			return fmt.Errorf("failed to run up migrations: %w", err)
		}
		fmt.Println("Migrations applied successfully")

	case "up-to":
		if len(arguments) == 0 {
			return fmt.Errorf("up-to requires a version")
		}
		version, err := strconv.ParseInt(arguments[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", arguments[0], err)
		}
		if err := goose.UpTo(db, dir, version); err != nil {
			return fmt.Errorf("failed to migrate up to %d: %w", version, err)
		}

	case "down":
		if err := goose.Down(db, dir); err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
		fmt.Println("Migration rolled back successfully")

	case "reset":
		if err := goose.Reset(db, dir); err != nil {
			return fmt.Errorf("failed to reset migrations: %w", err)
		}
		fmt.Println("All migrations rolled back")

	case "status":
		if err := goose.Status(db, dir); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

	case "version":
		if err := goose.Version(db, dir); err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}

	default:
		return fmt.Errorf("unknown command: %s\n%s", command, usage)
	}

	return nil
}

// open connects with the plain database/sql driver for the configured backend
func open(cfg *config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case database.DriverPostgres:
		db, err = sql.Open("postgres", cfg.ConnectionString())
	case database.DriverSQLite, "":
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err = sql.Open("sqlite3", database.SQLiteDSN(cfg.Path, cfg.BusyTimeoutMs))
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
