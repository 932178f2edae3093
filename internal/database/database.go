package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/seatemp/sea-temperature/internal/config"
	applogger "github.com/seatemp/sea-temperature/internal/logger"
	"github.com/seatemp/sea-temperature/migrations"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// NewDatabase creates a new database connection for the configured driver
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connected",
		zap.String("driver", driverName(cfg)),
		zap.String("path", cfg.Path),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)

	return db, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case DriverSQLite:
		path, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		return sqlite.Open(SQLiteDSN(path, cfg.BusyTimeoutMs)), nil
	case DriverPostgres:
		return postgres.Open(cfg.ConnectionString()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// SQLiteDSN builds a go-sqlite3 DSN with WAL journaling and NORMAL synchronous mode
// applied to every pooled connection
func SQLiteDSN(path string, busyTimeoutMs int) string {
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d", path, busyTimeoutMs)
}

func driverName(cfg *config.DatabaseConfig) string {
	if cfg.Driver == "" {
		return DriverSQLite
	}
	return cfg.Driver
}

// GooseDialect maps a database driver to its goose dialect
func GooseDialect(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// Migrate applies all pending embedded migrations. Safe to call on every start.
func Migrate(db *gorm.DB, driver string, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return MigrateSQL(sqlDB, driver, log)
}

// MigrateSQL applies all pending embedded migrations on a plain sql.DB
func MigrateSQL(sqlDB *sql.DB, driver string, log *zap.Logger) error {
	if err := SetupGoose(driver, log); err != nil {
		return err
	}
	if err := goose.Up(sqlDB, migrations.Dir(driver)); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SetupGoose points goose at the embedded migrations for driver
func SetupGoose(driver string, log *zap.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(applogger.NewGooseLogger(log))
	if err := goose.SetDialect(GooseDialect(driver)); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// HealthCheckWithStats pings the database and returns pool statistics
func HealthCheckWithStats(db *gorm.DB) (sql.DBStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return sql.DBStats{}, fmt.Errorf("database ping failed: %w", err)
	}
	return sqlDB.Stats(), nil
}
