package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

// migrationsFS holds one directory of golang-migrate files per supported driver.
//
//go:embed migrations
var migrationsFS embed.FS

// RunMigrate applies or rolls back the schema migrations on db.
// Supported commands: "up", "down", "version", "force N".
func RunMigrate(ctx context.Context, db *sqlx.DB, logger *slog.Logger, command string, args []string) error {
	switch command {
	case "up", "down", "version", "force":
	default:
		return fmt.Errorf("unknown migrate command: %s (use: up, down, version, force)", command)
	}
	var forceVersion int
	if command == "force" {
		if len(args) == 0 {
			return errors.New("force requires a version number argument")
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		forceVersion = v
	}

	m, release, err := newMigrate(ctx, db)
	if err != nil {
		return err
	}
	defer release()
	m.Log = &migrateLogger{logger: logger}

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
		ver, dirty, _ := m.Version()
		logger.Info("schema is up to date", slog.Uint64("version", uint64(ver)), slog.Bool("dirty", dirty))
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down: %w", err)
		}
		logger.Info("all migrations rolled back")
	case "version":
		ver, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("migrate version: %w", err)
		}
		logger.Info("current schema version", slog.Uint64("version", uint64(ver)), slog.Bool("dirty", dirty))
	case "force":
		if err := m.Force(forceVersion); err != nil {
			return fmt.Errorf("migrate force: %w", err)
		}
		logger.Info("forced schema version", slog.Int("version", forceVersion))
	}
	return nil
}

// newMigrate builds a migrate instance on top of the shared pool. The returned release function
// must be called instead of m.Close, which would close the pool itself.
func newMigrate(ctx context.Context, db *sqlx.DB) (*migrate.Migrate, func(), error) {
	driver := db.DriverName()
	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, nil, fmt.Errorf("migration source for %s: %w", driver, err)
	}

	var (
		instance database.Driver
		release  = func() { _ = source.Close() }
	)
	switch driver {
	case "mysql":
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("migration connection: %w", err)
		}
		mx, err := migratemysql.WithConnection(ctx, conn, &migratemysql.Config{})
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("migration driver: %w", err)
		}
		instance = mx
		// Closing the driver returns the dedicated connection to the pool.
		release = func() { _ = mx.Close(); _ = source.Close() }
	case "sqlite":
		instance, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("migration driver: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("no migrations for driver %q", driver)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, instance)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("migrate init: %w", err)
	}
	return m, release, nil
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
