package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// OpenOptions configures the connection pool.
type OpenOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	JournalMode     string // sqlite only
}

// Open connects to sqlite or postgres and verifies the connection.
func Open(ctx context.Context, driver, dsn string, opts OpenOptions) (*sql.DB, error) {
	var driverName string
	switch driver {
	case "postgres":
		driverName = "postgres"
	case "sqlite":
		driverName = "sqlite3"
		dsn = sqliteDSN(dsn, opts.JournalMode)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return db, nil
}

func sqliteDSN(path, journalMode string) string {
	if journalMode == "" {
		journalMode = "WAL"
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=%s&_busy_timeout=5000", path, journalMode)
}

// Migrate applies all pending schema migrations for the given driver.
// It returns the schema version after the run.
func Migrate(db *sql.DB, driver string) (uint, error) {
	m, err := newMigrator(db, driver)
	if err != nil {
		return 0, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return version, nil
}

// MigrateDown rolls back every migration. Used by the CLI reset flow.
func MigrateDown(db *sql.DB, driver string) error {
	m, err := newMigrator(db, driver)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migrations: %w", err)
	}
	return nil
}

func newMigrator(db *sql.DB, driver string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	switch driver {
	case "postgres":
		target, err := migratepg.WithInstance(db, &migratepg.Config{})
		if err != nil {
			return nil, fmt.Errorf("postgres migration driver: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "postgres", target)
	case "sqlite":
		target, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("sqlite migration driver: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "sqlite3", target)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
