package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver          string
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// DB is a database/sql handle plus the dialect it talks.
type DB struct {
	*sql.DB
	Driver string
	pool   *pgxpool.Pool
}

// Open connects to SQLite (file DSN, ":memory:" for tests) or Postgres. Postgres goes
// through a pgx pool wrapped as *sql.DB.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case DriverSQLite, "":
		return openSQLite(ctx, cfg, logger)
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "statement-insights"

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database", "driver", DriverPostgres)
	return &DB{DB: stdlib.OpenDBFromPool(pool), Driver: DriverPostgres, pool: pool}, nil
}

func openSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	logger.Info("connecting to database", "driver", DriverSQLite, "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	logger.Info("successfully connected to database", "driver", DriverSQLite)
	return &DB{DB: db, Driver: DriverSQLite}, nil
}

// Close closes the database connections gracefully
func (d *DB) Close(logger *slog.Logger) {
	if d == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if err := d.DB.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func HealthCheck(ctx context.Context, d *DB, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := d.PingContext(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}

func (d *DB) placeholder() sq.PlaceholderFormat {
	if d.Driver == DriverPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// Migrate creates the job ledger table if missing.
func Migrate(ctx context.Context, d *DB) error {
	ddl := sqliteSchema
	if d.Driver == DriverPostgres {
		ddl = postgresSchema
	}
	for _, stmt := range ddl {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS extract_job (
		id                TEXT PRIMARY KEY,
		filename          TEXT NOT NULL,
		document_type     TEXT NOT NULL,
		status            TEXT NOT NULL,
		started_at        TIMESTAMP NOT NULL,
		finished_at       TIMESTAMP,
		error_message     TEXT,
		raw_response_path TEXT,
		fallback          BOOLEAN NOT NULL DEFAULT 0,
		total_income      TEXT,
		total_outgoings   TEXT,
		net_balance       TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS extract_job_started_at_idx ON extract_job (started_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS extract_job (
		id                UUID PRIMARY KEY,
		filename          TEXT NOT NULL,
		document_type     TEXT NOT NULL,
		status            TEXT NOT NULL,
		started_at        TIMESTAMPTZ NOT NULL,
		finished_at       TIMESTAMPTZ,
		error_message     TEXT,
		raw_response_path TEXT,
		fallback          BOOLEAN NOT NULL DEFAULT FALSE,
		total_income      NUMERIC(14,2),
		total_outgoings   NUMERIC(14,2),
		net_balance       NUMERIC(14,2)
	)`,
	`CREATE INDEX IF NOT EXISTS extract_job_started_at_idx ON extract_job (started_at)`,
}
