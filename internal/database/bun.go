package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/redmonkez12/go-user-api/internal/config"
)

const memoryDSN = ":memory:"

// Open connects to the database named by cfg.URL, verifies the connection
// and returns a Bun DB using the matching dialect.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	switch driver {
	case "postgres":
		return openPostgres(ctx, cfg)
	default:
		return openSQLite(ctx, cfg)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	return bun.NewDB(sqlDB, pgdialect.New()), nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	path := SQLitePath(cfg.URL)

	dsn := path
	if path != memoryDSN {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == memoryDSN {
		// Every connection to :memory: is a separate database; pin exactly one.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

// SQLitePath converts a SQLAlchemy-style URL into a file path:
// sqlite:///./app.db -> ./app.db, sqlite:////var/app.db -> /var/app.db,
// sqlite:///:memory: and sqlite:// -> :memory:.
func SQLitePath(url string) string {
	path := strings.TrimPrefix(url, "sqlite:")
	path = strings.TrimPrefix(path, "//")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return memoryDSN
	}
	return path
}
