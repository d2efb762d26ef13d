// Package postgres implements the CredentialStore port on PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const defaultTimeout = 10 * time.Second

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds the connection settings taken from the environment.
type Config struct {
	DSN     string
	Timeout time.Duration
}

// Open creates a pool, pings it and applies pending migrations. The caller
// owns the returned pool.
func Open(ctx context.Context, cfg Config) (*pgxpool.Pool, *CredentialStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.New(openCtx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(openCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	if err := Migrate(openCtx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, NewCredentialStore(pool), nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
