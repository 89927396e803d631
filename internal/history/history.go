package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

var (
	ErrConnectFailed = errors.New("database connect failed")
	ErrMigrateFailed = errors.New("database migration failed")
)

type Config struct {
	ConnString     string
	MigrationsPath string
}

type DB struct {
	pool *pgxpool.Pool
}

// Init connects the pool and brings the schema up to date.
func Init(ctx context.Context, cfg Config) (*DB, error) {
	const fn = "Init"
	pool, err := pgxpool.Connect(ctx, cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrConnectFailed, err)
	}

	slog.InfoContext(ctx, "Running database migrations...", "path", cfg.MigrationsPath)
	m, err := migrate.New(
		"file://"+cfg.MigrationsPath,
		cfg.ConnString,
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrMigrateFailed, err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		pool.Close()
		return nil, fmt.Errorf("%s:%w:%w", fn, ErrMigrateFailed, err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}
