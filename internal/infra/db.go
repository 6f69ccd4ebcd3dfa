// README: Postgres connection pool initialization using pgxpool.
package infra

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewDB opens a pgx pool from the DSN and verifies connectivity before
// anything else starts consuming it.
func NewDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = time.Hour
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
