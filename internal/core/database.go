package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/contact-service/config"
)

// Connect establishes the PostgreSQL connection pool using pgx/v5.
//
// When the service sits behind a transaction-mode pooler (PgCat/PgBouncer) the pool uses the
// simple protocol with statement and description caches disabled. Without this you may see:
//
//	"prepared statement stmtcache_* does not exist"
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.BuildDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if behindPooler(cfg) {
		poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
		poolCfg.ConnConfig.StatementCacheCapacity = 0
		poolCfg.ConnConfig.DescriptionCacheCapacity = 0
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// behindPooler reports whether connections go through a transaction-mode pooler
func behindPooler(cfg config.DatabaseConfig) bool {
	return cfg.PoolMode == "transaction" || cfg.PoolerType != ""
}
