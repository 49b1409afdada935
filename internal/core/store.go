package database

import (
	"context"
	"fmt"

	"github.com/duynhne/contact-service/config"
	"github.com/duynhne/contact-service/internal/core/domain"
	"github.com/duynhne/contact-service/internal/core/repository/memory"
	"github.com/duynhne/contact-service/internal/core/repository/psql"
	"github.com/duynhne/contact-service/internal/core/repository/sqldb"
)

// OpenContactRepository opens the contact store selected by DB_DRIVER and makes sure
// the contacts table exists. The returned repository records a span per call.
func OpenContactRepository(ctx context.Context, cfg config.DatabaseConfig) (domain.ContactRepository, error) {
	var repo domain.ContactRepository

	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		pg := psql.NewContactRepository(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		repo = pg
	case config.DriverMySQL:
		my, err := sqldb.Open(ctx, sqldb.DriverMySQL, cfg.BuildMySQLDSN())
		if err != nil {
			return nil, err
		}
		repo = my
	case config.DriverSQLite:
		lite, err := sqldb.Open(ctx, sqldb.DriverSQLite, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo = lite
	case config.DriverMemory:
		repo = memory.NewContactRepository()
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	return NewTracedRepository(repo), nil
}
