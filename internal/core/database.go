package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/card-service/config"
)

// CardsTable is the Card Store table name.
const CardsTable = "business_cards"

const createCardsTable = `
CREATE TABLE IF NOT EXISTS business_cards (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	first_name      VARCHAR(255) NOT NULL,
	last_name       VARCHAR(255) NOT NULL,
	phone_number    VARCHAR(50)  NOT NULL,
	email           TEXT,
	note            TEXT,
	front_image_url TEXT,
	back_image_url  TEXT,
	created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS business_cards_created_at_idx ON business_cards (created_at DESC);`

// Column describes one column of a table as reported by information_schema.
type Column struct {
	Name     string
	DataType string
	Nullable bool
}

// Connect establishes database connection pool using pgx/v5.
//
// IMPORTANT: We use SimpleProtocol mode and disable statement caching to work correctly
// with transaction-mode connection poolers (PgCat/PgBouncer, Neon pooler). Without this, you may see:
//
//	"prepared statement stmtcache_* does not exist"
func Connect(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.BuildDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.StatementCacheCapacity = 0
	poolCfg.ConnConfig.DescriptionCacheCapacity = 0

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

// EnsureSchema creates the business_cards table and its ordering index when absent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, createCardsTable); err != nil {
		return fmt.Errorf("create %s table: %w", CardsTable, err)
	}
	return nil
}

// ListTables returns the tables of the public schema in name order.
func ListTables(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan tables: %w", err)
	}
	return tables, nil
}

// DescribeTable returns the columns of a table in ordinal order.
func DescribeTable(ctx context.Context, pool *pgxpool.Pool, table string) ([]Column, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	columns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Column, error) {
		var c Column
		err := row.Scan(&c.Name, &c.DataType, &c.Nullable)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan columns of %s: %w", table, err)
	}
	return columns, nil
}
