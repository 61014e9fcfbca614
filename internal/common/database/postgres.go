package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"worker-discovery/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient owns the connection pool of the versioned weight store.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// weightSetsSchema holds one row per ranking weight set. At most one row is active.
const weightSetsSchema = `
CREATE TABLE IF NOT EXISTS ranking_weight_sets (
	version    TEXT PRIMARY KEY,
	config     JSONB NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS ranking_weight_sets_one_active
	ON ranking_weight_sets (active) WHERE active;
`

// EnsureSchema creates the weight-set table when it does not exist yet.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, weightSetsSchema); err != nil {
		return fmt.Errorf("create ranking_weight_sets: %w", err)
	}
	return nil
}
