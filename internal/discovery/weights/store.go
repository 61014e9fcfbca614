// Package weights loads versioned ranking weight sets from Postgres and keeps the
// ranking engine's active config current.
package weights

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"worker-discovery/internal/discovery/ranking"
)

var (
	// ErrLoadFailed marks a weight set that could not be read from the store.
	ErrLoadFailed = errors.New("weight set load failed")

	ErrNotFound = errors.New("weight set not found")
)

// Store reads and publishes weight sets.
type Store interface {
	Active(ctx context.Context) (ranking.Config, error)
	Version(ctx context.Context, version string) (ranking.Config, error)
	Publish(ctx context.Context, cfg ranking.Config) error
}

const (
	activeQuery = `SELECT version, config FROM ranking_weight_sets
		WHERE active = true ORDER BY created_at DESC LIMIT 1`
	versionQuery = `SELECT version, config FROM ranking_weight_sets WHERE version = $1`

	deactivateStmt = `UPDATE ranking_weight_sets SET active = false WHERE active = true`
	insertStmt     = `INSERT INTO ranking_weight_sets (version, config, active) VALUES ($1, $2, true)`
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Active(ctx context.Context) (ranking.Config, error) {
	return s.scan(s.db.QueryRowContext(ctx, activeQuery), "active")
}

func (s *PostgresStore) Version(ctx context.Context, version string) (ranking.Config, error) {
	return s.scan(s.db.QueryRowContext(ctx, versionQuery, version), version)
}

func (s *PostgresStore) scan(row *sql.Row, label string) (ranking.Config, error) {
	var (
		version string
		raw     []byte
	)
	if err := row.Scan(&version, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ranking.Config{}, fmt.Errorf("%w: %s", ErrNotFound, label)
		}
		return ranking.Config{}, fmt.Errorf("query weight set %s: %w", label, err)
	}
	return Decode(version, raw)
}

// Decode reads a stored weight set. Fields missing from raw keep their defaults,
// except Weights, which must be given in full. The row's version always wins over
// any version inside the document.
func Decode(version string, raw []byte) (ranking.Config, error) {
	cfg := ranking.DefaultConfig()
	cfg.Weights = ranking.Weights{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ranking.Config{}, fmt.Errorf("decode weight set %s: %w", version, err)
	}
	cfg.Version = version
	return cfg, nil
}

// Publish validates cfg, stores it under cfg.Version and makes it the only active set.
func (s *PostgresStore) Publish(ctx context.Context, cfg ranking.Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("%w: version is required", ranking.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode weight set %s: %w", cfg.Version, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, deactivateStmt); err != nil {
		return fmt.Errorf("deactivate weight sets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insertStmt, cfg.Version, raw); err != nil {
		return fmt.Errorf("insert weight set %s: %w", cfg.Version, err)
	}
	return tx.Commit()
}
