// Package postgres provides a Postgres-backed vacancy sink.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkarmanov/vacancy-harvester/internal/clock/system"
	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for vacancy rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Store writes vacancy documents into Postgres with replace semantics:
// one JSONB row per vacancy, keyed by the external id.
type Store struct {
	pool  execCloser
	table string
	clock harvest.Clock
}

// NewStore creates a Postgres-backed Store using the provided config.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sink.postgres.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "vacancies"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool, table: table, clock: system.New()}, nil
}

// NewStoreWithPool constructs a Store from an existing pool (primarily for
// testing).
func NewStoreWithPool(pool execCloser, table string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "vacancies"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Store{pool: pool, table: table, clock: system.New()}, nil
}

// Upsert inserts or replaces the row for record.ID. Concurrent calls for
// the same id resolve to the later write.
func (s *Store) Upsert(ctx context.Context, record *harvest.VacancyRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("postgres sink is not configured")
	}
	if record == nil || record.ID == "" {
		return fmt.Errorf("record id is required")
	}
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, harvested_at, doc)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET
	harvested_at = EXCLUDED.harvested_at,
	doc = EXCLUDED.doc`, s.table)
	if _, err := s.pool.Exec(ctx, query, record.ID, s.clock.Now(), doc); err != nil {
		return fmt.Errorf("upsert vacancy %s: %w", record.ID, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Store) Close(context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
