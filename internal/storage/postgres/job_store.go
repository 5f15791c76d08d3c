// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/webaudit360/internal/audit"
)

// JobStoreConfig controls the Postgres connection pool used for audit rows.
type JobStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type queryPinger interface {
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

const (
	insertAuditSQL = `
INSERT INTO audits (url, fetched_at, raw_document)
VALUES ($1, $2, $3)
RETURNING id`

	selectAuditSQL = `
SELECT id, url, fetched_at, raw_document
FROM audits
WHERE id = $1`
)

// JobStore reads and writes audit rows in Postgres. Each statement acquires a
// pooled connection and releases it when the statement completes.
type JobStore struct {
	pool queryPinger
}

// NewPool parses cfg and opens a pgx connection pool.
func NewPool(ctx context.Context, cfg JobStoreConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
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
	return pool, nil
}

// NewJobStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewJobStoreWithPool(pool queryPinger) (*JobStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &JobStore{pool: pool}, nil
}

// Create inserts an audit row in a single statement and returns it with its ID.
func (s *JobStore) Create(ctx context.Context, url string, fetchedAt time.Time, rawDocument string) (audit.Job, error) {
	job := audit.Job{
		URL:         url,
		FetchedAt:   fetchedAt.UTC(),
		RawDocument: rawDocument,
	}
	if err := s.pool.QueryRow(ctx, insertAuditSQL, job.URL, job.FetchedAt, job.RawDocument).Scan(&job.ID); err != nil {
		return audit.Job{}, fmt.Errorf("insert audit: %w", err)
	}
	return job, nil
}

// Get selects an audit row by ID.
func (s *JobStore) Get(ctx context.Context, id int64) (audit.Job, error) {
	var job audit.Job
	err := s.pool.QueryRow(ctx, selectAuditSQL, id).Scan(&job.ID, &job.URL, &job.FetchedAt, &job.RawDocument)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return audit.Job{}, audit.ErrJobNotFound
		}
		return audit.Job{}, fmt.Errorf("select audit %d: %w", id, err)
	}
	job.FetchedAt = job.FetchedAt.UTC()
	return job, nil
}

// Ping checks that a pooled connection can reach the server.
func (s *JobStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *JobStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
