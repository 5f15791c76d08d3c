// Package sqlite provides a file-backed JobStore on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/JakeFAU/webaudit360/internal/audit"
)

const driverName = "sqlite"

const (
	insertAuditSQL = `
INSERT INTO audits (url, fetched_at, raw_document)
VALUES (?, ?, ?)
RETURNING id`

	selectAuditSQL = `
SELECT id, url, fetched_at, raw_document
FROM audits
WHERE id = ?`
)

// pragmas are applied on every pooled connection through the DSN.
var pragmas = []string{
	"busy_timeout(10000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(ON)",
}

// Open opens (creating if needed) the database at path. ":memory:" opens a
// private in-memory database limited to a single connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	inMemory := path == ":memory:"
	if !inMemory {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}
	db, err := sql.Open(driverName, buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if inMemory {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func buildDSN(path string) string {
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

// JobStore reads and writes audit rows in SQLite.
type JobStore struct {
	db *sql.DB
}

// NewJobStore wraps an open database. The audits table must already exist.
func NewJobStore(db *sql.DB) (*JobStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &JobStore{db: db}, nil
}

// Create inserts an audit row in a single statement and returns it with its ID.
func (s *JobStore) Create(ctx context.Context, url string, fetchedAt time.Time, rawDocument string) (audit.Job, error) {
	job := audit.Job{
		URL:         url,
		FetchedAt:   fetchedAt.UTC(),
		RawDocument: rawDocument,
	}
	err := s.db.QueryRowContext(ctx, insertAuditSQL,
		job.URL,
		job.FetchedAt.Format(time.RFC3339Nano),
		job.RawDocument,
	).Scan(&job.ID)
	if err != nil {
		return audit.Job{}, fmt.Errorf("insert audit: %w", err)
	}
	return job, nil
}

// Get selects an audit row by ID.
func (s *JobStore) Get(ctx context.Context, id int64) (audit.Job, error) {
	var (
		job       audit.Job
		fetchedAt string
	)
	err := s.db.QueryRowContext(ctx, selectAuditSQL, id).Scan(&job.ID, &job.URL, &fetchedAt, &job.RawDocument)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return audit.Job{}, audit.ErrJobNotFound
		}
		return audit.Job{}, fmt.Errorf("select audit %d: %w", id, err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return audit.Job{}, fmt.Errorf("parse fetched_at for audit %d: %w", id, err)
	}
	job.FetchedAt = parsed.UTC()
	return job, nil
}

// Ping checks the database handle.
func (s *JobStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *JobStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
