package audit

import (
	"context"
	"time"
)

// Fetcher retrieves a document body for a URL with a single network attempt.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// JobStore persists audit jobs and reads them back by ID.
type JobStore interface {
	// Create assigns an ID and commits the full record atomically.
	Create(ctx context.Context, url string, fetchedAt time.Time, rawDocument string) (Job, error)
	// Get returns ErrJobNotFound when no job has the given ID.
	Get(ctx context.Context, id int64) (Job, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
