// Package memory provides an in-memory JobStore for development/testing.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/webaudit360/internal/audit"
)

// JobStore keeps audit jobs in a map guarded by a RWMutex. IDs start at 1 and
// are never reused.
type JobStore struct {
	mu     sync.RWMutex
	lastID int64
	jobs   map[int64]audit.Job
}

// NewJobStore constructs a JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[int64]audit.Job),
	}
}

// Create stores a new job and returns it with its assigned ID.
func (s *JobStore) Create(_ context.Context, url string, fetchedAt time.Time, rawDocument string) (audit.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	job := audit.Job{
		ID:          s.lastID,
		URL:         url,
		FetchedAt:   fetchedAt.UTC(),
		RawDocument: rawDocument,
	}
	s.jobs[job.ID] = job
	return job, nil
}

// Get fetches a job by ID.
func (s *JobStore) Get(_ context.Context, id int64) (audit.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return audit.Job{}, audit.ErrJobNotFound
	}
	return job, nil
}

// Count returns the number of stored jobs.
func (s *JobStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Ping always succeeds.
func (s *JobStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *JobStore) Close() error {
	return nil
}
