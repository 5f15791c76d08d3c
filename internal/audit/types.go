// Package audit defines the audit job model and the two core operations:
// creating a job from a URL and deriving a metrics report from a stored job.
package audit

import (
	"time"

	"github.com/JakeFAU/webaudit360/internal/extract"
)

// Job is the persisted record for one audit request. Jobs are immutable once created.
type Job struct {
	ID          int64     `json:"job_id"`
	URL         string    `json:"url"`
	FetchedAt   time.Time `json:"fetched_at"`
	RawDocument string    `json:"-"`
}

// Report merges job metadata with metrics derived from the raw document.
// It is computed on every read and never stored.
type Report struct {
	JobID     int64     `json:"job_id"`
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	extract.Metrics
}
