package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webaudit360/internal/extract"
	"github.com/JakeFAU/webaudit360/internal/metrics"
)

// Service composes Fetcher, JobStore and the metrics extractor into the two
// audit operations.
type Service struct {
	fetcher Fetcher
	store   JobStore
	clock   Clock
	logger  *zap.Logger
}

// NewService constructs a Service.
func NewService(fetcher Fetcher, store JobStore, clock Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher: fetcher,
		store:   store,
		clock:   clock,
		logger:  logger,
	}
}

// CreateAudit validates rawURL, fetches it and persists the document as a new job.
// Nothing is persisted unless the fetch succeeds.
func (s *Service) CreateAudit(ctx context.Context, rawURL string) (Job, error) {
	canonical, err := CanonicalURL(rawURL)
	if err != nil {
		metrics.ObserveAudit(metrics.OutcomeInvalid)
		return Job{}, &Error{Kind: KindInvalidURL, Detail: err.Error(), Err: err}
	}

	s.logger.Debug("starting fetch", zap.String("url", canonical))
	start := time.Now()
	body, err := s.fetcher.Fetch(ctx, canonical)
	metrics.ObserveFetch(canonical, time.Since(start), len(body), err)
	if err != nil {
		metrics.ObserveAudit(metrics.OutcomeFetchFailed)
		s.logger.Warn("fetch failed", zap.String("url", canonical), zap.Error(err))
		return Job{}, &Error{Kind: KindFetchFailed, Detail: err.Error(), Err: err}
	}

	job, err := s.store.Create(ctx, canonical, s.clock.Now(), body)
	if err != nil {
		metrics.ObserveAudit(metrics.OutcomeError)
		return Job{}, fmt.Errorf("create job: %w", err)
	}
	metrics.ObserveAudit(metrics.OutcomeCreated)
	s.logger.Info("stored audit",
		zap.Int64("job_id", job.ID),
		zap.String("url", job.URL),
		zap.Int("bytes", len(body)),
	)
	return job, nil
}

// GetResult loads a job and derives its metrics report.
func (s *Service) GetResult(ctx context.Context, id int64) (Report, error) {
	if id <= 0 {
		metrics.ObserveReport(metrics.OutcomeNotFound)
		return Report{}, notFound(id, ErrJobNotFound)
	}
	job, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			metrics.ObserveReport(metrics.OutcomeNotFound)
			return Report{}, notFound(id, err)
		}
		metrics.ObserveReport(metrics.OutcomeError)
		return Report{}, fmt.Errorf("get job %d: %w", id, err)
	}
	metrics.ObserveReport(metrics.OutcomeOK)
	return Report{
		JobID:     job.ID,
		URL:       job.URL,
		FetchedAt: job.FetchedAt,
		Metrics:   extract.FromHTML(job.RawDocument),
	}, nil
}

func notFound(id int64, err error) *Error {
	return &Error{Kind: KindNotFound, Detail: fmt.Sprintf("job %d not found", id), Err: err}
}
