package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/metrics"
)

const (
	// MaxRetries is the maximum number of attempts for a cleanup job
	MaxRetries = 3
	// DefaultBatchSize bounds how many jobs one poll claims
	DefaultBatchSize = 50
	// DefaultLease is how long a claimed job may stay in processing
	// before another poll takes it over. It must outlast a full batch.
	DefaultLease = 15 * time.Minute
)

// CleanupJobRepository defines the interface for cleanup job persistence
type CleanupJobRepository interface {
	// ClaimPending moves pending jobs, and processing jobs whose lease
	// expired, to processing and returns them
	ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*domain.CleanupJob, error)

	// UpdateStatus updates the status of a cleanup job
	UpdateStatus(ctx context.Context, id string, status domain.CleanupJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// TxRepositories exposes repositories bound to one transaction.
type TxRepositories interface {
	CleanupJobs() CleanupJobRepository
}

// TxRunner runs fn inside a transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// Purger removes a document's chunks from the store a job targets.
type Purger interface {
	Purge(ctx context.Context, job *domain.CleanupJob) error
}

// CleanupWorker drains cleanup jobs left behind by failed compensations.
type CleanupWorker struct {
	repo      CleanupJobRepository
	tx        TxRunner
	purger    Purger
	batchSize int
	lease     time.Duration
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewCleanupWorker creates a new CleanupWorker instance
func NewCleanupWorker(repo CleanupJobRepository, tx TxRunner, purger Purger, logger zerolog.Logger, m *metrics.Metrics) *CleanupWorker {
	if m == nil {
		m = metrics.NewNop()
	}
	return &CleanupWorker{
		repo:      repo,
		tx:        tx,
		purger:    purger,
		batchSize: DefaultBatchSize,
		lease:     DefaultLease,
		logger:    logger,
		metrics:   m,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *CleanupWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, w.batchSize, w.lease)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	w.logger.Info().Int("count", len(jobs)).Msg("processing cleanup jobs")

	for i, job := range jobs {
		if ctx.Err() != nil {
			w.release(ctx, jobs[i:])
			return nil
		}
		if err := w.processJob(ctx, job); err != nil {
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("error processing cleanup job")
		}
	}

	return nil
}

func (w *CleanupWorker) processJob(ctx context.Context, job *domain.CleanupJob) error {
	log := w.logger.With().
		Str("job_id", job.ID).
		Str("parent_id", job.ParentID).
		Str("target", string(job.Target)).
		Logger()

	if err := w.purger.Purge(ctx, job); err != nil {
		if ctx.Err() != nil {
			w.release(ctx, []*domain.CleanupJob{job})
			return err
		}
		return w.handleJobFailure(context.WithoutCancel(ctx), job, err)
	}

	if err := w.repo.UpdateStatus(context.WithoutCancel(ctx), job.ID, domain.CleanupJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	w.metrics.CleanupJobsTotal.WithLabelValues("completed").Inc()
	log.Info().Msg("cleanup job completed")
	return nil
}

// release hands claimed jobs back to the queue without counting an
// attempt. Used on shutdown; a job it cannot release is reclaimed once
// its lease expires.
func (w *CleanupWorker) release(ctx context.Context, jobs []*domain.CleanupJob) {
	ctx = context.WithoutCancel(ctx)
	for _, job := range jobs {
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.CleanupJobStatusPending, job.Error); err != nil {
			w.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to release cleanup job")
			continue
		}
		w.metrics.CleanupJobsTotal.WithLabelValues("released").Inc()
	}
}

// handleJobFailure records the attempt and either re-queues the job or
// marks it failed, atomically.
func (w *CleanupWorker) handleJobFailure(ctx context.Context, job *domain.CleanupJob, jobErr error) error {
	attempt := job.Retries + 1
	exhausted := attempt >= MaxRetries

	status := domain.CleanupJobStatusPending
	errMsg := fmt.Sprintf("retry %d: %v", attempt, jobErr)
	if exhausted {
		status = domain.CleanupJobStatusFailed
		errMsg = fmt.Sprintf("max retries exceeded: %v", jobErr)
	}

	err := w.tx.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.CleanupJobs().IncrementRetries(ctx, job.ID); err != nil {
			return fmt.Errorf("failed to increment retries: %w", err)
		}
		if err := repos.CleanupJobs().UpdateStatus(ctx, job.ID, status, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to %s: %w", status, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if exhausted {
		w.metrics.CleanupJobsTotal.WithLabelValues("failed").Inc()
		w.logger.Error().Err(jobErr).Str("job_id", job.ID).Int("max_retries", MaxRetries).Msg("cleanup job exceeded max retries")
		return nil
	}

	w.metrics.CleanupJobsTotal.WithLabelValues("retried").Inc()
	w.logger.Warn().Err(jobErr).Str("job_id", job.ID).Int32("attempt", attempt).Int("max_retries", MaxRetries).Msg("cleanup job will be retried")
	return nil
}
