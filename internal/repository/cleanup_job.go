package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// CleanupJobRepository persists deferred store deletions.
type CleanupJobRepository struct {
	db dbtx
}

func NewCleanupJobRepository(pool *pgxpool.Pool) *CleanupJobRepository {
	return &CleanupJobRepository{db: pool}
}

func NewCleanupJobRepositoryWithTx(tx pgx.Tx) *CleanupJobRepository {
	return &CleanupJobRepository{db: tx}
}

const cleanupJobColumns = `id, parent_id, public_id, target, status, retries, error, created_at, processed_at, claimed_at`

func (r *CleanupJobRepository) Create(ctx context.Context, job *domain.CleanupJob) error {
	if err := domain.ValidateCleanupJob(job); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO cleanup_jobs (`+cleanupJobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.ParentID, job.PublicID, job.Target, job.Status, job.Retries,
		nullableString(job.Error), job.CreatedAt, job.ProcessedAt, job.ClaimedAt,
	)
	return err
}

func (r *CleanupJobRepository) GetByID(ctx context.Context, id string) (*domain.CleanupJob, error) {
	job, err := scanCleanupJob(r.db.QueryRow(ctx,
		`SELECT `+cleanupJobColumns+` FROM cleanup_jobs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCleanupJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimPending moves up to limit pending jobs to processing and returns
// them. Jobs stuck in processing for longer than lease, left by a worker
// that crashed or stopped mid-batch, are claimed again. Concurrent
// workers never claim the same job.
func (r *CleanupJobRepository) ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*domain.CleanupJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM cleanup_jobs
			 WHERE status = $1
			    OR (status = $3 AND claimed_at < NOW() - make_interval(secs => $4))
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE cleanup_jobs
		 SET status = $3,
		     claimed_at = NOW(),
		     processed_at = NULL
		 FROM cte
		 WHERE cleanup_jobs.id = cte.id
		 RETURNING cleanup_jobs.id, cleanup_jobs.parent_id, cleanup_jobs.public_id, cleanup_jobs.target,
		           cleanup_jobs.status, cleanup_jobs.retries, cleanup_jobs.error, cleanup_jobs.created_at,
		           cleanup_jobs.processed_at, cleanup_jobs.claimed_at`,
		domain.CleanupJobStatusPending, limit, domain.CleanupJobStatusProcessing, lease.Seconds(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.CleanupJob
	for rows.Next() {
		job, err := scanCleanupJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *CleanupJobRepository) UpdateStatus(ctx context.Context, id string, status domain.CleanupJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.CleanupJobStatusCompleted || status == domain.CleanupJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE cleanup_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCleanupJobNotFound
	}
	return nil
}

func (r *CleanupJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE cleanup_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCleanupJobNotFound
	}
	return nil
}

// CountByStatus reports queue depth per status.
func (r *CleanupJobRepository) CountByStatus(ctx context.Context) (map[domain.CleanupJobStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM cleanup_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.CleanupJobStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.CleanupJobStatus(status)] = n
	}
	return out, rows.Err()
}

func scanCleanupJob(row pgx.Row) (*domain.CleanupJob, error) {
	var job domain.CleanupJob
	var target, status string
	var errMsg pgtype.Text
	if err := row.Scan(&job.ID, &job.ParentID, &job.PublicID, &target, &status, &job.Retries,
		&errMsg, &job.CreatedAt, &job.ProcessedAt, &job.ClaimedAt); err != nil {
		return nil, err
	}
	job.Target = domain.CleanupTarget(target)
	job.Status = domain.CleanupJobStatus(status)
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}
