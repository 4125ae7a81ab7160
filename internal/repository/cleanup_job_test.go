//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/admitbot/internal/domain"
	"github.com/cloo-solutions/admitbot/internal/jobs"
)

func TestCleanupJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewCleanupJobRepository(setupPool(ctx, t))

	job := domain.NewCleanupJob(uuid.NewString(), "doc-1", "pub-1", domain.CleanupTargetVector, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Create(ctx, job))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CleanupTargetVector, got.Target)
	assert.Equal(t, domain.CleanupJobStatusPending, got.Status)
	assert.Empty(t, got.Error)
	assert.Nil(t, got.ProcessedAt)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrCleanupJobNotFound)
}

func TestCleanupJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	repo := NewCleanupJobRepository(setupPool(ctx, t))

	for range 3 {
		job := domain.NewCleanupJob(uuid.NewString(), "doc-1", "pub-1", domain.CleanupTargetDocStore, time.Now().UTC())
		require.NoError(t, repo.Create(ctx, job))
	}

	claimed, err := repo.ClaimPending(ctx, 2, time.Hour)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, j := range claimed {
		assert.Equal(t, domain.CleanupJobStatusProcessing, j.Status)
		assert.NotNil(t, j.ClaimedAt)
	}

	rest, err := repo.ClaimPending(ctx, 10, time.Hour)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	none, err := repo.ClaimPending(ctx, 10, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, none)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.CleanupJobStatusProcessing])
}

func TestCleanupJobRepository_ClaimPending_ReclaimsExpiredLease(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	repo := NewCleanupJobRepository(pool)

	job := domain.NewCleanupJob(uuid.NewString(), "doc-1", "pub-1", domain.CleanupTargetVector, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, job))

	claimed, err := repo.ClaimPending(ctx, 10, time.Hour)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	none, err := repo.ClaimPending(ctx, 10, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = pool.Exec(ctx, `UPDATE cleanup_jobs SET claimed_at = NOW() - INTERVAL '2 hours' WHERE id = $1`, job.ID)
	require.NoError(t, err)

	reclaimed, err := repo.ClaimPending(ctx, 10, time.Hour)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, job.ID, reclaimed[0].ID)
	assert.WithinDuration(t, time.Now(), *reclaimed[0].ClaimedAt, time.Minute)
}

func TestCleanupJobRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewCleanupJobRepository(setupPool(ctx, t))

	job := domain.NewCleanupJob(uuid.NewString(), "doc-1", "pub-1", domain.CleanupTargetDocStore, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, job))

	require.NoError(t, repo.IncrementRetries(ctx, job.ID))
	require.NoError(t, repo.UpdateStatus(ctx, job.ID, domain.CleanupJobStatusFailed, "max retries exceeded"))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), got.Retries)
	assert.Equal(t, "max retries exceeded", got.Error)
	assert.NotNil(t, got.ProcessedAt)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.NewString(), domain.CleanupJobStatusCompleted, ""), domain.ErrCleanupJobNotFound)
	assert.ErrorIs(t, repo.IncrementRetries(ctx, uuid.NewString()), domain.ErrCleanupJobNotFound)
}

func TestTxRunner_RollsBack(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	repo := NewCleanupJobRepository(pool)

	job := domain.NewCleanupJob(uuid.NewString(), "doc-1", "pub-1", domain.CleanupTargetDocStore, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, job))

	boom := errors.New("boom")
	err := NewTxRunner(pool).WithTx(ctx, func(repos jobs.TxRepositories) error {
		require.NoError(t, repos.CleanupJobs().IncrementRetries(ctx, job.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.Retries)
}
