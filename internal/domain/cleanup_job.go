package domain

import (
	"fmt"
	"time"
)

// CleanupJobStatus represents the status of a cleanup job
type CleanupJobStatus string

const (
	CleanupJobStatusPending    CleanupJobStatus = "pending"
	CleanupJobStatusProcessing CleanupJobStatus = "processing"
	CleanupJobStatusCompleted  CleanupJobStatus = "completed"
	CleanupJobStatusFailed     CleanupJobStatus = "failed"
)

// CleanupTarget names the store a cleanup job must purge.
type CleanupTarget string

const (
	CleanupTargetVector   CleanupTarget = "vector"
	CleanupTargetDocStore CleanupTarget = "docstore"
)

// CleanupJob is a deferred deletion of a document's chunks from one store,
// recorded when a compensating delete could not complete inline.
type CleanupJob struct {
	ID          string
	ParentID    string
	PublicID    string
	Target      CleanupTarget
	Status      CleanupJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
	// ClaimedAt is when a worker last took the job; nil until claimed.
	ClaimedAt *time.Time
}

// NewCleanupJob creates a pending CleanupJob
func NewCleanupJob(id, parentID, publicID string, target CleanupTarget, createdAt time.Time) *CleanupJob {
	return &CleanupJob{
		ID:        id,
		ParentID:  parentID,
		PublicID:  publicID,
		Target:    target,
		Status:    CleanupJobStatusPending,
		CreatedAt: createdAt,
	}
}

// ValidateCleanupJob validates a CleanupJob instance
func ValidateCleanupJob(j *CleanupJob) error {
	if j == nil {
		return fmt.Errorf("cleanup job cannot be nil")
	}
	if j.ID == "" {
		return fmt.Errorf("cleanup job ID is required")
	}
	if j.ParentID == "" {
		return fmt.Errorf("cleanup job ParentID is required")
	}
	if !isValidCleanupTarget(j.Target) {
		return ErrInvalidJobTarget
	}
	if !isValidCleanupJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}
	if j.Retries < 0 {
		return fmt.Errorf("cleanup job Retries cannot be negative")
	}
	return nil
}

func isValidCleanupJobStatus(s CleanupJobStatus) bool {
	switch s {
	case CleanupJobStatusPending, CleanupJobStatusProcessing,
		CleanupJobStatusCompleted, CleanupJobStatusFailed:
		return true
	}
	return false
}

func isValidCleanupTarget(t CleanupTarget) bool {
	return t == CleanupTargetVector || t == CleanupTargetDocStore
}
