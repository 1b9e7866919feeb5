package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/store"
)

var (
	// ErrNotFound is returned for unknown jobs and unavailable artifacts.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a job or asset request is rejected.
	ErrInvalidInput = errors.New("invalid input")
)

// Store is the persistence the manager needs.
type Store interface {
	CreateAsset(ctx context.Context, a *domain.Asset) error
	GetAsset(ctx context.Context, id string) (*domain.Asset, error)
	InsertJob(ctx context.Context, j *domain.Job) error
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	ListJobs(ctx context.Context, owner string, limit int) ([]*domain.Job, error)
	JobsByStatus(ctx context.Context, status domain.JobStatus) ([]*domain.Job, error)
	MarkRunning(ctx context.Context, id string, startedAt time.Time) (bool, error)
	Finish(ctx context.Context, id string, out store.Outcome) (bool, error)
	FailPending(ctx context.Context, id string, finishedAt time.Time) (bool, error)
	SaveChapters(ctx context.Context, jobID string, chapters []domain.Chapter) error
	Chapters(ctx context.Context, jobID string) ([]domain.Chapter, error)
}
