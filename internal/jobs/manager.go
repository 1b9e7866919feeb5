// Package jobs owns the job lifecycle: validation, dispatch, state
// transitions and artifact retrieval. It is the only writer of job records.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/noteflix/internal/assembler"
	"github.com/nguyentantai21042004/noteflix/internal/config"
	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
	"github.com/nguyentantai21042004/noteflix/internal/processor"
	"github.com/nguyentantai21042004/noteflix/internal/store"
)

const (
	DefaultStyle = "kenburns"
	DefaultOwner = "unknown"
	LogFile      = "logs.txt"
)

// Manager creates, runs and serves jobs.
type Manager struct {
	cfg    *config.Config
	store  Store
	proc   processor.Processor
	logger logger.Logger

	sem *semaphore
	wg  sync.WaitGroup
	now func() time.Time
}

// New creates a Manager. Concurrency is bounded by jobs.max_concurrent (0 = unbounded).
func New(cfg *config.Config, st Store, proc processor.Processor, log logger.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		store:  st,
		proc:   proc,
		logger: log,
		sem:    newSemaphore(cfg.Jobs.MaxConcurrent),
		now:    time.Now,
	}
}

// Create validates the request, records a pending job and dispatches it.
// It returns as soon as the job is recorded.
func (m *Manager) Create(ctx context.Context, assetID string, params domain.Params, owner string) (string, error) {
	params, err := m.normalizeParams(params)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(owner) == "" {
		owner = DefaultOwner
	}

	asset, err := m.store.GetAsset(ctx, assetID)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("%w: unknown asset %q", ErrInvalidInput, assetID)
	}
	if err != nil {
		return "", fmt.Errorf("lookup asset: %w", err)
	}

	id := uuid.NewString()
	workDir := filepath.Join(m.cfg.Paths.Work, id)
	job := &domain.Job{
		ID:        id,
		AssetID:   asset.ID,
		Owner:     owner,
		Params:    params,
		Status:    domain.JobStatusPending,
		CreatedAt: m.now().UTC(),
		LogsPath:  filepath.Join(workDir, LogFile),
		WorkDir:   workDir,
		OutputDir: filepath.Join(m.cfg.Paths.Output, id),
	}
	for _, dir := range []string{job.WorkDir, job.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if err := m.store.InsertJob(ctx, job); err != nil {
		return "", fmt.Errorf("record job: %w", err)
	}

	m.logger.Info(ctx, "Job %s created for asset %s by %s", id, asset.ID, owner)
	m.dispatch(*job, *asset)
	return id, nil
}

func (m *Manager) normalizeParams(p domain.Params) (domain.Params, error) {
	p.Style = strings.TrimSpace(p.Style)
	if p.Style == "" {
		p.Style = DefaultStyle
	}

	switch {
	case p.Duration == 0:
		p.Duration = m.cfg.Jobs.DefaultDuration
	case p.Duration < 0:
		return p, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidInput, p.Duration)
	}

	switch p.Dialogue {
	case "":
		p.Dialogue = domain.DialogueSolo
	case domain.DialogueSolo, domain.DialogueDuet:
	default:
		return p, fmt.Errorf("%w: dialogue must be solo or duet, got %q", ErrInvalidInput, p.Dialogue)
	}

	if p.EncodeProfile == "" {
		p.EncodeProfile = m.cfg.Video.DefaultProfile
	}
	if _, ok := assembler.Lookup(p.EncodeProfile); !ok {
		return p, fmt.Errorf("%w: encode profile must be one of %s, got %q",
			ErrInvalidInput, strings.Join(assembler.Names(), ", "), p.EncodeProfile)
	}
	return p, nil
}

// Get returns a job record.
func (m *Manager) Get(ctx context.Context, id string) (*domain.Job, error) {
	job, err := m.store.GetJob(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: job %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListRecent returns an owner's jobs, most recent first. limit <= 0 or above
// jobs.list_limit is capped.
func (m *Manager) ListRecent(ctx context.Context, owner string, limit int) ([]*domain.Job, error) {
	maxItems := m.cfg.Jobs.ListLimit
	if limit <= 0 || limit > maxItems {
		limit = maxItems
	}
	return m.store.ListJobs(ctx, owner, limit)
}

// Chapters returns the slide chapters of a job.
func (m *Manager) Chapters(ctx context.Context, id string) ([]domain.Chapter, error) {
	if _, err := m.Get(ctx, id); err != nil {
		return nil, err
	}
	return m.store.Chapters(ctx, id)
}

// Wait blocks until every dispatched job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
