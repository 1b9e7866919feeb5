package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/joblog"
	"github.com/nguyentantai21042004/noteflix/internal/store"
)

// RecoverStats summarizes what Recover did.
type RecoverStats struct {
	Interrupted int
	Requeued    int
}

// Recover settles jobs left behind by a previous process: running jobs are
// failed as interrupted and pending jobs are dispatched again.
func (m *Manager) Recover(ctx context.Context) (RecoverStats, error) {
	var stats RecoverStats

	running, err := m.store.JobsByStatus(ctx, domain.JobStatusRunning)
	if err != nil {
		return stats, fmt.Errorf("list running jobs: %w", err)
	}
	now := m.now().UTC()
	for _, job := range running {
		outcome := store.Outcome{Status: domain.JobStatusFailed, FinishedAt: now}
		if job.StartedAt != nil {
			outcome.ComputeSeconds = computeSeconds(*job.StartedAt, now)
		}
		appendFailure(job.LogsPath, "interrupted by shutdown")
		if ok, err := m.store.Finish(ctx, job.ID, outcome); err != nil {
			return stats, fmt.Errorf("fail interrupted job %s: %w", job.ID, err)
		} else if ok {
			stats.Interrupted++
		}
	}

	pending, err := m.store.JobsByStatus(ctx, domain.JobStatusPending)
	if err != nil {
		return stats, fmt.Errorf("list pending jobs: %w", err)
	}
	for _, job := range pending {
		asset, err := m.store.GetAsset(ctx, job.AssetID)
		if errors.Is(err, store.ErrNotFound) {
			m.logger.Warn(ctx, "Asset %s of pending job %s is gone", job.AssetID, job.ID)
			appendFailure(job.LogsPath, fmt.Sprintf("asset %s no longer exists", job.AssetID))
			if _, err := m.store.FailPending(ctx, job.ID, now); err != nil {
				m.logger.Error(ctx, "Failed to fail orphaned job %s: %v", job.ID, err)
			}
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("lookup asset of job %s: %w", job.ID, err)
		}
		m.dispatch(*job, *asset)
		stats.Requeued++
	}

	if stats.Interrupted > 0 || stats.Requeued > 0 {
		m.logger.Info(ctx, "Recovered jobs: %d interrupted, %d requeued", stats.Interrupted, stats.Requeued)
	}
	return stats, nil
}

// appendFailure writes the terminal FAILED line to a job log that no worker owns.
func appendFailure(path, reason string) {
	if log, err := joblog.Open(path); err == nil {
		log.Printf("FAILED: %s", reason)
		log.Close()
	}
}
