package jobs

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/joblog"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
	"github.com/nguyentantai21042004/noteflix/internal/processor"
	"github.com/nguyentantai21042004/noteflix/internal/store"
)

// dispatch runs the job on its own goroutine. Jobs waiting for a slot stay pending.
func (m *Manager) dispatch(job domain.Job, asset domain.Asset) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx := logger.WithJobID(context.Background(), job.ID)
		if err := m.sem.acquire(ctx); err != nil {
			m.logger.Error(ctx, "Job %s never started: %v", job.ID, err)
			return
		}
		defer m.sem.release()

		m.run(ctx, job, asset)
	}()
}

// run drives one job from pending to a terminal state.
func (m *Manager) run(ctx context.Context, job domain.Job, asset domain.Asset) {
	log, err := joblog.Open(job.LogsPath)
	if err != nil {
		m.logger.Warn(ctx, "Job log unavailable: %v", err)
	}
	defer log.Close()

	start := m.now().UTC()
	ok, err := m.store.MarkRunning(ctx, job.ID, start)
	if err != nil {
		m.logger.Error(ctx, "Failed to start job %s: %v", job.ID, err)
		return
	}
	if !ok {
		m.logger.Warn(ctx, "Job %s is no longer pending, skipping", job.ID)
		return
	}
	job.Status = domain.JobStatusRunning
	job.StartedAt = &start

	out, perr := m.process(ctx, job, asset, log)
	if perr == nil {
		if info, statErr := os.Stat(out.OutputPath); statErr != nil || info.IsDir() {
			perr = fmt.Errorf("ffmpeg failed to produce output")
		}
	}

	finished := m.now().UTC()
	outcome := store.Outcome{
		FinishedAt:     finished,
		ComputeSeconds: computeSeconds(start, finished),
	}

	if perr != nil {
		log.Printf("FAILED: %v", perr)
		outcome.Status = domain.JobStatusFailed
		m.logger.Error(ctx, "Job %s failed after %ds: %v", job.ID, outcome.ComputeSeconds, perr)
	} else {
		if err := m.store.SaveChapters(ctx, job.ID, out.Chapters); err != nil {
			m.logger.Warn(ctx, "Failed to save chapters: %v", err)
		}
		outcome.Status = domain.JobStatusDone
		outcome.OutputPath = out.OutputPath
		outcome.CaptionsPath = out.CaptionsPath
		log.Printf("JOB DONE in %ds", outcome.ComputeSeconds)
		m.logger.Info(ctx, "Job %s done in %ds", job.ID, outcome.ComputeSeconds)
	}

	if ok, err := m.store.Finish(ctx, job.ID, outcome); err != nil || !ok {
		m.logger.Error(ctx, "Failed to record outcome of job %s (applied=%v): %v", job.ID, ok, err)
	}
}

// process calls the pipeline and turns a panic into a job failure.
func (m *Manager) process(ctx context.Context, job domain.Job, asset domain.Asset, log *joblog.Log) (out processor.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return m.proc.Process(ctx, processor.Task{Job: job, Asset: asset, Log: log})
}

// computeSeconds is wall-clock time rounded to whole seconds.
func computeSeconds(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Seconds()))
}
