package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
)

const jobColumns = "id, asset_id, owner, style, duration, dialogue, encode_profile, status, created_at, started_at, finished_at, compute_seconds, output_path, captions_path, logs_path, work_dir, output_dir"

// Outcome is the terminal record written when a running job finishes.
type Outcome struct {
	Status         domain.JobStatus
	FinishedAt     time.Time
	ComputeSeconds int
	OutputPath     string
	CaptionsPath   string
}

// InsertJob stores a new job. The job must be pending.
func (s *Store) InsertJob(ctx context.Context, j *domain.Job) error {
	if j == nil {
		return errors.New("job is nil")
	}
	if j.Status != domain.JobStatusPending {
		return fmt.Errorf("insert job: status must be %s, got %s", domain.JobStatusPending, j.Status)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.AssetID, j.Owner,
		j.Params.Style, j.Params.Duration, j.Params.Dialogue, j.Params.EncodeProfile,
		j.Status, formatTime(j.CreatedAt), nullableTime(j.StartedAt), nullableTime(j.FinishedAt),
		j.ComputeSeconds, nullableString(j.OutputPath), nullableString(j.CaptionsPath),
		j.LogsPath, j.WorkDir, j.OutputDir,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob fetches a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

// ListJobs returns an owner's jobs, most recent first. An empty owner lists every job.
func (s *Store) ListJobs(ctx context.Context, owner string, limit int) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var args []any
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	return s.queryJobs(ctx, query, args...)
}

// JobsByStatus returns jobs in status, oldest first.
func (s *Store) JobsByStatus(ctx context.Context, status domain.JobStatus) ([]*domain.Job, error) {
	return s.queryJobs(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at, rowid`, status)
}

// MarkRunning moves a pending job to running. It reports false when the job
// was not pending.
func (s *Store) MarkRunning(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?`,
		domain.JobStatusRunning, formatTime(startedAt), id, domain.JobStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark running: %w", err)
	}
	return affected(res)
}

// Finish records the terminal outcome of a running job in one statement. It
// reports false when the job was not running.
func (s *Store) Finish(ctx context.Context, id string, out Outcome) (bool, error) {
	switch out.Status {
	case domain.JobStatusDone:
		if out.OutputPath == "" {
			return false, errors.New("finish: done requires an output path")
		}
	case domain.JobStatusFailed:
		out.OutputPath = ""
	default:
		return false, fmt.Errorf("finish: %s is not a terminal status", out.Status)
	}

	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, finished_at = ?, compute_seconds = ?, output_path = ?, captions_path = ?
         WHERE id = ? AND status = ?`,
		out.Status, formatTime(out.FinishedAt), out.ComputeSeconds,
		nullableString(out.OutputPath), nullableString(out.CaptionsPath),
		id, domain.JobStatusRunning,
	)
	if err != nil {
		return false, fmt.Errorf("finish job: %w", err)
	}
	return affected(res)
}

// FailPending fails a job that never started.
func (s *Store) FailPending(ctx context.Context, id string, finishedAt time.Time) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, finished_at = ? WHERE id = ? AND status = ?`,
		domain.JobStatusFailed, formatTime(finishedAt), id, domain.JobStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("fail pending job: %w", err)
	}
	return affected(res)
}

func (s *Store) queryJobs(ctx context.Context, query string, args ...any) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*domain.Job, error) {
	var (
		j            domain.Job
		dialogue     string
		status       string
		createdRaw   string
		startedRaw   sql.NullString
		finishedRaw  sql.NullString
		outputPath   sql.NullString
		captionsPath sql.NullString
	)
	if err := scanner.Scan(
		&j.ID,
		&j.AssetID,
		&j.Owner,
		&j.Params.Style,
		&j.Params.Duration,
		&dialogue,
		&j.Params.EncodeProfile,
		&status,
		&createdRaw,
		&startedRaw,
		&finishedRaw,
		&j.ComputeSeconds,
		&outputPath,
		&captionsPath,
		&j.LogsPath,
		&j.WorkDir,
		&j.OutputDir,
	); err != nil {
		return nil, err
	}

	j.Params.Dialogue = domain.Dialogue(dialogue)
	j.Status = domain.JobStatus(status)
	j.OutputPath = outputPath.String
	j.CaptionsPath = captionsPath.String
	if created, err := parseTime(createdRaw); err == nil {
		j.CreatedAt = created
	}
	j.StartedAt = parseNullTime(startedRaw)
	j.FinishedAt = parseNullTime(finishedRaw)
	return &j, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
