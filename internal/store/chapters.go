package store

import (
	"context"
	"fmt"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
)

// SaveChapters replaces the chapters of a job.
func (s *Store) SaveChapters(ctx context.Context, jobID string, chapters []domain.Chapter) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chapters tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("clear chapters: %w", err)
	}
	for _, c := range chapters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chapters (job_id, idx, start_sec, end_sec, title) VALUES (?, ?, ?, ?, ?)`,
			jobID, c.Index, c.StartSec, c.EndSec, c.Title,
		); err != nil {
			return fmt.Errorf("insert chapter %d: %w", c.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chapters: %w", err)
	}
	return nil
}

// Chapters returns a job's chapters in order.
func (s *Store) Chapters(ctx context.Context, jobID string) ([]domain.Chapter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, idx, start_sec, end_sec, title FROM chapters WHERE job_id = ? ORDER BY idx`, jobID)
	if err != nil {
		return nil, fmt.Errorf("query chapters: %w", err)
	}
	defer rows.Close()

	var out []domain.Chapter
	for rows.Next() {
		var c domain.Chapter
		if err := rows.Scan(&c.JobID, &c.Index, &c.StartSec, &c.EndSec, &c.Title); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
