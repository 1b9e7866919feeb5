package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
)

// Artifact is an open, seekable job file with the metadata transports need
// to serve byte ranges.
type Artifact struct {
	*os.File
	Name    string
	Size    int64
	ModTime time.Time
}

// OpenLogs returns the job log. It is empty while the log does not exist yet.
func (m *Manager) OpenLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	job, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(job.LogsPath)
	if errors.Is(err, fs.ErrNotExist) {
		return io.NopCloser(strings.NewReader("")), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open job log: %w", err)
	}
	return f, nil
}

// OpenOutput returns the finished video. Jobs that are not done have no output.
func (m *Manager) OpenOutput(ctx context.Context, id string) (*Artifact, error) {
	job, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusDone || job.OutputPath == "" {
		return nil, fmt.Errorf("%w: job %s has no output (status %s)", ErrNotFound, id, job.Status)
	}
	return openArtifact(job.OutputPath)
}

// OpenCaptions returns the WEBVTT track of a finished job.
func (m *Manager) OpenCaptions(ctx context.Context, id string) (*Artifact, error) {
	job, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.CaptionsPath == "" {
		return nil, fmt.Errorf("%w: job %s has no captions", ErrNotFound, id)
	}
	return openArtifact(job.CaptionsPath)
}

func openArtifact(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s is missing", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	return &Artifact{
		File:    f,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
