package processor

import (
	"context"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/joblog"
)

// Processor runs the stage sequence of one job. It never writes job state:
// the outcome and the error are reported back to the caller.
type Processor interface {
	Process(ctx context.Context, task Task) (Outcome, error)
}

// Task is one job handed to the pipeline.
type Task struct {
	Job   domain.Job
	Asset domain.Asset
	Log   *joblog.Log
}

// Outcome describes the artifacts of a successful run.
type Outcome struct {
	OutputPath     string
	CaptionsPath   string
	TranscriptPath string
	PublishedURL   string
	Chapters       []domain.Chapter
	SlideCount     int
	Narrated       bool
	ScriptFallback bool
}
