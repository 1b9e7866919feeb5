package domain

import "time"

// JobStatus is the lifecycle state of a pipeline job.
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusFailed
}

// AssetKind distinguishes multi-page documents from single images.
type AssetKind string

const (
	AssetKindDocument AssetKind = "document"
	AssetKindImage    AssetKind = "image"
)

// Dialogue selects single narrator or two-speaker narration.
type Dialogue string

const (
	DialogueSolo Dialogue = "solo"
	DialogueDuet Dialogue = "duet"
)

// Params are the user-selected options of a job.
type Params struct {
	Style         string   `json:"style"`
	Duration      int      `json:"duration"`
	Dialogue      Dialogue `json:"dialogue"`
	EncodeProfile string   `json:"encodeProfile"`
}

// Asset is an uploaded source document or image.
type Asset struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	Kind         AssetKind `json:"kind"`
	Path         string    `json:"path"`
	OriginalName string    `json:"originalName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Job is the persisted record of one pipeline execution.
type Job struct {
	ID             string     `json:"id"`
	AssetID        string     `json:"assetId"`
	Owner          string     `json:"owner"`
	Params         Params     `json:"params"`
	Status         JobStatus  `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	ComputeSeconds int        `json:"computeSeconds"`
	OutputPath     string     `json:"outputPath,omitempty"`
	CaptionsPath   string     `json:"captionsPath,omitempty"`
	LogsPath       string     `json:"logsPath"`
	WorkDir        string     `json:"-"`
	OutputDir      string     `json:"-"`
}

// Chapter marks the span of one slide in a finished video.
type Chapter struct {
	JobID    string  `json:"jobId"`
	Index    int     `json:"index"`
	StartSec float64 `json:"startSec"`
	EndSec   float64 `json:"endSec"`
	Title    string  `json:"title"`
}
