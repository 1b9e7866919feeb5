package watcher

import (
	"context"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
)

// Watcher defines the interface for inbox monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is a function that handles a newly dropped file
type EventHandler func(ctx context.Context, filePath string) error

// JobCreator is the part of the job manager the inbox needs.
type JobCreator interface {
	AddAsset(ctx context.Context, srcPath, owner string) (*domain.Asset, error)
	Create(ctx context.Context, assetID string, params domain.Params, owner string) (string, error)
}

// Options tunes a Watcher. Zero values fall back to defaults.
type Options struct {
	// Extensions accepted by the watcher, lower case with the leading dot.
	Extensions    []string
	MaxConcurrent int
	// SettleDelay is how long to wait after a create event before handling the file.
	SettleDelay time.Duration
}
