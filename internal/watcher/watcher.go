package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
)

type implWatcher struct {
	inputDir      string
	handler       EventHandler
	logger        logger.Logger
	watcher       *fsnotify.Watcher
	extensions    map[string]bool
	settle        time.Duration
	maxConcurrent int
	semaphore     chan struct{}
	wg            sync.WaitGroup
}

// Start monitors the inbox until ctx is cancelled
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Inbox watcher started (max concurrent: %d). Monitoring: %s", w.maxConcurrent, w.inputDir)
	w.logger.Info(ctx, "Accepted formats: %s", strings.Join(w.formats(), ", "))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for inbox files in flight...")
			w.wg.Wait()
			w.logger.Info(ctx, "Inbox watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			// Only CREATE events; rewrites of an existing file are ignored
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !w.accepts(event.Name) {
				w.logger.Debug(ctx, "Ignoring unsupported file: %s", event.Name)
				continue
			}
			w.logger.Info(ctx, "New inbox file: %s", event.Name)

			select {
			case w.semaphore <- struct{}{}:
				w.wg.Add(1)
				go func(filePath string) {
					defer w.wg.Done()
					defer func() { <-w.semaphore }()

					// Give the writer a moment to finish the file
					if w.settle > 0 {
						time.Sleep(w.settle)
					}
					if err := w.handler(ctx, filePath); err != nil {
						w.logger.Error(ctx, "Failed to ingest %s: %v", filePath, err)
					}
				}(event.Name)
			case <-ctx.Done():
				w.wg.Wait()
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) accepts(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return w.extensions[strings.ToLower(filepath.Ext(path))]
}

func (w *implWatcher) formats() []string {
	out := make([]string, 0, len(w.extensions))
	for ext := range w.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Ingest returns a handler that registers each inbox file as an asset of
// owner and submits a job with default parameters.
func Ingest(jobs JobCreator, owner string, log logger.Logger) EventHandler {
	return func(ctx context.Context, filePath string) error {
		asset, err := jobs.AddAsset(ctx, filePath, owner)
		if err != nil {
			return fmt.Errorf("add asset: %w", err)
		}
		id, err := jobs.Create(ctx, asset.ID, domain.Params{}, owner)
		if err != nil {
			return fmt.Errorf("create job for asset %s: %w", asset.ID, err)
		}
		log.Info(ctx, "Inbox file %s queued as job %s", filepath.Base(filePath), id)
		return nil
	}
}
