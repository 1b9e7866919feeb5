package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/noteflix/internal/httpapi"
	"github.com/nguyentantai21042004/noteflix/internal/toolchain"
	"github.com/nguyentantai21042004/noteflix/internal/watcher"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the job API, the inbox watcher and the job workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if bind != "" {
				a.cfg.Server.Bind = bind
			}
			return serve(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}

func serve(parent context.Context, a *app) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lock := flock.New(a.cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another noteflix server is using %s", a.cfg.Paths.DataRoot)
	}
	defer lock.Unlock()

	log := a.log
	log.Info(ctx, "========================================")
	log.Info(ctx, "NoteFlix media pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s, %d CPUs", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	log.Info(ctx, "Data root: %s", a.cfg.Paths.DataRoot)
	if a.cfg.Jobs.MaxConcurrent > 0 {
		log.Info(ctx, "Max concurrent jobs: %d", a.cfg.Jobs.MaxConcurrent)
	} else {
		log.Info(ctx, "Max concurrent jobs: unbounded")
	}
	checkTools(ctx, a)

	stats, err := a.jobs.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover jobs: %w", err)
	}
	log.Info(ctx, "Startup recovery: %d interrupted, %d requeued", stats.Interrupted, stats.Requeued)

	srv := httpapi.New(a.cfg.Server.Bind, a.jobs, log)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	watcherDone := make(chan struct{})
	if dir := a.cfg.Inbox.Dir; dir != "" {
		handler := watcher.Ingest(a.jobs, a.cfg.Inbox.Owner, log)
		w, err := watcher.New(dir, handler, log, watcher.Options{})
		if err != nil {
			return fmt.Errorf("inbox watcher: %w", err)
		}
		defer w.Stop()
		go func() {
			defer close(watcherDone)
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errChan <- err
			}
		}()
	} else {
		close(watcherDone)
	}

	log.Info(ctx, "Ready. Press Ctrl+C to stop")

	select {
	case <-ctx.Done():
		log.Info(ctx, "Shutdown signal received")
	case err := <-errChan:
		log.Error(ctx, "Inbox watcher error: %v", err)
	}

	stop()
	srv.Stop()
	<-watcherDone
	log.Info(context.Background(), "Waiting for running jobs to finish...")
	a.jobs.Wait()
	log.Info(context.Background(), "NoteFlix stopped")
	return nil
}

// checkTools warns about missing binaries. Stages degrade or fail per job.
func checkTools(ctx context.Context, a *app) {
	tools := toolchain.FromConfig(a.cfg.Tools)
	for _, bin := range []string{tools.Pdftoppm, tools.Pdftotext, tools.Espeak, tools.FFmpeg, tools.FFprobe} {
		if !a.executor.Available(bin) {
			a.log.Warn(ctx, "Tool not found on PATH: %s", bin)
		}
	}
}
