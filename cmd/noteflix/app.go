package main

import (
	"fmt"

	"github.com/nguyentantai21042004/noteflix/internal/config"
	"github.com/nguyentantai21042004/noteflix/internal/jobs"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
	"github.com/nguyentantai21042004/noteflix/internal/processor"
	"github.com/nguyentantai21042004/noteflix/internal/scriptgen"
	"github.com/nguyentantai21042004/noteflix/internal/store"
	"github.com/nguyentantai21042004/noteflix/pkg/executor"
)

// app is the wired service graph shared by every command.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	executor executor.Executor
	store    *store.Store
	jobs     *jobs.Manager
}

func (c *commandContext) openApp() (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	log := c.logger

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	script, err := scriptgen.New(cfg.LLM, log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("script generator: %w", err)
	}

	exec := executor.New()
	proc := processor.New(cfg, processor.Deps{Executor: exec, Script: script}, log)

	return &app{
		cfg:      cfg,
		log:      log,
		executor: exec,
		store:    st,
		jobs:     jobs.New(cfg, st, proc, log),
	}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.log.Sync()
}
