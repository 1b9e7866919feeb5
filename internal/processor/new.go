package processor

import (
	"github.com/nguyentantai21042004/noteflix/internal/assembler"
	"github.com/nguyentantai21042004/noteflix/internal/config"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
	"github.com/nguyentantai21042004/noteflix/internal/publisher"
	"github.com/nguyentantai21042004/noteflix/internal/scriptgen"
	"github.com/nguyentantai21042004/noteflix/internal/speech"
	"github.com/nguyentantai21042004/noteflix/internal/toolchain"
	"github.com/nguyentantai21042004/noteflix/pkg/executor"
)

// Deps are the stage collaborators of the pipeline.
type Deps struct {
	Executor  executor.Executor
	Script    scriptgen.Synthesizer
	Speech    speech.Synthesizer
	Assembler assembler.Assembler
	Publisher publisher.Publisher
}

type implProcessor struct {
	cfg       *config.Config
	tools     toolchain.Tools
	executor  executor.Executor
	script    scriptgen.Synthesizer
	speech    speech.Synthesizer
	assembler assembler.Assembler
	publisher publisher.Publisher
	logger    logger.Logger
}

// New creates a new Processor instance
func New(cfg *config.Config, deps Deps, log logger.Logger) Processor {
	tools := toolchain.FromConfig(cfg.Tools)
	if deps.Speech == nil {
		deps.Speech = speech.New(deps.Executor, tools, cfg.Speech, log)
	}
	if deps.Assembler == nil {
		deps.Assembler = assembler.New(deps.Executor, tools, log)
	}
	if deps.Publisher == nil {
		deps.Publisher = publisher.New(cfg.Storage.S3, log)
	}
	return &implProcessor{
		cfg:       cfg,
		tools:     tools,
		executor:  deps.Executor,
		script:    deps.Script,
		speech:    deps.Speech,
		assembler: deps.Assembler,
		publisher: deps.Publisher,
		logger:    log,
	}
}
