package scriptgen

import (
	"fmt"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/config"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
)

type implSynthesizer struct {
	generator Generator
	model     string
	logger    logger.Logger
}

// New creates a Synthesizer backed by the provider named in cfg.
func New(cfg config.LLMConfig, log logger.Logger) (Synthesizer, error) {
	var gen Generator
	switch cfg.Provider {
	case "", "ollama":
		gen = NewOllama(cfg.BaseURL, cfg.Model, cfg.Temperature, time.Duration(cfg.TimeoutSeconds)*time.Second)
	case "gemini":
		gen = NewGemini(cfg.APIKeys, cfg.Model, log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	return NewWithGenerator(gen, cfg.Model, log), nil
}

// NewWithGenerator wires an explicit backend.
func NewWithGenerator(gen Generator, model string, log logger.Logger) Synthesizer {
	return &implSynthesizer{
		generator: gen,
		model:     model,
		logger:    log,
	}
}
