package scriptgen

import (
	"context"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
)

// Generator is a text-generation backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Synthesizer turns extracted notes into a spoken-word script. It never fails:
// on any backend problem it returns the fallback script.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) Script
}

// Request describes the script to write.
type Request struct {
	Notes           string
	DurationSeconds int
	Dialogue        domain.Dialogue
	Style           string
}

// Script is the synthesizer outcome. Err is set when Fallback is true.
type Script struct {
	Text     string
	Prompt   string
	Fallback bool
	Err      error
}
