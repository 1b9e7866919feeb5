package scriptgen

import (
	"context"
	"errors"
	"strings"
)

var errEmptyScript = errors.New("generator returned an empty script")

// Synthesize builds the prompt, calls the backend and falls back on failure
func (s *implSynthesizer) Synthesize(ctx context.Context, req Request) Script {
	prompt := BuildPrompt(req)

	s.logger.Info(ctx, "Generating script with model %s (%d words target)", s.model, TargetWords(ClampDuration(req.DurationSeconds)))

	text, err := s.generator.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyScript
	}
	if err != nil {
		s.logger.Warn(ctx, "Script generation failed, using fallback: %v", err)
		return Script{Text: FallbackScript, Prompt: prompt, Fallback: true, Err: err}
	}

	return Script{Text: text, Prompt: prompt}
}
