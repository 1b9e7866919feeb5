package processor

import (
	"context"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/scriptgen"
)

// extractNotes returns the document text, or "" when unavailable
func (p *implProcessor) extractNotes(ctx context.Context, task Task) string {
	if task.Asset.Kind != domain.AssetKindDocument {
		return ""
	}
	if !p.executor.Available(p.tools.Pdftotext) {
		task.Log.Printf("WARN: %s not found; using fallback summary prompt.", p.tools.Pdftotext)
		p.logger.Warn(ctx, "%s not available, continuing without notes", p.tools.Pdftotext)
		return ""
	}

	notesPath := filepath.Join(task.Job.WorkDir, NotesFile)
	cmd := p.tools.ExtractText(task.Asset.Path, notesPath)
	res, err := p.executor.Run(ctx, cmd)
	task.Log.Command(cmd, res)
	if err != nil || !res.Success() {
		task.Log.Printf("WARN: text extraction failed; using fallback summary prompt.")
		p.logger.Warn(ctx, "Text extraction failed (exit %d): %v", res.ExitCode, err)
		return ""
	}

	data, err := os.ReadFile(notesPath)
	if err != nil {
		task.Log.Printf("WARN: notes unreadable: %v", err)
		return ""
	}
	p.logger.Debug(ctx, "Extracted %d bytes of notes", len(data))
	return string(data)
}

// generateScript asks the synthesizer for a script and persists it verbatim
func (p *implProcessor) generateScript(ctx context.Context, task Task, notes string) (string, bool) {
	task.Log.Printf("Generating script with %s (%s)...", p.cfg.LLM.Provider, p.cfg.LLM.Model)

	script := p.script.Synthesize(ctx, scriptgen.Request{
		Notes:           notes,
		DurationSeconds: task.Job.Params.Duration,
		Dialogue:        task.Job.Params.Dialogue,
		Style:           task.Job.Params.Style,
	})
	if script.Fallback {
		task.Log.Printf("Script generation failed: %v; using fallback script.", script.Err)
	}

	if err := os.WriteFile(filepath.Join(task.Job.WorkDir, ScriptFile), []byte(script.Text), 0o644); err != nil {
		task.Log.Printf("WARN: could not persist script: %v", err)
		p.logger.Warn(ctx, "Failed to write script: %v", err)
	}
	return script.Text, script.Fallback
}
