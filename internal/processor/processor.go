package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/assembler"
	"github.com/nguyentantai21042004/noteflix/internal/captions"
	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
	"github.com/nguyentantai21042004/noteflix/internal/speech"
	"github.com/nguyentantai21042004/noteflix/internal/timing"
	"github.com/nguyentantai21042004/noteflix/internal/transcript"
)

const (
	VideoFile    = "video.mp4"
	CaptionsFile = "captions.vtt"
	ScriptFile   = "script.txt"
	NotesFile    = "notes.txt"
)

// Process orchestrates the entire pipeline for one job
func (p *implProcessor) Process(ctx context.Context, task Task) (Outcome, error) {
	startTime := time.Now()
	job := task.Job
	ctx = logger.WithJobID(ctx, job.ID)

	profile, ok := assembler.Lookup(job.Params.EncodeProfile)
	if !ok {
		return Outcome{}, fmt.Errorf("unknown encode profile %q", job.Params.EncodeProfile)
	}
	for _, dir := range []string{job.WorkDir, job.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Outcome{}, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	p.logger.Info(ctx, "Starting job %s: %s asset %s (%s, %s, %ds)",
		job.ID, task.Asset.Kind, task.Asset.ID, job.Params.Dialogue, profile.Name, job.Params.Duration)
	task.Log.Printf("JOB START %s at %s", job.ID, startTime.UTC().Format(time.RFC3339))

	// Step 1: Rasterize pages or copy the image
	slides, err := p.rasterize(logger.WithStage(ctx, "rasterize"), task)
	if err != nil {
		return Outcome{}, fmt.Errorf("rasterize: %w", err)
	}
	task.Log.Printf("slides: %d", len(slides))

	// Step 2: Extract notes (degrades to an empty prompt)
	notes := p.extractNotes(logger.WithStage(ctx, "extract"), task)

	// Step 3: Generate the script (never fatal)
	script, fallback := p.generateScript(logger.WithStage(ctx, "script"), task, notes)

	// Step 4: Narration (never fatal)
	narration := p.speech.Synthesize(logger.WithStage(ctx, "speech"), speech.Request{
		Script:   script,
		Dialogue: job.Params.Dialogue,
		WorkDir:  job.WorkDir,
		Log:      task.Log,
	})

	// Step 5: Captions from the raw script
	captionsPath, err := p.writeCaptions(logger.WithStage(ctx, "captions"), task, script)
	if err != nil {
		return Outcome{}, fmt.Errorf("captions: %w", err)
	}

	// Step 6: Timing
	plan := timing.Compute(timing.Input{
		NarrationSeconds: narration.Seconds,
		RequestedSeconds: job.Params.Duration,
		SlideCount:       len(slides),
		FPS:              profile.FPS,
		FloorSeconds:     p.cfg.Video.MinSlideSeconds,
	})
	if plan.NarrationDriven && plan.TotalSeconds != job.Params.Duration {
		task.Log.Printf("INFO: narration length %ds overrides requested %ds", plan.TotalSeconds, job.Params.Duration)
	}
	task.Log.Printf("timing: %d slides x %ds at %d fps", plan.SlideCount, plan.PerSlideSeconds, plan.FPS)

	// Step 7: Encode
	outputPath := filepath.Join(job.OutputDir, VideoFile)
	err = p.assembler.Assemble(logger.WithStage(ctx, "encode"), assembler.Request{
		WorkDir:       job.WorkDir,
		NarrationPath: narration.Path,
		OutputPath:    outputPath,
		Profile:       profile,
		Plan:          plan,
		Log:           task.Log,
	})
	p.cleanupPassLogs(ctx, job.WorkDir)
	if err != nil {
		return Outcome{}, fmt.Errorf("encode: %w", err)
	}

	out := Outcome{
		OutputPath:     outputPath,
		CaptionsPath:   captionsPath,
		Chapters:       chapters(job.ID, plan),
		SlideCount:     len(slides),
		Narrated:       narration.Present(),
		ScriptFallback: fallback,
	}

	// Step 8: Transcript document (never fatal)
	out.TranscriptPath = p.writeTranscript(logger.WithStage(ctx, "transcript"), task, script)

	// Step 9: Publish (never fatal)
	if p.publisher.Enabled() {
		url, err := p.publisher.Publish(logger.WithStage(ctx, "publish"), job.ID, outputPath)
		if err != nil {
			task.Log.Printf("WARN: publish failed: %v", err)
			p.logger.Warn(ctx, "Failed to publish %s: %v", outputPath, err)
		} else {
			out.PublishedURL = url
			task.Log.Printf("published: %s", url)
		}
	}

	p.logger.Info(ctx, "Job %s produced %s in %s", job.ID, outputPath, time.Since(startTime).Round(time.Second))
	return out, nil
}

func (p *implProcessor) writeCaptions(ctx context.Context, task Task, script string) (string, error) {
	vtt := captions.Generate(script)
	workCopy := filepath.Join(task.Job.WorkDir, CaptionsFile)
	if err := os.WriteFile(workCopy, []byte(vtt), 0o644); err != nil {
		return "", fmt.Errorf("write captions: %w", err)
	}
	out := filepath.Join(task.Job.OutputDir, CaptionsFile)
	if err := copyFile(workCopy, out); err != nil {
		return "", err
	}
	p.logger.Debug(ctx, "Captions written: %s", out)
	return out, nil
}

func (p *implProcessor) writeTranscript(ctx context.Context, task Task, script string) string {
	out := filepath.Join(task.Job.OutputDir, transcript.FileName)
	if err := transcript.Write(episodeTitle(task.Asset), script, out); err != nil {
		task.Log.Printf("WARN: transcript export failed: %v", err)
		p.logger.Warn(ctx, "Transcript export failed: %v", err)
		return ""
	}
	return out
}

func chapters(jobID string, plan timing.Plan) []domain.Chapter {
	planned := plan.Chapters()
	out := make([]domain.Chapter, len(planned))
	for i, c := range planned {
		out[i] = domain.Chapter{
			JobID:    jobID,
			Index:    c.Index,
			StartSec: c.StartSec,
			EndSec:   c.EndSec,
			Title:    c.Title,
		}
	}
	return out
}

func episodeTitle(a domain.Asset) string {
	name := strings.TrimSuffix(a.OriginalName, filepath.Ext(a.OriginalName))
	if name = strings.TrimSpace(name); name == "" {
		return "NoteFlix episode"
	}
	return name
}
