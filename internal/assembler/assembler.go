// Package assembler encodes the slide sequence and narration into the final video.
package assembler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nguyentantai21042004/noteflix/internal/joblog"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
	"github.com/nguyentantai21042004/noteflix/internal/timing"
	"github.com/nguyentantai21042004/noteflix/internal/toolchain"
	"github.com/nguyentantai21042004/noteflix/pkg/executor"
)

const passLogPrefix = "ffmpeg2pass"

// Assembler runs the encode for one job.
type Assembler interface {
	Assemble(ctx context.Context, req Request) error
}

// Request describes one encode. NarrationPath is optional.
type Request struct {
	WorkDir       string
	NarrationPath string
	OutputPath    string
	Profile       Profile
	Plan          timing.Plan
	Log           *joblog.Log
}

type implAssembler struct {
	executor executor.Executor
	tools    toolchain.Tools
	logger   logger.Logger
}

// New creates an Assembler.
func New(exec executor.Executor, tools toolchain.Tools, log logger.Logger) Assembler {
	return &implAssembler{
		executor: exec,
		tools:    tools,
		logger:   log,
	}
}

// Assemble runs every pass of the profile's strategy and verifies the output exists.
func (a *implAssembler) Assemble(ctx context.Context, req Request) error {
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	passes := BuildPasses(req)
	a.logger.Info(ctx, "Encoding %d slides with profile %s (%d pass, %ds per slide)",
		req.Plan.SlideCount, req.Profile.Name, len(passes), req.Plan.PerSlideSeconds)

	for i, args := range passes {
		cmd := a.tools.Encode(args)
		cmd.Dir = req.WorkDir
		req.Log.Printf("$ %s", cmd)

		h, err := a.executor.RunAsync(ctx, cmd, req.Log.Stream())
		if err != nil {
			return fmt.Errorf("start encode pass %d: %w", i+1, err)
		}
		res, err := h.Wait()
		if err != nil {
			return fmt.Errorf("encode pass %d: %w", i+1, err)
		}
		if !res.Success() {
			return fmt.Errorf("encode pass %d exited with status %d", i+1, res.ExitCode)
		}
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("ffmpeg failed to produce output")
	}

	a.logger.Info(ctx, "Encode finished: %s", req.OutputPath)
	return nil
}

// BuildPasses returns the ffmpeg argument list of every pass, in order.
// Analysis passes discard their output and audio.
func BuildPasses(req Request) [][]string {
	strategy := req.Profile.Pass
	if strategy == nil {
		strategy = SinglePass{Preset: "slow", CRF: 20}
	}
	total := strategy.Passes()
	passLog := filepath.Join(req.WorkDir, passLogPrefix)
	filter := FilterChain(req.Profile, req.Plan)

	out := make([][]string, 0, total)
	for pass := 1; pass <= total; pass++ {
		final := pass == total
		withAudio := final && req.NarrationPath != ""

		args := []string{
			"-hide_banner", "-y",
			"-framerate", req.Plan.InputFrameRate(),
			"-i", filepath.Join(req.WorkDir, toolchain.SlidePattern),
		}
		if withAudio {
			args = append(args, "-i", req.NarrationPath)
		}
		args = append(args, "-vf", filter, "-r", strconv.Itoa(req.Profile.FPS))
		args = append(args, strategy.codecArgs(pass)...)
		if total > 1 {
			args = append(args, "-passlogfile", passLog)
		}

		switch {
		case !final:
			args = append(args, "-an", "-f", "mp4", os.DevNull)
		case withAudio:
			args = append(args, "-c:a", "aac", "-b:a", "192k", "-shortest", "-movflags", "+faststart", req.OutputPath)
		default:
			args = append(args, "-an", "-movflags", "+faststart", req.OutputPath)
		}
		out = append(out, args)
	}
	return out
}
