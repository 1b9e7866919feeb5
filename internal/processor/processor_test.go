package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/noteflix/internal/config"
	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/joblog"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
	"github.com/nguyentantai21042004/noteflix/internal/scriptgen"
	"github.com/nguyentantai21042004/noteflix/pkg/executor"
	"github.com/nguyentantai21042004/noteflix/pkg/executor/executortest"
)

type stubScript struct {
	script scriptgen.Script
	req    scriptgen.Request
}

func (s *stubScript) Synthesize(_ context.Context, req scriptgen.Request) scriptgen.Script {
	s.req = req
	return s.script
}

type stubPublisher struct {
	err    error
	called bool
}

func (s *stubPublisher) Enabled() bool { return true }

func (s *stubPublisher) Publish(_ context.Context, jobID, _ string) (string, error) {
	s.called = true
	if s.err != nil {
		return "", s.err
	}
	return "s3://bucket/" + jobID + "/video.mp4", nil
}

// toolbox answers like the real tools: three pdf pages, notes, audio and video outputs.
func toolbox(cmd executor.Command) (executor.Result, error) {
	switch cmd.Name {
	case "pdftoppm":
		prefix := executortest.LastArg(cmd)
		for _, n := range []string{"1", "2", "10"} {
			executortest.Touch(prefix + "-" + n + ".png")
		}
	case "pdftotext":
		_ = os.WriteFile(executortest.LastArg(cmd), []byte("Cell biology notes."), 0o644)
	case "espeak-ng":
		executortest.Touch(executortest.ArgAfter(cmd, "-w"))
	case "ffprobe":
		return executor.Result{Stdout: `{"format":{"duration":"24.5"}}`}, nil
	case "ffmpeg":
		if out := executortest.LastArg(cmd); out != os.DevNull {
			executortest.Touch(out)
		}
		return executor.Result{Stderr: "frame=  100\n"}, nil
	}
	return executor.Result{}, nil
}

type fixture struct {
	proc   Processor
	fake   *executortest.Fake
	script *stubScript
	pub    *stubPublisher
	task   Task
	log    *strings.Builder
}

func newFixture(t *testing.T, kind domain.AssetKind, assetPath string, dialogue domain.Dialogue) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataRoot = root
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		fake:   &executortest.Fake{Handler: toolbox},
		script: &stubScript{script: scriptgen.Script{Text: "Alex: Cells are small.\nSam: Indeed they are."}},
		pub:    &stubPublisher{},
		log:    &strings.Builder{},
	}
	f.proc = New(cfg, Deps{Executor: f.fake, Script: f.script, Publisher: f.pub}, logger.NewNop())
	f.task = Task{
		Job: domain.Job{
			ID:        "job-1",
			AssetID:   "asset-1",
			Params:    domain.Params{Style: "kenburns", Duration: 90, Dialogue: dialogue, EncodeProfile: "balanced"},
			Status:    domain.JobStatusRunning,
			WorkDir:   filepath.Join(root, "tmp", "job-1"),
			OutputDir: filepath.Join(root, "outputs", "job-1"),
		},
		Asset: domain.Asset{ID: "asset-1", Kind: kind, Path: assetPath, OriginalName: "Lecture 3.pdf"},
		Log:   joblog.New(f.log),
	}
	return f
}

func TestProcessDocument(t *testing.T) {
	f := newFixture(t, domain.AssetKindDocument, "/assets/lecture.pdf", domain.DialogueDuet)

	out, err := f.proc.Process(context.Background(), f.task)
	if err != nil {
		t.Fatalf("Process() error = %v\nlog:\n%s", err, f.log)
	}

	if out.OutputPath != filepath.Join(f.task.Job.OutputDir, VideoFile) {
		t.Errorf("OutputPath = %q", out.OutputPath)
	}
	if _, err := os.Stat(out.CaptionsPath); err != nil {
		t.Errorf("captions missing: %v", err)
	}
	if out.TranscriptPath == "" {
		t.Error("transcript not written")
	}
	if !out.Narrated || out.SlideCount != 3 || len(out.Chapters) != 3 {
		t.Errorf("Outcome = %+v", out)
	}
	if out.PublishedURL != "s3://bucket/job-1/video.mp4" {
		t.Errorf("PublishedURL = %q", out.PublishedURL)
	}

	for i := 1; i <= 3; i++ {
		name := filepath.Join(f.task.Job.WorkDir, "slide-000"+string(rune('0'+i))+".png")
		if _, err := os.Stat(name); err != nil {
			t.Errorf("slide %d missing: %v", i, err)
		}
	}

	if f.script.req.Notes != "Cell biology notes." || f.script.req.Dialogue != domain.DialogueDuet {
		t.Errorf("script request = %+v", f.script.req)
	}
	raw, _ := os.ReadFile(filepath.Join(f.task.Job.WorkDir, ScriptFile))
	if string(raw) != f.script.script.Text {
		t.Errorf("script.txt = %q", raw)
	}

	// narration (25s) drives timing: round(25/3) = 8s per slide
	if out.Chapters[1].StartSec != 8 || out.Chapters[2].Title != "Slide 3" {
		t.Errorf("chapters = %+v", out.Chapters)
	}
	if !strings.Contains(f.log.String(), "narration length 25s overrides requested 90s") {
		t.Errorf("override not logged:\n%s", f.log)
	}
}

func TestProcessWithoutSpeechEngine(t *testing.T) {
	f := newFixture(t, domain.AssetKindDocument, "/assets/lecture.pdf", domain.DialogueSolo)
	f.fake.Missing = map[string]bool{"espeak-ng": true}

	out, err := f.proc.Process(context.Background(), f.task)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.Narrated {
		t.Error("narration reported without a speech engine")
	}
	if _, err := os.Stat(out.CaptionsPath); err != nil {
		t.Errorf("captions missing: %v", err)
	}
	for _, c := range f.fake.Called("ffmpeg") {
		if strings.Contains(strings.Join(c.Args, " "), "narration.wav") {
			t.Errorf("encode references narration: %v", c.Args)
		}
	}
	// requested 90s over 3 slides
	if out.Chapters[0].EndSec != 30 {
		t.Errorf("chapters = %+v", out.Chapters)
	}
}

func TestProcessImage(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "diagram.png")
	if err := os.WriteFile(png, []byte("pngdata"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, domain.AssetKindImage, png, domain.DialogueSolo)

	out, err := f.proc.Process(context.Background(), f.task)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if out.SlideCount != 1 {
		t.Errorf("SlideCount = %d", out.SlideCount)
	}
	slide, _ := os.ReadFile(filepath.Join(f.task.Job.WorkDir, "slide-0001.png"))
	if string(slide) != "pngdata" {
		t.Errorf("slide content = %q", slide)
	}
	if len(f.fake.Called("pdftotext")) != 0 {
		t.Error("text extraction ran for an image")
	}
}

func TestProcessFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		wantErr string
	}{
		{
			name:    "rasterizer missing",
			setup:   func(f *fixture) { f.fake.Missing = map[string]bool{"pdftoppm": true} },
			wantErr: "pdftoppm not found",
		},
		{
			name: "rasterizer exit status",
			setup: func(f *fixture) {
				f.fake.Handler = func(cmd executor.Command) (executor.Result, error) {
					if cmd.Name == "pdftoppm" {
						return executor.Result{ExitCode: 1, Stderr: "Syntax Error"}, nil
					}
					return toolbox(cmd)
				}
			},
			wantErr: "exited with status 1",
		},
		{
			name: "no pages",
			setup: func(f *fixture) {
				f.fake.Handler = func(cmd executor.Command) (executor.Result, error) {
					if cmd.Name == "pdftoppm" {
						return executor.Result{}, nil
					}
					return toolbox(cmd)
				}
			},
			wantErr: errNoSlides.Error(),
		},
		{
			name: "encode fails",
			setup: func(f *fixture) {
				f.fake.Handler = func(cmd executor.Command) (executor.Result, error) {
					if cmd.Name == "ffmpeg" && executortest.ArgAfter(cmd, "-framerate") != "" {
						return executor.Result{ExitCode: 187}, nil
					}
					return toolbox(cmd)
				}
			},
			wantErr: "encode",
		},
		{
			name:    "unknown profile",
			setup:   func(f *fixture) { f.task.Job.Params.EncodeProfile = "ultra" },
			wantErr: "unknown encode profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, domain.AssetKindDocument, "/assets/lecture.pdf", domain.DialogueSolo)
			tt.setup(f)
			_, err := f.proc.Process(context.Background(), f.task)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Process() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestProcessPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, domain.AssetKindDocument, "/assets/lecture.pdf", domain.DialogueSolo)
	f.pub.err = errors.New("access denied")

	out, err := f.proc.Process(context.Background(), f.task)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !f.pub.called || out.PublishedURL != "" {
		t.Errorf("publish outcome = %+v", out)
	}
	if !strings.Contains(f.log.String(), "WARN: publish failed") {
		t.Errorf("publish failure not logged:\n%s", f.log)
	}
}

func TestEpisodeTitle(t *testing.T) {
	if got := episodeTitle(domain.Asset{OriginalName: "Week 2.pdf"}); got != "Week 2" {
		t.Errorf("episodeTitle() = %q", got)
	}
	if got := episodeTitle(domain.Asset{}); got != "NoteFlix episode" {
		t.Errorf("episodeTitle(empty) = %q", got)
	}
}
