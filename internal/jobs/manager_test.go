package jobs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/config"
	"github.com/nguyentantai21042004/noteflix/internal/domain"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
	"github.com/nguyentantai21042004/noteflix/internal/processor"
	"github.com/nguyentantai21042004/noteflix/internal/scriptgen"
	"github.com/nguyentantai21042004/noteflix/internal/store"
	"github.com/nguyentantai21042004/noteflix/pkg/executor"
	"github.com/nguyentantai21042004/noteflix/pkg/executor/executortest"
)

// fakePipeline writes a video unless told to fail. When gate is set every
// run blocks until the gate is closed.
type fakePipeline struct {
	err        error
	skipOutput bool
	gate       chan struct{}

	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	tasks    []processor.Task
}

func (f *fakePipeline) Process(_ context.Context, task processor.Task) (processor.Outcome, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}
	task.Log.Printf("stage output for %s", task.Job.ID)
	if f.err != nil {
		return processor.Outcome{}, f.err
	}

	out := processor.Outcome{
		OutputPath:   filepath.Join(task.Job.OutputDir, processor.VideoFile),
		CaptionsPath: filepath.Join(task.Job.OutputDir, processor.CaptionsFile),
		Chapters: []domain.Chapter{
			{JobID: task.Job.ID, Index: 1, StartSec: 0, EndSec: 5, Title: "Slide 1"},
		},
	}
	if !f.skipOutput {
		_ = os.WriteFile(out.OutputPath, make([]byte, 1000), 0o644)
		_ = os.WriteFile(out.CaptionsPath, []byte("WEBVTT\n\n"), 0o644)
	}
	return out, nil
}

type fixture struct {
	mgr   *Manager
	store *store.Store
	pipe  *fakePipeline
	cfg   *config.Config
	asset *domain.Asset
}

func newFixture(t *testing.T, pipe *fakePipeline, tweak func(*config.Config)) *fixture {
	t.Helper()
	f := newFixtureWith(t, func(*config.Config) processor.Processor { return pipe }, tweak)
	f.pipe = pipe
	return f
}

// newFixtureWith builds a manager around the processor returned by build.
func newFixtureWith(t *testing.T, build func(*config.Config) processor.Processor, tweak func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataRoot = t.TempDir()
	if tweak != nil {
		tweak(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	mgr := New(cfg, st, build(cfg), logger.NewNop())

	src := filepath.Join(t.TempDir(), "Lecture.pdf")
	if err := os.WriteFile(src, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	asset, err := mgr.AddAsset(context.Background(), src, "ana")
	if err != nil {
		t.Fatalf("AddAsset() error = %v", err)
	}
	return &fixture{mgr: mgr, store: st, cfg: cfg, asset: asset}
}

// assertInvariants checks status values and the output-iff-done rule on every job.
func assertInvariants(t *testing.T, f *fixture) {
	t.Helper()
	all, err := f.store.ListJobs(context.Background(), "", 1000)
	if err != nil {
		t.Fatal(err)
	}
	for _, j := range all {
		switch j.Status {
		case domain.JobStatusPending, domain.JobStatusRunning, domain.JobStatusDone, domain.JobStatusFailed:
		default:
			t.Errorf("job %s has status %q", j.ID, j.Status)
		}
		if (j.OutputPath != "") != (j.Status == domain.JobStatusDone) {
			t.Errorf("job %s: status %s with output %q", j.ID, j.Status, j.OutputPath)
		}
	}
}

func TestCreateAndComplete(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, nil)
	ctx := context.Background()

	id, err := f.mgr.Create(ctx, f.asset.ID, domain.Params{}, "ana")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	job, err := f.mgr.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if job.Status != domain.JobStatusPending && job.Status != domain.JobStatusRunning && job.Status != domain.JobStatusDone {
		t.Errorf("initial status = %s", job.Status)
	}
	want := domain.Params{Style: DefaultStyle, Duration: 90, Dialogue: domain.DialogueSolo, EncodeProfile: "balanced"}
	if job.Params != want {
		t.Errorf("Params = %+v, want %+v", job.Params, want)
	}

	f.mgr.Wait()

	job, _ = f.mgr.Get(ctx, id)
	if job.Status != domain.JobStatusDone {
		t.Fatalf("status = %s, want done", job.Status)
	}
	if job.OutputPath == "" || job.StartedAt == nil || job.FinishedAt == nil || job.ComputeSeconds < 0 {
		t.Errorf("done job = %+v", job)
	}
	if job.WorkDir != filepath.Join(f.cfg.Paths.Work, id) || job.OutputDir != filepath.Join(f.cfg.Paths.Output, id) {
		t.Errorf("dirs = %s, %s", job.WorkDir, job.OutputDir)
	}

	chapters, err := f.mgr.Chapters(ctx, id)
	if err != nil || len(chapters) != 1 {
		t.Errorf("Chapters() = %v, %v", chapters, err)
	}

	logs := logsOf(t, f.mgr, id)
	if !strings.Contains(logs, "stage output for "+id) || !strings.Contains(logs, "JOB DONE") {
		t.Errorf("logs = %q", logs)
	}
	assertInvariants(t, f)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, nil)

	tests := []struct {
		name    string
		assetID string
		params  domain.Params
	}{
		{name: "unknown asset", assetID: "nope"},
		{name: "negative duration", params: domain.Params{Duration: -1}},
		{name: "bad dialogue", params: domain.Params{Dialogue: "trio"}},
		{name: "bad profile", params: domain.Params{EncodeProfile: "ultra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assetID := tt.assetID
			if assetID == "" {
				assetID = f.asset.ID
			}
			_, err := f.mgr.Create(context.Background(), assetID, tt.params, "ana")
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Create() error = %v, want ErrInvalidInput", err)
			}
		})
	}

	jobs, _ := f.mgr.ListRecent(context.Background(), "", 0)
	if len(jobs) != 0 {
		t.Errorf("rejected requests created %d jobs", len(jobs))
	}
}

func TestPipelineFailure(t *testing.T) {
	f := newFixture(t, &fakePipeline{err: errors.New("pdftoppm exited with status 1")}, nil)
	ctx := context.Background()

	id, err := f.mgr.Create(ctx, f.asset.ID, domain.Params{}, "ana")
	if err != nil {
		t.Fatal(err)
	}
	f.mgr.Wait()

	job, _ := f.mgr.Get(ctx, id)
	if job.Status != domain.JobStatusFailed || job.OutputPath != "" || job.FinishedAt == nil {
		t.Errorf("failed job = %+v", job)
	}
	if logs := logsOf(t, f.mgr, id); !strings.Contains(logs, "FAILED: pdftoppm exited with status 1") {
		t.Errorf("logs = %q", logs)
	}
	if _, err := f.mgr.OpenOutput(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenOutput(failed) error = %v", err)
	}
	assertInvariants(t, f)
}

func TestMissingOutputFailsJob(t *testing.T) {
	f := newFixture(t, &fakePipeline{skipOutput: true}, nil)
	ctx := context.Background()

	id, _ := f.mgr.Create(ctx, f.asset.ID, domain.Params{}, "ana")
	f.mgr.Wait()

	job, _ := f.mgr.Get(ctx, id)
	if job.Status != domain.JobStatusFailed {
		t.Errorf("status = %s, want failed", job.Status)
	}
	assertInvariants(t, f)
}

func TestBoundedConcurrency(t *testing.T) {
	gate := make(chan struct{})
	pipe := &fakePipeline{gate: gate}
	f := newFixture(t, pipe, func(c *config.Config) { c.Jobs.MaxConcurrent = 1 })
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := f.mgr.Create(ctx, f.asset.ID, domain.Params{}, "ana")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	waitFor(t, func() bool { return pipe.inFlight.Load() == 1 })
	time.Sleep(50 * time.Millisecond)

	var pending int
	for _, id := range ids {
		job, _ := f.mgr.Get(ctx, id)
		if job.Status == domain.JobStatusPending {
			pending++
		}
	}
	if pending != 2 {
		t.Errorf("pending jobs while one runs = %d, want 2", pending)
	}
	assertInvariants(t, f)

	close(gate)
	f.mgr.Wait()

	if peak := pipe.peak.Load(); peak != 1 {
		t.Errorf("peak concurrency = %d, want 1", peak)
	}
	assertInvariants(t, f)
}

func TestUnboundedConcurrency(t *testing.T) {
	gate := make(chan struct{})
	pipe := &fakePipeline{gate: gate}
	f := newFixture(t, pipe, func(c *config.Config) { c.Jobs.MaxConcurrent = 0 })

	for i := 0; i < 3; i++ {
		if _, err := f.mgr.Create(context.Background(), f.asset.ID, domain.Params{}, "ana"); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return pipe.inFlight.Load() == 3 })
	close(gate)
	f.mgr.Wait()
}

func TestListRecent(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, func(c *config.Config) { c.Jobs.ListLimit = 2 })
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, _ := f.mgr.Create(ctx, f.asset.ID, domain.Params{}, "ana")
		ids = append(ids, id)
	}
	_, _ = f.mgr.Create(ctx, f.asset.ID, domain.Params{}, "bo")
	f.mgr.Wait()

	for _, limit := range []int{0, 5, 2} {
		jobs, err := f.mgr.ListRecent(ctx, "ana", limit)
		if err != nil {
			t.Fatal(err)
		}
		if len(jobs) != 2 || jobs[0].ID != ids[2] || jobs[1].ID != ids[1] {
			t.Errorf("ListRecent(limit=%d) = %v", limit, jobIDs(jobs))
		}
	}

	if jobs, _ := f.mgr.ListRecent(ctx, "ana", 1); len(jobs) != 1 {
		t.Errorf("ListRecent(limit=1) returned %d", len(jobs))
	}
}

func TestArtifacts(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, nil)
	ctx := context.Background()

	if _, err := f.mgr.OpenLogs(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenLogs(unknown) error = %v", err)
	}
	if _, err := f.mgr.OpenOutput(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenOutput(unknown) error = %v", err)
	}

	id, _ := f.mgr.Create(ctx, f.asset.ID, domain.Params{}, "ana")
	f.mgr.Wait()

	out, err := f.mgr.OpenOutput(ctx, id)
	if err != nil {
		t.Fatalf("OpenOutput() error = %v", err)
	}
	defer out.Close()
	if out.Size != 1000 || out.Name != processor.VideoFile {
		t.Errorf("artifact = %+v", out)
	}

	vtt, err := f.mgr.OpenCaptions(ctx, id)
	if err != nil {
		t.Fatalf("OpenCaptions() error = %v", err)
	}
	vtt.Close()

	job, _ := f.mgr.Get(ctx, id)
	_ = os.Remove(job.OutputPath)
	if _, err := f.mgr.OpenOutput(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("OpenOutput(deleted file) error = %v", err)
	}
}

func TestOpenLogsOfQueuedJob(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, &fakePipeline{gate: gate}, func(c *config.Config) { c.Jobs.MaxConcurrent = 1 })
	ctx := context.Background()

	_, _ = f.mgr.Create(ctx, f.asset.ID, domain.Params{}, "ana")
	queued, _ := f.mgr.Create(ctx, f.asset.ID, domain.Params{}, "ana")

	if logs := logsOf(t, f.mgr, queued); logs != "" {
		t.Errorf("logs of queued job = %q", logs)
	}
	close(gate)
	f.mgr.Wait()
}

func TestRecover(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	mk := func(id string) *domain.Job {
		work := filepath.Join(f.cfg.Paths.Work, id)
		return &domain.Job{
			ID: id, AssetID: f.asset.ID, Owner: "ana",
			Params:    domain.Params{Style: DefaultStyle, Duration: 30, Dialogue: domain.DialogueSolo, EncodeProfile: "balanced"},
			Status:    domain.JobStatusPending,
			CreatedAt: now,
			LogsPath:  filepath.Join(work, LogFile),
			WorkDir:   work,
			OutputDir: filepath.Join(f.cfg.Paths.Output, id),
		}
	}
	for _, id := range []string{"stale", "queued"} {
		job := mk(id)
		if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := f.store.InsertJob(ctx, job); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.store.MarkRunning(ctx, "stale", now.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	stats, err := f.mgr.Recover(ctx)
	if err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	f.mgr.Wait()

	if stats.Interrupted != 1 || stats.Requeued != 1 {
		t.Errorf("stats = %+v", stats)
	}
	stale, _ := f.mgr.Get(ctx, "stale")
	if stale.Status != domain.JobStatusFailed || stale.ComputeSeconds < 59 {
		t.Errorf("stale job = %+v", stale)
	}
	if logs := logsOf(t, f.mgr, "stale"); !strings.Contains(logs, "FAILED: interrupted") {
		t.Errorf("stale logs = %q", logs)
	}
	queued, _ := f.mgr.Get(ctx, "queued")
	if queued.Status != domain.JobStatusDone {
		t.Errorf("queued job status = %s", queued.Status)
	}
	assertInvariants(t, f)
}

// missingAssets hides every asset, as if the row had been removed.
type missingAssets struct {
	*store.Store
}

func (missingAssets) GetAsset(context.Context, string) (*domain.Asset, error) {
	return nil, store.ErrNotFound
}

func TestRecoverFailsJobWithMissingAsset(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, nil)
	ctx := context.Background()

	work := filepath.Join(f.cfg.Paths.Work, "orphan")
	job := &domain.Job{
		ID: "orphan", AssetID: f.asset.ID, Owner: "ana",
		Params:    domain.Params{Style: DefaultStyle, Duration: 30, Dialogue: domain.DialogueSolo, EncodeProfile: "balanced"},
		Status:    domain.JobStatusPending,
		CreatedAt: time.Now().UTC(),
		LogsPath:  filepath.Join(work, LogFile),
		WorkDir:   work,
		OutputDir: filepath.Join(f.cfg.Paths.Output, "orphan"),
	}
	if err := f.store.InsertJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	mgr := New(f.cfg, missingAssets{f.store}, f.pipe, logger.NewNop())
	stats, err := mgr.Recover(ctx)
	if err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	mgr.Wait()

	if stats.Requeued != 0 {
		t.Errorf("stats = %+v, want nothing requeued", stats)
	}
	got, _ := f.store.GetJob(ctx, "orphan")
	if got.Status != domain.JobStatusFailed || got.FinishedAt == nil {
		t.Errorf("orphaned job = %+v", got)
	}
	if logs := logsOf(t, f.mgr, "orphan"); !strings.Contains(logs, "FAILED: asset "+f.asset.ID+" no longer exists") {
		t.Errorf("logs = %q", logs)
	}
	if calls := len(f.pipe.tasks); calls != 0 {
		t.Errorf("pipeline ran %d times for an orphaned job", calls)
	}
	assertInvariants(t, f)
}

type fixedScript struct{}

func (fixedScript) Synthesize(context.Context, scriptgen.Request) scriptgen.Script {
	return scriptgen.Script{Text: "Cells are small. They divide often."}
}

// tools answers like pdftoppm, pdftotext, ffprobe and ffmpeg would.
func tools(cmd executor.Command) (executor.Result, error) {
	switch cmd.Name {
	case "pdftoppm":
		prefix := executortest.LastArg(cmd)
		executortest.Touch(prefix + "-1.png")
		executortest.Touch(prefix + "-2.png")
	case "pdftotext":
		_ = os.WriteFile(executortest.LastArg(cmd), []byte("Cell biology."), 0o644)
	case "ffprobe":
		return executor.Result{Stdout: `{"format":{"duration":"20.0"}}`}, nil
	case "ffmpeg":
		if out := executortest.LastArg(cmd); out != os.DevNull {
			executortest.Touch(out)
		}
	}
	return executor.Result{}, nil
}

func TestJobWithoutSpeechEngineCompletes(t *testing.T) {
	fake := &executortest.Fake{Handler: tools, Missing: map[string]bool{"espeak-ng": true}}
	f := newFixtureWith(t, func(cfg *config.Config) processor.Processor {
		return processor.New(cfg, processor.Deps{Executor: fake, Script: fixedScript{}}, logger.NewNop())
	}, nil)
	ctx := context.Background()

	id, err := f.mgr.Create(ctx, f.asset.ID, domain.Params{Duration: 60}, "ana")
	if err != nil {
		t.Fatal(err)
	}
	f.mgr.Wait()

	job, _ := f.mgr.Get(ctx, id)
	if job.Status != domain.JobStatusDone || job.OutputPath == "" {
		t.Fatalf("job = %+v\nlogs:\n%s", job, logsOf(t, f.mgr, id))
	}

	vtt, err := f.mgr.OpenCaptions(ctx, id)
	if err != nil {
		t.Fatalf("OpenCaptions() error = %v", err)
	}
	data, _ := io.ReadAll(vtt)
	vtt.Close()
	if !strings.HasPrefix(string(data), "WEBVTT") || !strings.Contains(string(data), "Cells are small.") {
		t.Errorf("captions = %q", data)
	}

	logs := logsOf(t, f.mgr, id)
	if !strings.Contains(logs, "proceeding captions-only") || !strings.Contains(logs, "JOB DONE") {
		t.Errorf("logs = %q", logs)
	}
	if len(fake.Called("espeak-ng")) != 0 {
		t.Error("missing speech engine was invoked")
	}
	chapters, _ := f.mgr.Chapters(ctx, id)
	if len(chapters) != 2 {
		t.Errorf("chapters = %+v", chapters)
	}
	assertInvariants(t, f)
}

func TestAddAssetRejectsUnknownType(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, nil)
	src := filepath.Join(t.TempDir(), "notes.txt")
	_ = os.WriteFile(src, []byte("x"), 0o644)

	if _, err := f.mgr.AddAsset(context.Background(), src, "ana"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("AddAsset(.txt) error = %v", err)
	}
	if f.asset.Kind != domain.AssetKindDocument || f.asset.OriginalName != "Lecture.pdf" {
		t.Errorf("asset = %+v", f.asset)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		path   string
		want   domain.AssetKind
		wantOK bool
	}{
		{"a.PDF", domain.AssetKindDocument, true},
		{"a.png", domain.AssetKindImage, true},
		{"a.jpeg", domain.AssetKindImage, true},
		{"a.gif", "", false},
	}
	for _, tt := range tests {
		got, ok := KindOf(tt.path)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("KindOf(%q) = %q, %v", tt.path, got, ok)
		}
	}
}

func logsOf(t *testing.T, mgr *Manager, id string) string {
	t.Helper()
	rc, err := mgr.OpenLogs(context.Background(), id)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func jobIDs(jobs []*domain.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.ID
	}
	return out
}
