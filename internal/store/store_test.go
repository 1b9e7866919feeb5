package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nguyentantai21042004/noteflix/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sqlite", "noteflix.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedAsset(t *testing.T, s *Store, id string) *domain.Asset {
	t.Helper()
	a := &domain.Asset{
		ID:           id,
		Owner:        "ana",
		Kind:         domain.AssetKindDocument,
		Path:         "/data/assets/" + id + ".pdf",
		OriginalName: "lecture.pdf",
		CreatedAt:    time.Now(),
	}
	if err := s.CreateAsset(context.Background(), a); err != nil {
		t.Fatalf("CreateAsset() error = %v", err)
	}
	return a
}

func newJob(id, assetID, owner string, created time.Time) *domain.Job {
	return &domain.Job{
		ID:      id,
		AssetID: assetID,
		Owner:   owner,
		Params: domain.Params{
			Style:         "kenburns",
			Duration:      90,
			Dialogue:      domain.DialogueDuet,
			EncodeProfile: "balanced",
		},
		Status:    domain.JobStatusPending,
		CreatedAt: created,
		LogsPath:  "/data/tmp/" + id + "/logs.txt",
		WorkDir:   "/data/tmp/" + id,
		OutputDir: "/data/outputs/" + id,
	}
}

func TestAssetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := seedAsset(t, s, "a1")

	got, err := s.GetAsset(ctx, "a1")
	if err != nil {
		t.Fatalf("GetAsset() error = %v", err)
	}
	if got.Kind != want.Kind || got.Path != want.Path || got.OriginalName != want.OriginalName {
		t.Errorf("GetAsset() = %+v", got)
	}

	if _, err := s.GetAsset(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAsset(missing) error = %v, want ErrNotFound", err)
	}
}

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedAsset(t, s, "a1")

	if err := s.InsertJob(ctx, newJob("j1", "a1", "ana", time.Now())); err != nil {
		t.Fatalf("InsertJob() error = %v", err)
	}

	got, err := s.GetJob(ctx, "j1")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != domain.JobStatusPending || got.Params.Dialogue != domain.DialogueDuet || got.StartedAt != nil {
		t.Errorf("GetJob() = %+v", got)
	}

	// finishing a pending job is rejected
	if ok, err := s.Finish(ctx, "j1", Outcome{Status: domain.JobStatusFailed, FinishedAt: time.Now()}); err != nil || ok {
		t.Errorf("Finish(pending) = %v, %v", ok, err)
	}

	ok, err := s.MarkRunning(ctx, "j1", time.Now())
	if err != nil || !ok {
		t.Fatalf("MarkRunning() = %v, %v", ok, err)
	}
	if ok, _ := s.MarkRunning(ctx, "j1", time.Now()); ok {
		t.Error("MarkRunning() succeeded twice")
	}

	if _, err := s.Finish(ctx, "j1", Outcome{Status: domain.JobStatusDone}); err == nil {
		t.Error("Finish(done) without output path should fail")
	}

	ok, err = s.Finish(ctx, "j1", Outcome{
		Status:         domain.JobStatusDone,
		FinishedAt:     time.Now(),
		ComputeSeconds: 42,
		OutputPath:     "/data/outputs/j1/video.mp4",
		CaptionsPath:   "/data/outputs/j1/captions.vtt",
	})
	if err != nil || !ok {
		t.Fatalf("Finish() = %v, %v", ok, err)
	}

	got, _ = s.GetJob(ctx, "j1")
	if got.Status != domain.JobStatusDone || got.ComputeSeconds != 42 || got.OutputPath == "" || got.StartedAt == nil || got.FinishedAt == nil {
		t.Errorf("finished job = %+v", got)
	}

	if ok, _ := s.Finish(ctx, "j1", Outcome{Status: domain.JobStatusFailed, FinishedAt: time.Now()}); ok {
		t.Error("terminal job transitioned again")
	}
}

func TestFailedJobHasNoOutput(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedAsset(t, s, "a1")
	_ = s.InsertJob(ctx, newJob("j1", "a1", "ana", time.Now()))
	_, _ = s.MarkRunning(ctx, "j1", time.Now())

	ok, err := s.Finish(ctx, "j1", Outcome{Status: domain.JobStatusFailed, FinishedAt: time.Now(), ComputeSeconds: 3, OutputPath: "/ignored"})
	if err != nil || !ok {
		t.Fatalf("Finish() = %v, %v", ok, err)
	}
	got, _ := s.GetJob(ctx, "j1")
	if got.OutputPath != "" || got.ComputeSeconds != 3 {
		t.Errorf("failed job = %+v", got)
	}
}

func TestListJobsOrderAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedAsset(t, s, "a1")

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		// sub-second offsets exercise fixed-width timestamp ordering
		created := base.Add(time.Duration(i) * 100 * time.Millisecond)
		if err := s.InsertJob(ctx, newJob(fmt.Sprintf("j%d", i), "a1", "ana", created)); err != nil {
			t.Fatal(err)
		}
	}
	_ = s.InsertJob(ctx, newJob("other", "a1", "bo", base.Add(time.Hour)))

	jobs, err := s.ListJobs(ctx, "ana", 3)
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	want := []string{"j4", "j3", "j2"}
	if len(jobs) != len(want) {
		t.Fatalf("ListJobs() returned %d jobs, want %d", len(jobs), len(want))
	}
	for i, j := range jobs {
		if j.ID != want[i] {
			t.Errorf("jobs[%d] = %s, want %s", i, j.ID, want[i])
		}
	}

	all, _ := s.ListJobs(ctx, "", 50)
	if len(all) != 6 || all[0].ID != "other" {
		t.Errorf("ListJobs(all) first = %s, len %d", all[0].ID, len(all))
	}
}

func TestJobsByStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedAsset(t, s, "a1")
	_ = s.InsertJob(ctx, newJob("p", "a1", "ana", time.Now()))
	_ = s.InsertJob(ctx, newJob("r", "a1", "ana", time.Now()))
	_, _ = s.MarkRunning(ctx, "r", time.Now())

	running, err := s.JobsByStatus(ctx, domain.JobStatusRunning)
	if err != nil || len(running) != 1 || running[0].ID != "r" {
		t.Errorf("JobsByStatus(running) = %v, %v", running, err)
	}

	ok, err := s.FailPending(ctx, "p", time.Now())
	if err != nil || !ok {
		t.Errorf("FailPending() = %v, %v", ok, err)
	}
	pending, _ := s.JobsByStatus(ctx, domain.JobStatusPending)
	if len(pending) != 0 {
		t.Errorf("pending jobs left: %d", len(pending))
	}
}

func TestChapters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedAsset(t, s, "a1")
	_ = s.InsertJob(ctx, newJob("j1", "a1", "ana", time.Now()))

	in := []domain.Chapter{
		{Index: 1, StartSec: 0, EndSec: 5, Title: "Slide 1"},
		{Index: 2, StartSec: 5, EndSec: 10, Title: "Slide 2"},
	}
	if err := s.SaveChapters(ctx, "j1", in); err != nil {
		t.Fatalf("SaveChapters() error = %v", err)
	}
	if err := s.SaveChapters(ctx, "j1", in); err != nil {
		t.Fatalf("SaveChapters() replace error = %v", err)
	}

	got, err := s.Chapters(ctx, "j1")
	if err != nil {
		t.Fatalf("Chapters() error = %v", err)
	}
	if len(got) != 2 || got[1].Title != "Slide 2" || got[1].JobID != "j1" || got[1].StartSec != 5 {
		t.Errorf("Chapters() = %+v", got)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.sqlite")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	seedAsset(t, s, "a1")
	_ = s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if _, err := s.GetAsset(context.Background(), "a1"); err != nil {
		t.Errorf("asset lost after reopen: %v", err)
	}
}
