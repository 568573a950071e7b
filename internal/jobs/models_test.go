package jobs

import (
	"testing"

	"github.com/google/uuid"

	"vellum/internal/engine"
)

func TestStateMachineTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusQueued, StatusProcessing, true},
		{StatusQueued, StatusCancelled, true},
		{StatusQueued, StatusFailed, true},
		{StatusQueued, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusQueued, false},
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusFailed, StatusQueued, false},
		{StatusCancelled, StatusProcessing, false},
	}
	for _, tc := range cases {
		if got := canTransition(tc.from, tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: want %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestTerminalStatesFinal(t *testing.T) {
	job := newJob(uuid.New(), "/in.pdf", "/out.pdf", "/ws", ConversionConfig{})
	if err := job.transition(StatusProcessing); err != nil {
		t.Fatalf("queued -> processing: %v", err)
	}
	if err := job.transition(StatusCompleted); err != nil {
		t.Fatalf("processing -> completed: %v", err)
	}
	if err := job.transition(StatusFailed); err == nil {
		t.Fatal("completed -> failed must be rejected")
	}
	if job.Status() != StatusCompleted {
		t.Fatalf("status mutated by rejected transition: %s", job.Status())
	}
}

func TestStartedAtStampedOnce(t *testing.T) {
	job := newJob(uuid.New(), "/in.pdf", "/out.pdf", "/ws", ConversionConfig{})
	if err := job.transition(StatusProcessing); err != nil {
		t.Fatalf("transition: %v", err)
	}
	started := job.Snapshot().StartedAt
	if started.IsZero() {
		t.Fatal("StartedAt must be set on entering processing")
	}
	if err := job.transition(StatusCompleted); err != nil {
		t.Fatalf("transition: %v", err)
	}
	snap := job.Snapshot()
	if !snap.StartedAt.Equal(started) {
		t.Fatal("StartedAt must not change after first stamp")
	}
	if snap.CompletedAt.IsZero() {
		t.Fatal("CompletedAt must be set on terminal transition")
	}
}

func TestProgressMonotonicWithinStage(t *testing.T) {
	job := newJob(uuid.New(), "/in.pdf", "/out.pdf", "/ws", ConversionConfig{})

	if !job.setProgress(engine.Progress{Stage: "render", Percent: 50}) {
		t.Fatal("first update must apply")
	}
	if job.setProgress(engine.Progress{Stage: "render", Percent: 30}) {
		t.Fatal("backwards update within a stage must be discarded")
	}
	if got := job.Snapshot().Progress.Percent; got != 50 {
		t.Fatalf("progress regressed to %v", got)
	}
	if !job.setProgress(engine.Progress{Stage: "render", Percent: 70}) {
		t.Fatal("forward update must apply")
	}
	if !job.setProgress(engine.Progress{Stage: "ocr", Percent: 5}) {
		t.Fatal("stage change must reset the clamp")
	}
	if got := job.Snapshot().Progress; got.Stage != "ocr" || got.Percent != 5 {
		t.Fatalf("unexpected progress after stage change: %+v", got)
	}
}

func TestProgressClampedToValidRange(t *testing.T) {
	job := newJob(uuid.New(), "/in.pdf", "/out.pdf", "/ws", ConversionConfig{})

	if !job.setProgress(engine.Progress{Stage: "render", Percent: 150}) {
		t.Fatal("over-range update must apply clamped")
	}
	if got := job.Snapshot().Progress.Percent; got != 100 {
		t.Fatalf("percent must clamp to 100, got %v", got)
	}

	if !job.setProgress(engine.Progress{Stage: "ocr", Percent: -10}) {
		t.Fatal("under-range update in a new stage must apply clamped")
	}
	if got := job.Snapshot().Progress.Percent; got != 0 {
		t.Fatalf("percent must clamp to 0, got %v", got)
	}
}

func TestCancelBeforeRunnerStarts(t *testing.T) {
	job := newJob(uuid.New(), "/in.pdf", "/out.pdf", "/ws", ConversionConfig{})
	job.requestCancel()

	fired := false
	job.setCancelFunc(func() { fired = true })
	if !fired {
		t.Fatal("late-attached cancel func must fire when cancel was already requested")
	}
	if !job.CancelRequested() {
		t.Fatal("cancel flag must be set")
	}
}
