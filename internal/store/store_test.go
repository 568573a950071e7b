package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenPath(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleJob(id, status string) JobRecord {
	return JobRecord{
		ID:              id,
		Status:          status,
		InputPath:       "/in/" + id + ".pdf",
		OutputPath:      "/out/" + id + ".pdf",
		ComplianceLevel: "level-2",
		ProgressStage:   "render",
		ProgressPercent: 42,
		ProgressMessage: "rendering pages",
	}
}

func TestPersistAndGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PersistJob(ctx, sampleJob("job-1", "processing")); err != nil {
		t.Fatalf("persist: %v", err)
	}

	rec, err := s.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != "processing" || rec.InputPath != "/in/job-1.pdf" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.ProgressPercent != 42 || rec.ProgressStage != "render" {
		t.Fatalf("progress not persisted: %+v", rec)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Fatalf("timestamps must be set: %+v", rec)
	}
}

func TestUpsertUpdatesStatusKeepsCreatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PersistJob(ctx, sampleJob("job-1", "queued")); err != nil {
		t.Fatalf("persist: %v", err)
	}
	first, err := s.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	updated := sampleJob("job-1", "completed")
	updated.AppliedTier = 2
	updated.CreatedAt = first.CreatedAt
	if err := s.PersistJob(ctx, updated); err != nil {
		t.Fatalf("persist update: %v", err)
	}

	second, err := s.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.Status != "completed" || second.AppliedTier != 2 {
		t.Fatalf("update not applied: %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("created_at must survive upsert: %v vs %v", second.CreatedAt, first.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("updated_at must advance: %v vs %v", second.UpdatedAt, first.UpdatedAt)
	}
}

func TestGetMissingJob(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetJob(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListJobsFiltersByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, pair := range [][2]string{{"a", "queued"}, {"b", "completed"}, {"c", "failed"}} {
		if err := s.PersistJob(ctx, sampleJob(pair[0], pair[1])); err != nil {
			t.Fatalf("persist %s: %v", pair[0], err)
		}
	}

	all, err := s.ListJobs(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(all))
	}

	terminal, err := s.ListJobs(ctx, "completed", "failed")
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(terminal) != 2 {
		t.Fatalf("expected 2 terminal jobs, got %d", len(terminal))
	}
	for _, rec := range terminal {
		if rec.Status == "queued" {
			t.Fatalf("filter leaked queued job: %+v", rec)
		}
	}
}

func TestEventsAppendOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	type payload struct {
		Tier int `json:"tier"`
	}
	if err := s.AppendEvent(ctx, "job-1", "format_conversion", "starting", nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendEvent(ctx, "job-1", "fallback_applied", "tier escalated", payload{Tier: 2}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendEvent(ctx, "job-2", "format_conversion", "other job", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := s.EventsForJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != "format_conversion" || events[1].Type != "fallback_applied" {
		t.Fatalf("events out of order: %+v", events)
	}
	if events[0].Details != nil {
		t.Fatalf("nil details must round-trip as nil, got %s", events[0].Details)
	}

	var decoded payload
	if err := json.Unmarshal(events[1].Details, &decoded); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if decoded.Tier != 2 {
		t.Fatalf("details mangled: %+v", decoded)
	}
}

func TestClearByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, pair := range [][2]string{{"a", "completed"}, {"b", "failed"}, {"c", "processing"}} {
		if err := s.PersistJob(ctx, sampleJob(pair[0], pair[1])); err != nil {
			t.Fatalf("persist %s: %v", pair[0], err)
		}
		if err := s.AppendEvent(ctx, pair[0], "format_conversion", "starting", nil); err != nil {
			t.Fatalf("append %s: %v", pair[0], err)
		}
	}

	deleted, err := s.ClearByStatus(ctx, "completed", "failed")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	if _, err := s.GetJob(ctx, "c"); err != nil {
		t.Fatalf("processing job must survive: %v", err)
	}
	events, err := s.EventsForJob(ctx, "a")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("cleared job must lose its events, got %d", len(events))
	}
}

func TestDeleteJobRemovesHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PersistJob(ctx, sampleJob("job-1", "completed")); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := s.AppendEvent(ctx, "job-1", "job_cleanup", "workspace removed", nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.DeleteJob(ctx, "job-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetJob(ctx, "job-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	events, err := s.EventsForJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events after delete, got %d", len(events))
	}
}

func TestStatsCountsByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, pair := range [][2]string{{"a", "queued"}, {"b", "queued"}, {"c", "failed"}} {
		if err := s.PersistJob(ctx, sampleJob(pair[0], pair[1])); err != nil {
			t.Fatalf("persist %s: %v", pair[0], err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats["queued"] != 2 || stats["failed"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
