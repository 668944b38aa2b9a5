package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rdelaney/graphmark/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRun() *model.Run {
	return &model.Run{
		ID:        model.NewID(),
		Database:  "neo4j",
		Dataset:   "soc-pokec",
		Workload:  "structural-basic",
		Mode:      model.ModeStructural,
		Seed:      42,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := newTestRun()
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.ID != run.ID || got.Database != "neo4j" || got.Mode != model.ModeStructural {
		t.Errorf("got %+v, want %+v", got, run)
	}
	if got.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.Seed != 42 {
		t.Errorf("seed = %d, want 42", got.Seed)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListRunsPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		run := newTestRun()
		run.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}

	runs, total, err := s.ListRuns(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(runs) != 2 {
		t.Errorf("got %d runs, want 2", len(runs))
	}
	// Newest first.
	if len(runs) == 2 && runs[0].CreatedAt.Before(runs[1].CreatedAt) {
		t.Errorf("runs not ordered newest first")
	}

	runs, _, err = s.ListRuns(ctx, 10, 4)
	if err != nil {
		t.Fatalf("ListRuns offset: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("got %d runs at offset 4, want 1", len(runs))
	}
}

func TestUpdateRunStatusTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := newTestRun()
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	if err := s.UpdateRunStatus(ctx, run.ID, model.StatusRunning); err != nil {
		t.Fatalf("pending -> running: %v", err)
	}
	got, _ := s.GetRun(ctx, run.ID)
	if got.StartedAt == nil {
		t.Errorf("started_at not set on transition to running")
	}

	if err := s.UpdateRunStatus(ctx, run.ID, model.StatusCompleted); err != nil {
		t.Fatalf("running -> completed: %v", err)
	}
	got, _ = s.GetRun(ctx, run.ID)
	if got.FinishedAt == nil {
		t.Errorf("finished_at not set on transition to completed")
	}

	// Terminal states reject further transitions.
	err := s.UpdateRunStatus(ctx, run.ID, model.StatusRunning)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("completed -> running: got %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateRunStatusInvalidFromPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := newTestRun()
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	err := s.UpdateRunStatus(ctx, run.ID, model.StatusTimedOut)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending -> timed_out: got %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateRunStatusNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateRunStatus(context.Background(), "nope", model.StatusRunning)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateRunOutcomeFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := newTestRun()
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	dur := 12.5
	run.Status = model.StatusFailed
	run.Error = "runner crashed"
	run.DurationS = &dur
	if err := s.UpdateRun(ctx, run); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Error != "runner crashed" {
		t.Errorf("error = %q", got.Error)
	}
	if got.DurationS == nil || *got.DurationS != 12.5 {
		t.Errorf("duration_s = %v, want 12.5", got.DurationS)
	}

	missing := newTestRun()
	if err := s.UpdateRun(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("update of missing run: got %v, want ErrNotFound", err)
	}
}

func TestGetRunStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	durations := []float64{10, 20}
	for i, d := range durations {
		run := newTestRun()
		run.Status = model.StatusCompleted
		dur := d
		run.DurationS = &dur
		if i == 1 {
			run.Database = "memgraph"
		}
		if err := s.CreateRun(ctx, run); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}
	failed := newTestRun()
	failed.Status = model.StatusFailed
	if err := s.CreateRun(ctx, failed); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	stats, err := s.GetRunStats(ctx)
	if err != nil {
		t.Fatalf("GetRunStats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d, want 3", stats.Total)
	}
	if stats.CountByStatus[model.StatusCompleted] != 2 || stats.CountByStatus[model.StatusFailed] != 1 {
		t.Errorf("count_by_status = %v", stats.CountByStatus)
	}
	if stats.CountByDatabase["neo4j"] != 2 || stats.CountByDatabase["memgraph"] != 1 {
		t.Errorf("count_by_database = %v", stats.CountByDatabase)
	}
	if stats.AvgDurationS != 15 {
		t.Errorf("avg_duration_s = %v, want 15", stats.AvgDurationS)
	}
}

func TestTaskResultsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := newTestRun()
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	for i := 2; i >= 0; i-- {
		tr := &model.TaskResult{
			RunID:           run.ID,
			TaskIndex:       i,
			TaskName:        "get_nbrs",
			Status:          "success",
			DurationSeconds: float64(i),
			OriginalOps:     100,
			ValidOps:        90,
			FilteredOps:     10,
		}
		if err := s.InsertTaskResult(ctx, tr); err != nil {
			t.Fatalf("InsertTaskResult: %v", err)
		}
	}

	results, err := s.GetTaskResults(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetTaskResults: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, tr := range results {
		if tr.TaskIndex != i {
			t.Errorf("result %d has task_index %d, want ordered by index", i, tr.TaskIndex)
		}
	}
	if results[0].ValidOps != 90 || results[0].FilteredOps != 10 {
		t.Errorf("op counts not preserved: %+v", results[0])
	}
}

func TestEventsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := newTestRun()
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	kinds := []string{"task_start", "subtask_start", "subtask_complete"}
	for i, kind := range kinds {
		if err := s.InsertEvent(ctx, run.ID, i+1, kind, "add_vertex", ""); err != nil {
			t.Fatalf("InsertEvent: %v", err)
		}
	}

	events, err := s.GetEvents(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, e := range events {
		if e.Kind != kinds[i] {
			t.Errorf("event %d kind = %q, want %q", i, e.Kind, kinds[i])
		}
		if e.Seq != i+1 {
			t.Errorf("event %d seq = %d, want %d", i, e.Seq, i+1)
		}
	}

	other, err := s.GetEvents(ctx, "other-run")
	if err != nil {
		t.Fatalf("GetEvents other: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("events leaked across runs: %v", other)
	}
}
